package exec

import (
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang/types"
)

// ElementKind identifies the built-in leaf an [Element] renders as.
type ElementKind int

const (
	ElementNull ElementKind = iota
	ElementRow
	ElementColumn
	ElementText
	ElementImage
	ElementInteger
	ElementDecimal
	ElementBoolean
	ElementTextInput
	ElementCheckbox
	ElementIframe
	ElementCode
	ElementWebComponent
)

var elementKindNames = [...]string{
	ElementNull:         "null",
	ElementRow:          "row",
	ElementColumn:       "column",
	ElementText:         "text",
	ElementImage:        "image",
	ElementInteger:      "integer",
	ElementDecimal:      "decimal",
	ElementBoolean:      "boolean",
	ElementTextInput:    "text-input",
	ElementCheckbox:     "checkbox",
	ElementIframe:       "iframe",
	ElementCode:         "code",
	ElementWebComponent: "web-component",
}

func (k ElementKind) String() string {
	if k < 0 || int(k) >= len(elementKindNames) {
		return "ElementKind(" + strconv.Itoa(int(k)) + ")"
	}

	return elementKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ElementKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// IsContainer reports whether elements of kind k hold children.
func (k ElementKind) IsContainer() bool {
	return k == ElementRow || k == ElementColumn
}

// kernelKinds maps the qualified name of each kernel component to the
// element it produces.
//
//nolint:gochecknoglobals
var kernelKinds = map[string]ElementKind{
	"ftd#row":        ElementRow,
	"ftd#column":     ElementColumn,
	"ftd#text":       ElementText,
	"ftd#image":      ElementImage,
	"ftd#integer":    ElementInteger,
	"ftd#decimal":    ElementDecimal,
	"ftd#boolean":    ElementBoolean,
	"ftd#text-input": ElementTextInput,
	"ftd#checkbox":   ElementCheckbox,
	"ftd#iframe":     ElementIframe,
	"ftd#code":       ElementCode,
}

// Attribute is a resolved property of an element.
type Attribute struct {
	Name  string
	Value types.Value
}

// ConditionalValue is a value an attribute takes while Condition holds.
//
// References maps each reference written in Condition, without the '$',
// to the qualified name of the variable it reads.
type ConditionalValue struct {
	Condition  string            `json:"condition"  yaml:"condition"`
	References map[string]string `json:"references" yaml:"references"`
	Value      string            `json:"value"      yaml:"value"`
}

// ConditionalAttribute describes how a style attribute changes with mutable
// state. Values are rendered as style text; the last condition that holds
// wins, else Default applies.
type ConditionalAttribute struct {
	Name       string             `json:"name"              yaml:"name"`
	Default    string             `json:"default,omitempty" yaml:"default,omitempty"`
	Conditions []ConditionalValue `json:"conditions"        yaml:"conditions"`
}

// Action is a function call bound to an event, with its arguments resolved
// to values or to references into the bag.
type Action struct {
	Function  string        `json:"function"  yaml:"function"`
	Arguments []types.Field `json:"arguments" yaml:"arguments"`
}

// EventBinding binds an event name to the actions it runs, in order.
type EventBinding struct {
	Name    string   `json:"name"    yaml:"name"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// Condition is a visibility condition that depends on mutable state.
type Condition struct {
	Source     string            `json:"source"     yaml:"source"`
	References map[string]string `json:"references" yaml:"references"`
	Holds      bool              `json:"holds"      yaml:"holds"`
}

// Element is a node of an executed document.
type Element struct {
	Kind ElementKind
	// Name is the qualified name of the invoked component.
	Name string
	ID   string
	// Container is the path of child indices from the root of the tree.
	Container             []int
	Attributes            []Attribute
	ConditionalAttributes []ConditionalAttribute
	Events                []EventBinding
	Children              []*Element
	Condition             *Condition
	IsNull                bool
	Line                  int
}

// Attribute returns the value of the attribute called name.
func (e *Element) Attribute(name string) (types.Value, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}

	return nil, false
}

// Text returns the attribute called name rendered as text.
func (e *Element) Text(name string) string {
	v, _ := e.Attribute(name)

	return types.Text(v)
}

// Event returns the binding of the event called name.
func (e *Element) Event(name string) (*EventBinding, bool) {
	for i := range e.Events {
		if e.Events[i].Name == name {
			return &e.Events[i], true
		}
	}

	return nil, false
}

// MarshalYAML implements yaml.InterfaceMarshaler with attributes in order.
func (e *Element) MarshalYAML() (any, error) {
	out := yaml.MapSlice{
		{Key: "kind", Value: e.Kind},
		{Key: "name", Value: e.Name},
		{Key: "container", Value: e.Container},
	}

	if e.ID != "" {
		out = append(out, yaml.MapItem{Key: "id", Value: e.ID})
	}

	if e.IsNull {
		return append(out, yaml.MapItem{Key: "null", Value: true}), nil
	}

	if len(e.Attributes) > 0 {
		attrs := make(yaml.MapSlice, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs = append(attrs, yaml.MapItem{Key: a.Name, Value: types.NativeValue(a.Value)})
		}

		out = append(out, yaml.MapItem{Key: "attributes", Value: attrs})
	}

	if len(e.ConditionalAttributes) > 0 {
		out = append(out, yaml.MapItem{Key: "conditional", Value: e.ConditionalAttributes})
	}

	if len(e.Events) > 0 {
		events := make(yaml.MapSlice, 0, len(e.Events))
		for _, ev := range e.Events {
			events = append(events, yaml.MapItem{Key: ev.Name, Value: describeActions(ev.Actions)})
		}

		out = append(out, yaml.MapItem{Key: "events", Value: events})
	}

	if e.Condition != nil {
		out = append(out, yaml.MapItem{Key: "if", Value: e.Condition})
	}

	if len(e.Children) > 0 {
		out = append(out, yaml.MapItem{Key: "children", Value: e.Children})
	}

	return out, nil
}

func describeActions(actions []Action) []any {
	out := make([]any, len(actions))

	for i, a := range actions {
		args := make(yaml.MapSlice, 0, len(a.Arguments))
		for _, f := range a.Arguments {
			args = append(args, yaml.MapItem{Key: f.Name, Value: types.Native(f.Value)})
		}

		out[i] = yaml.MapSlice{{Key: a.Function, Value: args}}
	}

	return out
}

// Tree is the result of executing a document's root invocations.
type Tree struct {
	Elements []*Element `json:"elements" yaml:"elements"`
	// ChildContainer maps each element id to its container path, where a
	// host splices externally provided children.
	ChildContainer map[string][]int `json:"child_container,omitempty" yaml:"child_container,omitempty"`
}

// Walk calls fn for every element in depth-first order until fn returns
// false.
func (t *Tree) Walk(fn func(*Element) bool) {
	var walk func([]*Element) bool

	walk = func(els []*Element) bool {
		for _, e := range els {
			if !fn(e) || !walk(e.Children) {
				return false
			}
		}

		return true
	}

	walk(t.Elements)
}

// Find returns the first element for which match returns true.
func (t *Tree) Find(match func(*Element) bool) (*Element, bool) {
	var found *Element

	t.Walk(func(e *Element) bool {
		if match(e) {
			found = e

			return false
		}

		return true
	})

	return found, found != nil
}

// At returns the element at container path.
func (t *Tree) At(path []int) (*Element, bool) {
	els := t.Elements

	var e *Element

	for _, i := range path {
		if i < 0 || i >= len(els) {
			return nil, false
		}

		e = els[i]
		els = e.Children
	}

	return e, e != nil
}

// Lookup returns the element named by ref: an element id, else a container
// path written as dot-separated child indices, such as "0.2".
func (t *Tree) Lookup(ref string) (*Element, bool) {
	if ref == "" {
		return nil, false
	}

	if e, ok := t.Find(func(e *Element) bool { return e.ID == ref }); ok {
		return e, true
	}

	parts := strings.Split(ref, ".")
	path := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}

		path[i] = n
	}

	return t.At(path)
}

func (t *Tree) index() {
	t.Walk(func(e *Element) bool {
		if e.ID != "" {
			if t.ChildContainer == nil {
				t.ChildContainer = map[string][]int{}
			}

			t.ChildContainer[e.ID] = slices.Clone(e.Container)
		}

		return true
	})
}

// MarshalJSON implements json.Marshaler through the YAML representation so
// attribute order is kept.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return yaml.MarshalWithOptions(t, yaml.JSON())
}

// MarshalJSON implements json.Marshaler, keeping attribute order.
func (e *Element) MarshalJSON() ([]byte, error) {
	v, err := e.MarshalYAML()
	if err != nil {
		return nil, err
	}

	return yaml.MarshalWithOptions(v, yaml.JSON())
}
