package types

import (
	"slices"
	"strings"
)

// KernelName is the component at the root of every built-in leaf component.
const KernelName = "ftd#kernel"

// Thing is a named declaration held by a [Bag].
//
// The set of implementations is closed: [*Variable], [*Function], [*Record],
// [*OrType], [*ComponentDefinition], and [*WebComponentDefinition].
type Thing interface {
	// Key returns the fully qualified name of the thing.
	Key() string
	// Line returns the line the thing was declared on.
	Line() int
	// Form names the kind of declaration, for diagnostics.
	Form() string

	clone() Thing
}

// Argument is a typed name declared by a record, component, function, or
// web-component, with an optional default.
type Argument struct {
	Name    string         `json:"name"              yaml:"name"`
	Kind    KindData       `json:"kind"              yaml:"kind"`
	Mutable bool           `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	Default *PropertyValue `json:"default,omitempty" yaml:"default,omitempty"`
	Line    int            `json:"line"              yaml:"line"`
}

// IsRequired reports whether a value must be supplied for the argument.
func (a *Argument) IsRequired() bool {
	return a.Default == nil && !a.Kind.Kind.IsOptional() &&
		!a.Kind.Kind.IsList()
}

// ConditionalValue is an override of a variable's value that applies while
// its condition holds.
type ConditionalValue struct {
	Condition Expression    `json:"condition" yaml:"condition"`
	Value     PropertyValue `json:"value"     yaml:"value"`
	Line      int           `json:"line"      yaml:"line"`
}

// Variable is a named value.
type Variable struct {
	Name        string             `json:"name"                  yaml:"name"`
	Kind        KindData           `json:"kind"                  yaml:"kind"`
	Mutable     bool               `json:"mutable"               yaml:"mutable"`
	Value       PropertyValue      `json:"value"                 yaml:"value"`
	Conditional []ConditionalValue `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	IsStatic    bool               `json:"static"                yaml:"static"`
	LineNum     int                `json:"line"                  yaml:"line"`
}

// FunctionExpression is one statement of a function body.
type FunctionExpression struct {
	Expression string `json:"expression" yaml:"expression"`
	Line       int    `json:"line"       yaml:"line"`
}

// Function is a named list of expression statements over its arguments.
type Function struct {
	Name        string               `json:"name"         yaml:"name"`
	ReturnKind  KindData             `json:"return"       yaml:"return"`
	Arguments   []Argument           `json:"arguments"    yaml:"arguments"`
	Expressions []FunctionExpression `json:"expressions"  yaml:"expressions"`
	JS          string               `json:"js,omitempty" yaml:"js,omitempty"`
	LineNum     int                  `json:"line"         yaml:"line"`
}

// Record declares the fields of a product kind.
type Record struct {
	Name    string     `json:"name"   yaml:"name"`
	Fields  []Argument `json:"fields" yaml:"fields"`
	LineNum int        `json:"line"   yaml:"line"`
}

// OrTypeVariant is one alternative of an [OrType].
type OrTypeVariant struct {
	Name     string         `json:"name"            yaml:"name"`
	Kind     KindData       `json:"kind"            yaml:"kind"`
	Constant bool           `json:"constant"        yaml:"constant"`
	Value    *PropertyValue `json:"value,omitempty" yaml:"value,omitempty"`
	Line     int            `json:"line"            yaml:"line"`
}

// OrType declares a tagged union.
type OrType struct {
	Name     string          `json:"name"     yaml:"name"`
	Variants []OrTypeVariant `json:"variants" yaml:"variants"`
	LineNum  int             `json:"line"     yaml:"line"`
}

// ComponentDefinition declares a component by its arguments and a root
// invocation.
type ComponentDefinition struct {
	Name       string     `json:"name"          yaml:"name"`
	Arguments  []Argument `json:"arguments"     yaml:"arguments"`
	Definition *Component `json:"definition"    yaml:"definition"`
	CSS        string     `json:"css,omitempty" yaml:"css,omitempty"`
	LineNum    int        `json:"line"          yaml:"line"`
}

// WebComponentDefinition declares a component implemented by an external
// script.
type WebComponentDefinition struct {
	Name      string     `json:"name"      yaml:"name"`
	Arguments []Argument `json:"arguments" yaml:"arguments"`
	JS        string     `json:"js"        yaml:"js"`
	LineNum   int        `json:"line"      yaml:"line"`
}

// PropertySource tells where a property was written in the invocation.
type PropertySource int

const (
	FromHeader  PropertySource = iota // header
	FromCaption                       // caption
	FromBody                          // body
	FromDefault                       // default
)

func (s PropertySource) String() string {
	switch s {
	case FromCaption:
		return "caption"
	case FromBody:
		return "body"
	case FromDefault:
		return "default"
	default:
		return "header"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PropertySource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Property binds a value to an argument of the invoked component,
// optionally only while Condition holds.
type Property struct {
	Target    string         `json:"target"              yaml:"target"`
	Source    PropertySource `json:"source"              yaml:"source"`
	Value     PropertyValue  `json:"value"               yaml:"value"`
	Condition *Expression    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Line      int            `json:"line"                yaml:"line"`
}

// LoopClause repeats an invocation once per item of a list.
type LoopClause struct {
	On    PropertyValue `json:"on"              yaml:"on"`
	Alias string        `json:"alias"           yaml:"alias"`
	Index string        `json:"index,omitempty" yaml:"index,omitempty"`
	Line  int           `json:"line"            yaml:"line"`
}

// FunctionCall invokes a function with named arguments.
type FunctionCall struct {
	Name      string  `json:"name"      yaml:"name"`
	Arguments []Field `json:"arguments" yaml:"arguments"`
	Line      int     `json:"line"      yaml:"line"`
}

// Event binds a named event to function calls, run in order.
type Event struct {
	Name    string         `json:"name"    yaml:"name"`
	Actions []FunctionCall `json:"actions" yaml:"actions"`
	Line    int            `json:"line"    yaml:"line"`
}

// Component is an invocation node of a component definition tree, or a root
// instruction of a document.
type Component struct {
	Name       string       `json:"name"                 yaml:"name"`
	Properties []Property   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Loop       *LoopClause  `json:"loop,omitempty"       yaml:"loop,omitempty"`
	Condition  *Expression  `json:"condition,omitempty"  yaml:"condition,omitempty"`
	Events     []Event      `json:"events,omitempty"     yaml:"events,omitempty"`
	Children   []*Component `json:"children,omitempty"   yaml:"children,omitempty"`
	Line       int          `json:"line"                 yaml:"line"`
}

func (t *Variable) Key() string               { return t.Name }
func (t *Function) Key() string               { return t.Name }
func (t *Record) Key() string                 { return t.Name }
func (t *OrType) Key() string                 { return t.Name }
func (t *ComponentDefinition) Key() string    { return t.Name }
func (t *WebComponentDefinition) Key() string { return t.Name }

func (t *Variable) Line() int               { return t.LineNum }
func (t *Function) Line() int               { return t.LineNum }
func (t *Record) Line() int                 { return t.LineNum }
func (t *OrType) Line() int                 { return t.LineNum }
func (t *ComponentDefinition) Line() int    { return t.LineNum }
func (t *WebComponentDefinition) Line() int { return t.LineNum }

func (*Variable) Form() string               { return "variable" }
func (*Function) Form() string               { return "function" }
func (*Record) Form() string                 { return "record" }
func (*OrType) Form() string                 { return "or-type" }
func (*ComponentDefinition) Form() string    { return "component" }
func (*WebComponentDefinition) Form() string { return "web-component" }

// Variables are the only things that change after insertion; every other
// thing is shared between clones.
func (t *Variable) clone() Thing {
	c := *t
	c.Conditional = slices.Clone(t.Conditional)

	return &c
}

func (t *Function) clone() Thing               { return t }
func (t *Record) clone() Thing                 { return t }
func (t *OrType) clone() Thing                 { return t }
func (t *ComponentDefinition) clone() Thing    { return t }
func (t *WebComponentDefinition) clone() Thing { return t }

// Field returns the field called name.
func (t *Record) Field(name string) (*Argument, bool) {
	return findArgument(t.Fields, name)
}

// Argument returns the argument called name.
func (t *Function) Argument(name string) (*Argument, bool) {
	return findArgument(t.Arguments, name)
}

// Argument returns the argument called name.
func (t *ComponentDefinition) Argument(name string) (*Argument, bool) {
	return findArgument(t.Arguments, name)
}

// Argument returns the argument called name.
func (t *WebComponentDefinition) Argument(name string) (*Argument, bool) {
	return findArgument(t.Arguments, name)
}

// IsKernel reports whether the component is a built-in leaf.
func (t *ComponentDefinition) IsKernel() bool {
	return t.Definition != nil && t.Definition.Name == KernelName
}

// CaptionArgument returns the argument flagged to receive a caption.
func CaptionArgument(args []Argument) (*Argument, bool) {
	for i := range args {
		if args[i].Kind.Caption {
			return &args[i], true
		}
	}

	return nil, false
}

// BodyArgument returns the argument flagged to receive a body.
func BodyArgument(args []Argument) (*Argument, bool) {
	for i := range args {
		if args[i].Kind.Body {
			return &args[i], true
		}
	}

	return nil, false
}

func findArgument(args []Argument, name string) (*Argument, bool) {
	for i := range args {
		if args[i].Name == name {
			return &args[i], true
		}
	}

	return nil, false
}

// Variant returns the variant called name.
func (t *OrType) Variant(name string) (*OrTypeVariant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i], true
		}
	}

	return nil, false
}

// Match selects the variant written as text.
//
// Text selects a variant by name first, then a constant variant by its
// value, the earliest declaration winning, and finally "<name> <payload>"
// for a regular variant. The returned payload is the text left for the
// variant's value, empty for a bare variant name.
func (t *OrType) Match(text string) (v *OrTypeVariant, payload string, ok bool) {
	text = strings.TrimSpace(text)

	if v, ok := t.Variant(text); ok {
		return v, "", true
	}

	for i := range t.Variants {
		c := &t.Variants[i]
		if c.Constant && c.Value != nil && c.Value.IsValue() &&
			Text(c.Value.Value) == text {
			return c, "", true
		}
	}

	if name, rest, found := strings.Cut(text, " "); found {
		if v, ok := t.Variant(name); ok && !v.Constant {
			return v, strings.TrimSpace(rest), true
		}
	}

	return nil, "", false
}

// Current returns the value of the variable given which conditional
// overrides hold. The last override whose condition holds wins.
func (t *Variable) Current(holds func(*Expression) (bool, error)) (PropertyValue, error) {
	pv := t.Value

	for i := range t.Conditional {
		ok, err := holds(&t.Conditional[i].Condition)
		if err != nil {
			return PropertyValue{}, err
		}

		if ok {
			pv = t.Conditional[i].Value
		}
	}

	return pv, nil
}
