package ast

import (
	"strings"

	"github.com/ardnew/ftd/lang/p1"
)

// Ast is a top-level declaration of a document.
//
// The set of implementations is closed: [*Import], [*Record], [*OrType],
// [*VariableDefinition], [*VariableInvocation], [*Function],
// [*ComponentDefinition], [*WebComponentDefinition], and
// [*ComponentInvocation].
type Ast interface {
	// Line returns the 1-based line the declaration starts on.
	Line() int
	// Form names the declaration form, for diagnostics.
	Form() string

	isAst()
}

// Import brings another document into scope under an alias.
type Import struct {
	Module   string   `json:"module"             yaml:"module"`
	Alias    string   `json:"alias"              yaml:"alias"`
	Exposing []string `json:"exposing,omitempty" yaml:"exposing,omitempty"`
	Export   []string `json:"export,omitempty"   yaml:"export,omitempty"`
	LineNum  int      `json:"line"               yaml:"line"`
}

// Record declares a product type.
type Record struct {
	Name    string      `json:"name"   yaml:"name"`
	Fields  []*Argument `json:"fields" yaml:"fields"`
	LineNum int         `json:"line"   yaml:"line"`
}

// OrType declares a tagged union.
type OrType struct {
	Name     string           `json:"name"     yaml:"name"`
	Variants []*OrTypeVariant `json:"variants" yaml:"variants"`
	LineNum  int              `json:"line"     yaml:"line"`
}

// OrTypeVariant is one alternative of an [OrType].
//
// A constant variant has a fixed value; a regular variant carries a payload
// of its kind, optionally defaulted.
type OrTypeVariant struct {
	Name     string `json:"name"            yaml:"name"`
	Kind     string `json:"kind"            yaml:"kind"`
	Constant bool   `json:"constant"        yaml:"constant"`
	Value    *Value `json:"value,omitempty" yaml:"value,omitempty"`
	LineNum  int    `json:"line"            yaml:"line"`
}

// VariableDefinition declares a named value of a kind.
type VariableDefinition struct {
	Name      string     `json:"name"                yaml:"name"`
	Kind      string     `json:"kind"                yaml:"kind"`
	Mutable   bool       `json:"mutable"             yaml:"mutable"`
	Value     *Value     `json:"value"               yaml:"value"`
	Processor string     `json:"processor,omitempty" yaml:"processor,omitempty"`
	Meta      p1.Headers `json:"meta,omitempty"      yaml:"meta,omitempty"`
	LineNum   int        `json:"line"                yaml:"line"`

	section *p1.Section
}

// VariableInvocation assigns to a declared variable, or adds a conditional
// override to it when Condition is set.
type VariableInvocation struct {
	Name      string     `json:"name"                yaml:"name"`
	Value     *Value     `json:"value"               yaml:"value"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	LineNum   int        `json:"line"                yaml:"line"`
}

// Function declares a function whose body is a list of expression
// statements.
type Function struct {
	Name       string      `json:"name"           yaml:"name"`
	ReturnKind string      `json:"return"         yaml:"return"`
	Arguments  []*Argument `json:"arguments"      yaml:"arguments"`
	Definition string      `json:"definition"     yaml:"definition"`
	JS         string      `json:"js,omitempty"   yaml:"js,omitempty"`
	LineNum    int         `json:"line"           yaml:"line"`
	DefLine    int         `json:"-"              yaml:"-"`
}

// ComponentDefinition declares a reusable component with one root
// invocation.
type ComponentDefinition struct {
	Name       string               `json:"name"          yaml:"name"`
	Arguments  []*Argument          `json:"arguments"     yaml:"arguments"`
	Definition *ComponentInvocation `json:"definition"    yaml:"definition"`
	CSS        string               `json:"css,omitempty" yaml:"css,omitempty"`
	LineNum    int                  `json:"line"          yaml:"line"`
}

// WebComponentDefinition declares a component implemented by an external
// script.
type WebComponentDefinition struct {
	Name      string      `json:"name"      yaml:"name"`
	Arguments []*Argument `json:"arguments" yaml:"arguments"`
	JS        string      `json:"js"        yaml:"js"`
	LineNum   int         `json:"line"      yaml:"line"`
}

// ComponentInvocation instantiates a component.
type ComponentInvocation struct {
	Name       string                 `json:"name"                 yaml:"name"`
	Properties []*Property            `json:"properties,omitempty" yaml:"properties,omitempty"`
	Loop       *Loop                  `json:"loop,omitempty"       yaml:"loop,omitempty"`
	Condition  *Condition             `json:"condition,omitempty"  yaml:"condition,omitempty"`
	Events     []*Event               `json:"events,omitempty"     yaml:"events,omitempty"`
	Children   []*ComponentInvocation `json:"children,omitempty"   yaml:"children,omitempty"`
	LineNum    int                    `json:"line"                 yaml:"line"`
}

// Argument is a typed name declared by a record, component, function, or
// web-component.
type Argument struct {
	Name    string `json:"name"            yaml:"name"`
	Kind    string `json:"kind"            yaml:"kind"`
	Mutable bool   `json:"mutable"         yaml:"mutable"`
	Value   *Value `json:"value,omitempty" yaml:"value,omitempty"`
	LineNum int    `json:"line"            yaml:"line"`
}

// PropertySource tells where a property value was written.
type PropertySource int

const (
	SourceHeader  PropertySource = iota // header
	SourceCaption                       // caption
	SourceBody                          // body
)

func (s PropertySource) String() string {
	switch s {
	case SourceCaption:
		return "caption"
	case SourceBody:
		return "body"
	default:
		return "header"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PropertySource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Property binds a value to an argument of the invoked component.
//
// Key is empty for caption and body properties; the interpreter binds them
// to the argument flagged caption or body.
type Property struct {
	Key       string         `json:"key,omitempty"       yaml:"key,omitempty"`
	Source    PropertySource `json:"source"              yaml:"source"`
	Mutable   bool           `json:"mutable,omitempty"   yaml:"mutable,omitempty"`
	Value     *Value         `json:"value"               yaml:"value"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	LineNum   int            `json:"line"                yaml:"line"`
}

// Loop is the iteration clause "$loop$: <on> as $<alias>[, $<index>]".
type Loop struct {
	On      string `json:"on"              yaml:"on"`
	Alias   string `json:"alias"           yaml:"alias"`
	Index   string `json:"index,omitempty" yaml:"index,omitempty"`
	LineNum int    `json:"line"            yaml:"line"`
}

// Event binds "$on-<name>$" to one or more function calls.
type Event struct {
	Name    string   `json:"name"    yaml:"name"`
	Actions []string `json:"actions" yaml:"actions"`
	LineNum int      `json:"line"    yaml:"line"`
}

// Condition is the text of an "if" clause.
type Condition struct {
	Expression string `json:"expression" yaml:"expression"`
	LineNum    int    `json:"line"       yaml:"line"`
}

func (d *Import) Line() int                 { return d.LineNum }
func (d *Record) Line() int                 { return d.LineNum }
func (d *OrType) Line() int                 { return d.LineNum }
func (d *VariableDefinition) Line() int     { return d.LineNum }
func (d *VariableInvocation) Line() int     { return d.LineNum }
func (d *Function) Line() int               { return d.LineNum }
func (d *ComponentDefinition) Line() int    { return d.LineNum }
func (d *WebComponentDefinition) Line() int { return d.LineNum }
func (d *ComponentInvocation) Line() int    { return d.LineNum }

func (*Import) Form() string                 { return "import" }
func (*Record) Form() string                 { return "record" }
func (*OrType) Form() string                 { return "or-type" }
func (*VariableDefinition) Form() string     { return "variable" }
func (*VariableInvocation) Form() string     { return "variable invocation" }
func (*Function) Form() string               { return "function" }
func (*ComponentDefinition) Form() string    { return "component" }
func (*WebComponentDefinition) Form() string { return "web-component" }
func (*ComponentInvocation) Form() string    { return "component invocation" }

func (*Import) isAst()                 {}
func (*Record) isAst()                 {}
func (*OrType) isAst()                 {}
func (*VariableDefinition) isAst()     {}
func (*VariableInvocation) isAst()     {}
func (*Function) isAst()               {}
func (*ComponentDefinition) isAst()    {}
func (*WebComponentDefinition) isAst() {}
func (*ComponentInvocation) isAst()    {}

// Head returns the text before the colon of the defining section line.
func (d *VariableDefinition) Head() string {
	return strings.TrimSpace(d.Kind + " " + d.Name)
}

// AsInvocation reinterprets the definition as an invocation of component,
// the leading word of the kind, with the remaining head text as caption.
//
// It serves lines like "-- ftd.text Hello:" where the kind names a
// component rather than a value kind.
func (d *VariableDefinition) AsInvocation(component string) (*ComponentInvocation, error) {
	if d.section == nil {
		return nil, errorf(d.LineNum, "%q is not a component invocation",
			d.Head())
	}

	caption := strings.TrimSpace(strings.TrimPrefix(d.Head(), component))
	if c := d.section.CaptionText(); c != "" {
		caption += ": " + c
	}

	s := *d.section
	s.Kind = ""
	s.Name = component
	s.Caption = &p1.Value{Text: caption, Line: d.LineNum}

	return invocation(&s)
}

// Argument returns the argument named name.
func (d *ComponentDefinition) Argument(name string) (*Argument, bool) {
	return findArgument(d.Arguments, name)
}

// Argument returns the argument named name.
func (d *Function) Argument(name string) (*Argument, bool) {
	return findArgument(d.Arguments, name)
}

func findArgument(args []*Argument, name string) (*Argument, bool) {
	for _, a := range args {
		if a.Name == name {
			return a, true
		}
	}

	return nil, false
}
