package types

import (
	"maps"
	"slices"
)

// Case distinguishes the forms of a [PropertyValue].
type Case int

const (
	CaseValue     Case = iota // value
	CaseReference             // reference
	CaseClone                 // clone
)

func (c Case) String() string {
	switch c {
	case CaseReference:
		return "reference"
	case CaseClone:
		return "clone"
	default:
		return "value"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Case) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// SourceTag tells which scope a reference is resolved in.
type SourceTag int

const (
	SourceGlobal SourceTag = iota // global
	SourceLocal                   // local
	SourceLoop                    // loop
)

// Source is the scope of a reference: the bag, the arguments of a
// container component, or a loop binder.
type Source struct {
	Tag       SourceTag `json:"tag"                 yaml:"tag"`
	Container string    `json:"container,omitempty" yaml:"container,omitempty"`
}

// Global is the source of references into the bag.
func Global() Source { return Source{Tag: SourceGlobal} }

// Local is the source of references to arguments of the component
// definition container.
func Local(container string) Source {
	return Source{Tag: SourceLocal, Container: container}
}

// Loop is the source of references to loop binders.
func Loop() Source { return Source{Tag: SourceLoop} }

func (s Source) String() string {
	switch s.Tag {
	case SourceLocal:
		return "local(" + s.Container + ")"
	case SourceLoop:
		return "loop"
	default:
		return "global"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PropertyValue is a type-checked value or a name indirection.
//
// A reference reads the named value when used. A clone copies it once, when
// the property is bound. Name is fully qualified for global references and
// may continue with a field path ("main#p.x").
type PropertyValue struct {
	Case    Case   `json:"case"              yaml:"case"`
	Value   Value  `json:"value,omitempty"   yaml:"value,omitempty"`
	Name    string `json:"name,omitempty"    yaml:"name,omitempty"`
	Kind    Kind   `json:"kind"              yaml:"kind"`
	Mutable bool   `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	Source  Source `json:"source"            yaml:"source"`
	Line    int    `json:"line"              yaml:"line"`
}

// NewValue returns a literal property value.
func NewValue(v Value, line int) PropertyValue {
	return PropertyValue{Case: CaseValue, Value: v, Kind: v.Kind(), Line: line}
}

// NewReference returns a reference to name.
func NewReference(name string, kind Kind, source Source, line int) PropertyValue {
	return PropertyValue{
		Case:   CaseReference,
		Name:   name,
		Kind:   kind,
		Source: source,
		Line:   line,
	}
}

// NewClone returns a clone of name.
func NewClone(name string, kind Kind, source Source, line int) PropertyValue {
	return PropertyValue{
		Case:   CaseClone,
		Name:   name,
		Kind:   kind,
		Source: source,
		Line:   line,
	}
}

// IsValue reports whether pv holds a literal.
func (pv PropertyValue) IsValue() bool { return pv.Case == CaseValue }

// IsReference reports whether pv reads another value by name.
func (pv PropertyValue) IsReference() bool { return pv.Case != CaseValue }

// WithMutable returns a copy of pv with the mutability bit set to m.
func (pv PropertyValue) WithMutable(m bool) PropertyValue {
	pv.Mutable = m

	return pv
}

// Expression is a condition with its references resolved.
//
// References maps each reference as written, without the leading '$', to the
// property value it reads.
type Expression struct {
	Source     string                   `json:"source"               yaml:"source"`
	References map[string]PropertyValue `json:"references,omitempty" yaml:"references,omitempty"`
	Line       int                      `json:"line"                 yaml:"line"`
}

// Names returns the written reference names in sorted order.
func (e *Expression) Names() []string {
	return slices.Sorted(maps.Keys(e.References))
}

// Targets returns the qualified names of the global references of e, in
// sorted order.
func (e *Expression) Targets() []string {
	var out []string

	for _, pv := range e.References {
		if pv.IsReference() && pv.Source.Tag == SourceGlobal &&
			!slices.Contains(out, pv.Name) {
			out = append(out, pv.Name)
		}
	}

	slices.Sort(out)

	return out
}
