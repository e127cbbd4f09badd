package types

import (
	"strconv"
	"strings"
)

// Value is a literal of some kind.
//
// The set of implementations is closed: [String], [Integer], [Decimal],
// [Boolean], [Object], [RecordValue], [OrTypeValue], [List], [Optional],
// [UI], and [Template].
type Value interface {
	// Kind returns the kind of the value.
	Kind() Kind

	isValue()
}

// String is a string literal.
type String struct {
	Text string `json:"text" yaml:"text"`
}

// Integer is an integer literal.
type Integer struct {
	Int int64 `json:"int" yaml:"int"`
}

// Decimal is a decimal literal.
type Decimal struct {
	Float float64 `json:"float" yaml:"float"`
}

// Boolean is a boolean literal.
type Boolean struct {
	Bool bool `json:"bool" yaml:"bool"`
}

// Object is a dynamically typed value supplied by the host, such as
// processor output.
type Object struct {
	Native any `json:"native" yaml:"native"`
}

// Field is a named field of a record value.
type Field struct {
	Name  string        `json:"name"  yaml:"name"`
	Value PropertyValue `json:"value" yaml:"value"`
}

// RecordValue is a value of a record kind. Fields are in declaration order.
type RecordValue struct {
	Name   string  `json:"name"   yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// OrTypeValue is a value of an or-type: the selected variant and its
// payload. A constant variant's payload is its constant value.
type OrTypeValue struct {
	Name    string        `json:"name"    yaml:"name"`
	Variant string        `json:"variant" yaml:"variant"`
	Value   PropertyValue `json:"value"   yaml:"value"`
}

// List is a value of a list kind.
type List struct {
	Item  Kind            `json:"item"  yaml:"item"`
	Items []PropertyValue `json:"items" yaml:"items"`
}

// Optional is a value of an optional kind. A nil Value is the empty value.
type Optional struct {
	Inner Kind  `json:"inner"           yaml:"inner"`
	Value Value `json:"value,omitempty" yaml:"value,omitempty"`
}

// UI is a component-typed value: a component invocation to instantiate
// where the value is used.
type UI struct {
	Component *Component `json:"component" yaml:"component"`
}

// TemplatePart is a literal run of text or a reference interpolated into a
// [Template].
type TemplatePart struct {
	Text string         `json:"text,omitempty" yaml:"text,omitempty"`
	Ref  *PropertyValue `json:"ref,omitempty"  yaml:"ref,omitempty"`
}

// Template is a string value interpolating references, such as
// "Hello, $name".
type Template struct {
	Parts []TemplatePart `json:"parts" yaml:"parts"`
}

func (String) Kind() Kind   { return StringKind }
func (Integer) Kind() Kind  { return IntegerKind }
func (Decimal) Kind() Kind  { return DecimalKind }
func (Boolean) Kind() Kind  { return BooleanKind }
func (Object) Kind() Kind   { return ObjectKind }
func (UI) Kind() Kind       { return UIKind }
func (Template) Kind() Kind { return StringKind }

func (v RecordValue) Kind() Kind { return RecordKind(v.Name) }
func (v OrTypeValue) Kind() Kind { return OrTypeKind(v.Name) }
func (v List) Kind() Kind        { return ListKind(v.Item) }
func (v Optional) Kind() Kind    { return OptionalKind(v.Inner) }

func (String) isValue()      {}
func (Integer) isValue()     {}
func (Decimal) isValue()     {}
func (Boolean) isValue()     {}
func (Object) isValue()      {}
func (RecordValue) isValue() {}
func (OrTypeValue) isValue() {}
func (List) isValue()        {}
func (Optional) isValue()    {}
func (UI) isValue()          {}
func (Template) isValue()    {}

// Field returns the field called name.
func (v RecordValue) Field(name string) (PropertyValue, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return PropertyValue{}, false
}

// With returns a copy of v with field name set to pv.
func (v RecordValue) With(name string, pv PropertyValue) RecordValue {
	fields := make([]Field, len(v.Fields))
	copy(fields, v.Fields)

	for i := range fields {
		if fields[i].Name == name {
			fields[i].Value = pv

			return RecordValue{Name: v.Name, Fields: fields}
		}
	}

	return RecordValue{Name: v.Name, Fields: append(fields, Field{name, pv})}
}

// IsNone reports whether v is absent or the empty optional value.
func IsNone(v Value) bool {
	if v == nil {
		return true
	}

	o, ok := v.(Optional)

	return ok && o.Value == nil
}

// Unwrap removes optional wrappers from v. It returns nil for the empty
// optional value.
func Unwrap(v Value) Value {
	for {
		o, ok := v.(Optional)
		if !ok {
			return v
		}

		v = o.Value
	}
}

// IsTruthy reports whether v counts as true in a condition: a true boolean,
// a non-empty string or list, a non-zero number, or any present record,
// or-type, object, or ui value.
func IsTruthy(v Value) bool {
	switch v := Unwrap(v).(type) {
	case nil:
		return false
	case Boolean:
		return v.Bool
	case String:
		return v.Text != ""
	case Integer:
		return v.Int != 0
	case Decimal:
		return v.Float != 0
	case List:
		return len(v.Items) > 0
	}

	return true
}

// Text renders a scalar value as it would appear in a document. Composite
// values render as their kind.
func Text(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case String:
		return v.Text
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Decimal:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Optional:
		return Text(v.Value)
	case OrTypeValue:
		if v.Value.Case == CaseValue {
			return Text(v.Value.Value)
		}

		return v.Variant
	case Template:
		var b strings.Builder

		for _, p := range v.Parts {
			if p.Ref != nil {
				b.WriteString("$" + p.Ref.Name)
			} else {
				b.WriteString(p.Text)
			}
		}

		return b.String()
	}

	return v.Kind().String()
}
