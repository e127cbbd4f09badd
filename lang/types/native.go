package types

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Native converts a property value to plain Go values for marshaling.
//
// Records become [yaml.MapSlice] in field order, or-type values a single
// entry keyed by the variant, lists []any, and the empty optional nil.
// References render as "$name" and clones as "*$name".
func Native(pv PropertyValue) any {
	switch pv.Case {
	case CaseReference:
		return "$" + pv.Name
	case CaseClone:
		return "*$" + pv.Name
	}

	return NativeValue(pv.Value)
}

// NativeValue converts a value to plain Go values. See [Native].
func NativeValue(v Value) any {
	switch v := v.(type) {
	case nil:
		return nil
	case String:
		return v.Text
	case Integer:
		return v.Int
	case Decimal:
		return v.Float
	case Boolean:
		return v.Bool
	case Object:
		return v.Native
	case Template:
		return Text(v)
	case Optional:
		return NativeValue(v.Value)

	case RecordValue:
		out := make(yaml.MapSlice, 0, len(v.Fields))
		for _, f := range v.Fields {
			out = append(out, yaml.MapItem{Key: f.Name, Value: Native(f.Value)})
		}

		return out

	case OrTypeValue:
		return yaml.MapSlice{{Key: v.Variant, Value: Native(v.Value)}}

	case List:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = Native(item)
		}

		return out

	case UI:
		if v.Component == nil {
			return nil
		}

		return yaml.MapSlice{{Key: "ui", Value: v.Component.Name}}
	}

	return nil
}

// Describe summarizes a thing as plain Go values for listings.
func Describe(t Thing) any {
	out := yaml.MapSlice{{Key: "form", Value: t.Form()}}

	switch t := t.(type) {
	case *Variable:
		out = append(out,
			yaml.MapItem{Key: "kind", Value: t.Kind.String()},
			yaml.MapItem{Key: "mutable", Value: t.Mutable},
			yaml.MapItem{Key: "value", Value: Native(t.Value)},
		)

		if len(t.Conditional) > 0 {
			conds := make([]any, len(t.Conditional))
			for i, c := range t.Conditional {
				conds[i] = yaml.MapSlice{
					{Key: "if", Value: c.Condition.Source},
					{Key: "value", Value: Native(c.Value)},
				}
			}

			out = append(out, yaml.MapItem{Key: "conditional", Value: conds})
		}

	case *Function:
		exprs := make([]string, len(t.Expressions))
		for i, e := range t.Expressions {
			exprs[i] = e.Expression
		}

		out = append(out,
			yaml.MapItem{Key: "return", Value: t.ReturnKind.String()},
			yaml.MapItem{Key: "arguments", Value: describeArguments(t.Arguments)},
			yaml.MapItem{Key: "expressions", Value: exprs},
		)

	case *Record:
		out = append(out,
			yaml.MapItem{Key: "fields", Value: describeArguments(t.Fields)})

	case *OrType:
		variants := make(yaml.MapSlice, len(t.Variants))
		for i, v := range t.Variants {
			d := yaml.MapSlice{{Key: "kind", Value: v.Kind.String()}}
			if v.Constant {
				d = append(d, yaml.MapItem{Key: "constant", Value: true})
			}

			if v.Value != nil {
				d = append(d, yaml.MapItem{Key: "value", Value: Native(*v.Value)})
			}

			variants[i] = yaml.MapItem{Key: v.Name, Value: d}
		}

		out = append(out, yaml.MapItem{Key: "variants", Value: variants})

	case *ComponentDefinition:
		out = append(out,
			yaml.MapItem{Key: "arguments", Value: describeArguments(t.Arguments)})

		if t.Definition != nil {
			out = append(out,
				yaml.MapItem{Key: "definition", Value: t.Definition.Name})
		}

	case *WebComponentDefinition:
		out = append(out,
			yaml.MapItem{Key: "arguments", Value: describeArguments(t.Arguments)},
			yaml.MapItem{Key: "js", Value: t.JS},
		)
	}

	return out
}

func describeArguments(args []Argument) yaml.MapSlice {
	out := make(yaml.MapSlice, len(args))

	for i, a := range args {
		kind := a.Kind.String()
		if a.Mutable {
			kind = "$" + kind
		}

		if a.Default == nil {
			out[i] = yaml.MapItem{Key: a.Name, Value: kind}

			continue
		}

		out[i] = yaml.MapItem{Key: a.Name, Value: yaml.MapSlice{
			{Key: "kind", Value: kind},
			{Key: "default", Value: Native(*a.Default)},
		}}
	}

	return out
}

// InferKind returns the kind a host-supplied Go value naturally has.
// Maps and heterogeneous lists are objects.
func InferKind(v any) Kind {
	switch x := v.(type) {
	case string:
		return StringKind
	case bool:
		return BooleanKind
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return IntegerKind
	case float32, float64:
		return DecimalKind
	case []any:
		if len(x) == 0 {
			return ListKind(ObjectKind)
		}

		item := InferKind(x[0])
		for _, e := range x[1:] {
			if !InferKind(e).Equal(item) {
				return ObjectKind
			}
		}

		return ListKind(item)
	}

	return ObjectKind
}

// FromNative converts a host-supplied Go value to a value of kind k.
//
// Records take a map keyed by field name; missing fields use their default
// or become empty when optional. Or-types take the variant text, as in a
// document.
func FromNative(b *Bag, k Kind, v any) (Value, error) {
	switch k.Tag {
	case TagOptional:
		if v == nil {
			return Optional{Inner: k.Elem()}, nil
		}

		inner, err := FromNative(b, k.Elem(), v)
		if err != nil {
			return nil, err
		}

		return Optional{Inner: k.Elem(), Value: inner}, nil

	case TagObject:
		return Object{Native: v}, nil

	case TagString:
		switch x := v.(type) {
		case string:
			return String{Text: x}, nil
		case fmt.Stringer:
			return String{Text: x.String()}, nil
		case nil:
		default:
			return String{Text: fmt.Sprint(x)}, nil
		}

	case TagInteger:
		if i, ok := toInt(v); ok {
			return Integer{Int: i}, nil
		}

		if s, ok := v.(string); ok {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return Integer{Int: i}, nil
			}
		}

	case TagDecimal:
		if f, ok := toFloat(v); ok {
			return Decimal{Float: f}, nil
		}

		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return Decimal{Float: f}, nil
			}
		}

	case TagBoolean:
		switch x := v.(type) {
		case bool:
			return Boolean{Bool: x}, nil
		case string:
			if bv, err := strconv.ParseBool(x); err == nil {
				return Boolean{Bool: bv}, nil
			}
		}

	case TagList:
		items, ok := toSlice(v)
		if !ok {
			break
		}

		list := List{Item: k.Elem(), Items: make([]PropertyValue, 0, len(items))}

		for _, item := range items {
			iv, err := FromNative(b, k.Elem(), item)
			if err != nil {
				return nil, err
			}

			list.Items = append(list.Items, NewValue(iv, 0))
		}

		return list, nil

	case TagRecord:
		return recordFromNative(b, k, v)

	case TagOrType:
		return orTypeFromNative(b, k, v)
	}

	return nil, lang.Errorf(lang.InvalidKind, "cannot use %q as %q",
		fmt.Sprintf("%v", v), k.String())
}

func recordFromNative(b *Bag, k Kind, v any) (Value, error) {
	r, ok := b.Record(k.Name)
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound, "record %q", k.Name)
	}

	m, ok := toMap(v)
	if !ok {
		// a scalar fills the caption field
		if c, ok := CaptionArgument(r.Fields); ok {
			m = map[string]any{c.Name: v}
		} else {
			return nil, lang.Errorf(lang.InvalidKind,
				"cannot use a scalar as record %q", k.Name)
		}
	}

	rv := RecordValue{Name: r.Name}

	for _, f := range r.Fields {
		raw, ok := m[f.Name]

		var pv PropertyValue

		switch {
		case ok:
			fv, err := FromNative(b, f.Kind.Kind, raw)
			if err != nil {
				return nil, lang.WrapError(err).With(log.Name(f.Name))
			}

			pv = NewValue(fv, 0)

		case f.Default != nil && f.Default.IsValue():
			pv = *f.Default

		case f.Default != nil && f.Default.Source.Tag == SourceLocal:
			// "$field" defaults copy a sibling once it is known
			sib, ok := rv.Field(f.Default.Name)
			if !ok {
				return nil, lang.Errorf(lang.ValueNotFound,
					"field %q default refers to unknown field %q",
					f.Name, f.Default.Name)
			}

			pv = sib

		case f.Kind.Kind.IsOptional():
			pv = NewValue(Optional{Inner: f.Kind.Kind.Elem()}, 0)

		case f.Kind.Kind.IsList():
			pv = NewValue(List{Item: f.Kind.Kind.Elem()}, 0)

		default:
			return nil, lang.Errorf(lang.ValueNotFound,
				"record %q is missing field %q", k.Name, f.Name)
		}

		rv.Fields = append(rv.Fields, Field{Name: f.Name, Value: pv})
	}

	return rv, nil
}

func orTypeFromNative(b *Bag, k Kind, v any) (Value, error) {
	o, ok := b.OrType(k.Name)
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound, "or-type %q", k.Name)
	}

	if m, ok := toMap(v); ok && len(m) == 1 {
		for name, payload := range m {
			variant, ok := o.Variant(name)
			if !ok {
				return nil, lang.Errorf(lang.InvalidKind,
					"%q is not a variant of %q", name, k.Name)
			}

			if variant.Constant {
				return MakeOrTypeValue(b, o, variant, "")
			}

			pv, err := FromNative(b, variant.Kind.Kind, payload)
			if err != nil {
				return nil, err
			}

			return OrTypeValue{
				Name:    o.Name,
				Variant: variant.Name,
				Value:   NewValue(pv, 0),
			}, nil
		}
	}

	text := fmt.Sprint(v)

	variant, payload, ok := o.Match(text)
	if !ok {
		return nil, lang.Errorf(lang.InvalidKind,
			"%q is not a variant of %q", text, k.Name)
	}

	return MakeOrTypeValue(b, o, variant, payload)
}

// MakeOrTypeValue builds the value of variant with the given payload text.
// Constant variants ignore the payload.
func MakeOrTypeValue(b *Bag, o *OrType, variant *OrTypeVariant, payload string) (OrTypeValue, error) {
	ov := OrTypeValue{Name: o.Name, Variant: variant.Name}

	switch {
	case variant.Constant:
		ov.Value = *variant.Value

	case payload != "":
		pv, err := FromNative(b, variant.Kind.Kind, payload)
		if err != nil {
			return ov, err
		}

		ov.Value = NewValue(pv, 0)

	case variant.Value != nil:
		ov.Value = *variant.Value

	default:
		return ov, lang.Errorf(lang.ValueNotFound,
			"variant %q of %q needs a value", variant.Name, o.Name)
	}

	return ov, nil
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}

		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f), true
		}
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}

	return 0, false
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

// toMap accepts the map shapes produced by YAML and JSON decoders.
func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true

	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[fmt.Sprint(k)] = e
		}

		return out, true

	case yaml.MapSlice:
		out := make(map[string]any, len(m))
		for _, item := range m {
			out[fmt.Sprint(item.Key)] = item.Value
		}

		return out, true
	}

	return nil, false
}
