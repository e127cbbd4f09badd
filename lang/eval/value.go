package eval

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/ardnew/ftd/lang"
)

// ValueKind identifies the variant of a [Value].
type ValueKind int

const (
	KindEmpty   ValueKind = iota // empty
	KindString                   // string
	KindBoolean                  // boolean
	KindInteger                  // integer
	KindDecimal                  // decimal
	KindTuple                    // tuple
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindTuple:
		return "tuple"
	default:
		return "empty"
	}
}

// Value is an operand or result of an expression.
type Value struct {
	Kind  ValueKind `json:"kind"            yaml:"kind"`
	Str   string    `json:"str,omitempty"   yaml:"str,omitempty"`
	Bool  bool      `json:"bool,omitempty"  yaml:"bool,omitempty"`
	Int   int64     `json:"int,omitempty"   yaml:"int,omitempty"`
	Float float64   `json:"float,omitempty" yaml:"float,omitempty"`
	Items []Value   `json:"items,omitempty" yaml:"items,omitempty"`
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Decimal returns a decimal value.
func Decimal(f float64) Value { return Value{Kind: KindDecimal, Float: f} }

// Tuple returns a tuple of values.
func Tuple(items ...Value) Value { return Value{Kind: KindTuple, Items: items} }

// IsEmpty reports whether v is the empty value.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindString:
		return v.Str != ""
	case KindInteger:
		return v.Int != 0
	case KindDecimal:
		return v.Float != 0
	case KindTuple:
		return len(v.Items) > 0
	}

	return false
}

// Native returns v as the Go value expressions operate on.
func (v Value) Native() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBoolean:
		return v.Bool
	case KindInteger:
		return int(v.Int)
	case KindDecimal:
		return v.Float
	case KindTuple:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Native()
		}

		return out
	}

	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindTuple:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}

		return "(" + strings.Join(parts, ", ") + ")"
	}

	return "empty"
}

// FromNative converts an expression result to a [Value].
func FromNative(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Empty(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case float32:
		return Decimal(float64(x)), nil
	case float64:
		return Decimal(x), nil
	case []any:
		items := make([]Value, len(x))

		for i, e := range x {
			v, err := FromNative(e)
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return Tuple(items...), nil
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() <= math.MaxInt64 {
			return Integer(int64(rv.Uint())), nil
		}

	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())

		for i := range items {
			v, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return Tuple(items...), nil
	}

	return Value{}, lang.Errorf(lang.EvalError,
		"unsupported expression result %q", fmt.Sprintf("%T", x))
}
