package exec

import (
	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/types"
)

// EvalValue converts a resolved value to an expression operand. Or-type
// values become their text; records cannot be operands.
func EvalValue(v types.Value) (eval.Value, error) {
	switch v := types.Unwrap(v).(type) {
	case nil:
		return eval.Empty(), nil
	case types.String:
		return eval.String(v.Text), nil
	case types.Template:
		return eval.String(types.Text(v)), nil
	case types.Integer:
		return eval.Integer(v.Int), nil
	case types.Decimal:
		return eval.Decimal(v.Float), nil
	case types.Boolean:
		return eval.Boolean(v.Bool), nil
	case types.OrTypeValue:
		return eval.String(types.Text(v)), nil
	case types.Object:
		return eval.FromNative(v.Native)

	case types.List:
		items := make([]eval.Value, 0, len(v.Items))

		for _, item := range v.Items {
			ev, err := EvalValue(item.Value)
			if err != nil {
				return eval.Value{}, err
			}

			items = append(items, ev)
		}

		return eval.Tuple(items...), nil
	}

	return eval.Value{}, lang.Errorf(lang.EvalError,
		"cannot use %q value in an expression", v.Kind().String())
}

// FromEval converts an expression result to a value of kind k.
func FromEval(b *types.Bag, k types.Kind, v eval.Value) (types.Value, error) {
	return types.FromNative(b, k, v.Native())
}

// Assignable converts an expression result written back to a variable of
// kind k. Unlike [FromEval] it never coerces: an integer result cannot
// become a decimal and a number cannot become a string.
func Assignable(b *types.Bag, k types.Kind, v eval.Value) (types.Value, error) {
	if !assignable(k, v) {
		return nil, lang.Errorf(lang.InvalidKind,
			"cannot assign a %q result to %q", v.Kind.String(), k.String())
	}

	return FromEval(b, k, v)
}

func assignable(k types.Kind, v eval.Value) bool {
	if k.IsOptional() {
		return v.IsEmpty() || assignable(k.Elem(), v)
	}

	switch k.Tag {
	case types.TagObject:
		return true
	case types.TagString, types.TagOrType:
		return v.Kind == eval.KindString
	case types.TagInteger:
		return v.Kind == eval.KindInteger
	case types.TagDecimal:
		return v.Kind == eval.KindDecimal
	case types.TagBoolean:
		return v.Kind == eval.KindBoolean
	case types.TagList:
		if v.Kind != eval.KindTuple {
			return false
		}

		for _, item := range v.Items {
			if !assignable(k.Elem(), item) {
				return false
			}
		}

		return true
	}

	return !v.IsEmpty()
}
