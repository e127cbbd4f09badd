package eval

// This file defines the functions every expression can call. The table is
// built once per process and cloned for each [Evaluator], so functions a host
// registers never leak into other evaluators.

import (
	"maps"
	"sync"

	"github.com/ardnew/ftd/lang"
)

// namespace is the name under which functions are also reachable as members,
// e.g. "ftd.is_empty(x)".
const namespace = "ftd"

// Keys of the values map written by the display mode functions.
const (
	DarkModeKey         = "ftd#dark-mode"
	SystemDarkModeKey   = "ftd#system-dark-mode"
	FollowSystemModeKey = "ftd#follow-system-dark-mode"
)

// Function is a function callable from expressions. values is the map the
// running program reads its operands from; a function may write to it.
type Function func(values map[string]Value, args ...Value) (Value, error)

//nolint:gochecknoglobals
var (
	builtinOnce  sync.Once
	builtinCache map[string]Function
)

// makeBuiltins returns a clone of the process-scoped function table.
func makeBuiltins() map[string]Function {
	builtinOnce.Do(func() {
		builtinCache = map[string]Function{
			"is_empty":           isEmpty,
			"append":             appendItem,
			"enable_dark_mode":   enableDarkMode,
			"enable_light_mode":  enableLightMode,
			"enable_system_mode": enableSystemMode,
		}
	})

	return maps.Clone(builtinCache)
}

func isEmpty(_ map[string]Value, args ...Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, arity("is_empty", 1)
	}

	switch v := args[0]; v.Kind {
	case KindEmpty:
		return Boolean(true), nil
	case KindString:
		return Boolean(v.Str == ""), nil
	case KindTuple:
		return Boolean(len(v.Items) == 0), nil
	default:
		return Value{}, lang.Errorf(lang.EvalError,
			"is_empty: cannot test %q value", v.Kind.String())
	}
}

func appendItem(_ map[string]Value, args ...Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, arity("append", 2)
	}

	list := args[0]

	switch list.Kind {
	case KindEmpty:
		return Tuple(args[1]), nil
	case KindTuple:
		items := make([]Value, 0, len(list.Items)+1)
		items = append(items, list.Items...)

		return Tuple(append(items, args[1])...), nil
	default:
		return Value{}, lang.Errorf(lang.EvalError,
			"append: cannot append to %q value", list.Kind.String())
	}
}

func enableDarkMode(values map[string]Value, _ ...Value) (Value, error) {
	values[DarkModeKey] = Boolean(true)
	values[FollowSystemModeKey] = Boolean(false)

	return Empty(), nil
}

func enableLightMode(values map[string]Value, _ ...Value) (Value, error) {
	values[DarkModeKey] = Boolean(false)
	values[FollowSystemModeKey] = Boolean(false)

	return Empty(), nil
}

func enableSystemMode(values map[string]Value, _ ...Value) (Value, error) {
	values[DarkModeKey] = Boolean(values[SystemDarkModeKey].Truthy())
	values[FollowSystemModeKey] = Boolean(true)

	return Empty(), nil
}

func arity(name string, n int) *lang.Error {
	msg := "%q takes one argument"
	if n == 2 {
		msg = "%q takes two arguments"
	}

	return lang.Errorf(lang.EvalError, msg, name)
}
