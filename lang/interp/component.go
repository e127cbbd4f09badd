package interp

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// component interprets an invocation in scope sc.
func (x *Interpreter) component(
	ctx context.Context,
	fr *frame,
	inv *ast.ComponentInvocation,
	sc *scope,
) (*types.Component, error) {
	name := fr.qualify(inv.Name)

	params, err := x.parameters(fr, name)
	if err != nil {
		return nil, lang.WrapError(err).WithLine(inv.LineNum)
	}

	c := &types.Component{Name: name, Line: inv.LineNum}
	inner := sc

	if l := inv.Loop; l != nil {
		on := strings.TrimSpace(l.On)
		if !strings.HasPrefix(on, "$") {
			return nil, lang.Errorf(lang.ForbiddenUsage,
				"a loop runs over a reference, found %q", on).WithLine(l.LineNum)
		}

		pv, err := x.reference(fr, on[1:], sc, l.LineNum)
		if err != nil {
			return nil, lang.WrapError(err).WithLine(l.LineNum)
		}

		if !pv.Kind.Required().IsList() {
			return nil, lang.Errorf(lang.InvalidKind, "%q is a %q, not a list",
				on, pv.Kind.String()).WithLine(l.LineNum)
		}

		c.Loop = &types.LoopClause{On: pv, Alias: l.Alias, Index: l.Index, Line: l.LineNum}
		inner = sc.withLoop(l.Alias, pv.Kind.Required().Elem(), l.Index)
	}

	if cond := inv.Condition; cond != nil {
		e, err := x.expression(ctx, fr, cond.Expression, inner, cond.LineNum)
		if err != nil {
			return nil, lang.WrapError(err).WithLine(cond.LineNum)
		}

		c.Condition = e

		if x.staticExpression(e) {
			holds, err := x.exec().Holds(ctx, e)
			if err != nil {
				return nil, lang.WrapError(err).WithLine(cond.LineNum)
			}

			if holds {
				c.Condition = nil
			}
		}
	}

	for _, p := range inv.Properties {
		prop, keep, err := x.property(ctx, fr, name, params, p, inner)
		if err != nil {
			return nil, lang.WrapError(err).WithLine(p.LineNum)
		}

		if keep {
			c.Properties = append(c.Properties, prop)
		}
	}

	for _, a := range params {
		if a.IsRequired() && !slices.ContainsFunc(c.Properties, func(p types.Property) bool {
			return p.Target == a.Name && p.Condition == nil
		}) {
			return nil, lang.Errorf(lang.ValueNotFound, "%q requires argument %q",
				fr.written(name), a.Name).WithLine(inv.LineNum)
		}
	}

	for _, ev := range inv.Events {
		event := types.Event{Name: ev.Name, Line: ev.LineNum}

		for _, text := range ev.Actions {
			call, err := x.action(ctx, fr, text, inner, ev.LineNum)
			if err != nil {
				return nil, lang.WrapError(err).WithLine(ev.LineNum)
			}

			event.Actions = append(event.Actions, call)
		}

		c.Events = append(c.Events, event)
	}

	for _, ch := range inv.Children {
		child, err := x.component(ctx, fr, ch, inner)
		if err != nil {
			return nil, err
		}

		c.Children = append(c.Children, child)
	}

	x.logger.TraceContext(ctx, "component",
		log.Name(name),
		log.Line(inv.LineNum),
		slog.Int("properties", len(c.Properties)),
		slog.Int("children", len(c.Children)))

	return c, nil
}

// parameters returns the arguments of the component called name.
func (x *Interpreter) parameters(fr *frame, name string) ([]types.Argument, error) {
	switch {
	case name == types.KernelName:
		return nil, nil

	case x.defining != nil && x.defining.Name == name:
		return x.defining.Arguments, nil
	}

	if def, ok := x.bag.Component(name); ok {
		return def.Arguments, nil
	}

	if wc, ok := x.bag.WebComponent(name); ok {
		return wc.Arguments, nil
	}

	if t, ok := x.bag.Get(name); ok {
		return nil, lang.Errorf(lang.ForbiddenUsage, "%q is a %q, not a component",
			fr.written(name), t.Form())
	}

	return nil, x.notFound(fr, name)
}

// property binds one written property to an argument of component. It
// reports false when a condition that can never hold drops the property.
func (x *Interpreter) property(
	ctx context.Context,
	fr *frame,
	component string,
	params []types.Argument,
	p *ast.Property,
	sc *scope,
) (types.Property, bool, error) {
	var (
		arg     *types.Argument
		ok      bool
		variant string
		source  types.PropertySource
	)

	switch p.Source {
	case ast.SourceCaption:
		arg, ok = types.CaptionArgument(params)
		source = types.FromCaption

	case ast.SourceBody:
		arg, ok = types.BodyArgument(params)
		source = types.FromBody

	default:
		var key string

		key, variant, _ = strings.Cut(p.Key, ".")
		i := slices.IndexFunc(params, func(a types.Argument) bool { return a.Name == key })
		ok = i >= 0

		if ok {
			arg = &params[i]
		}

		source = types.FromHeader
	}

	if !ok {
		what := p.Key
		if p.Source != ast.SourceHeader {
			what = p.Source.String()
		}

		return types.Property{}, false, lang.Errorf(lang.ForbiddenUsage,
			"%q has no argument %q", fr.written(component), what)
	}

	v := p.Value

	if variant != "" {
		if !arg.Kind.Kind.Required().IsOrType() {
			return types.Property{}, false, lang.Errorf(lang.ForbiddenUsage,
				"argument %q is not an or-type and has no variant %q", arg.Name, variant)
		}

		v = variantValue(variant, v, p.LineNum)
	}

	pv, err := x.value(ctx, fr, v, arg.Kind.Kind, sc)
	if err != nil {
		return types.Property{}, false, err
	}

	if p.Mutable {
		switch {
		case !arg.Mutable:
			return types.Property{}, false, lang.Errorf(lang.ForbiddenUsage,
				"argument %q of %q is not mutable", arg.Name, fr.written(component))
		case !pv.IsReference() || !pv.Mutable:
			return types.Property{}, false, lang.Errorf(lang.ForbiddenUsage,
				"mutable argument %q must be bound to a mutable reference", arg.Name)
		}
	} else if pv, err = x.fold(ctx, pv); err != nil {
		return types.Property{}, false, err
	}

	prop := types.Property{Target: arg.Name, Source: source, Value: pv, Line: p.LineNum}

	if p.Condition == "" {
		return prop, true, nil
	}

	e, err := x.expression(ctx, fr, p.Condition, sc, p.LineNum)
	if err != nil {
		return types.Property{}, false, err
	}

	if !x.staticExpression(e) {
		prop.Condition = e

		return prop, true, nil
	}

	holds, err := x.exec().Holds(ctx, e)

	return prop, holds, err
}

var namedArgRegexp = regexp.MustCompile(`^\$?([A-Za-z_][A-Za-z0-9_-]*)\s*=`)

// action interprets an event action "$fn($a=$x, b=1)". Arguments may be
// named or positional.
func (x *Interpreter) action(
	ctx context.Context,
	fr *frame,
	text string,
	sc *scope,
	line int,
) (types.FunctionCall, error) {
	text = strings.TrimSpace(text)

	head, params, hasParams := strings.Cut(text, "(")
	if hasParams {
		var ok bool

		params, ok = strings.CutSuffix(strings.TrimSpace(params), ")")
		if !ok {
			return types.FunctionCall{}, lang.Errorf(lang.ParseError,
				"action %q is missing ')'", text)
		}
	}

	q := fr.qualify(strings.TrimPrefix(strings.TrimSpace(head), "$"))

	f, ok := x.bag.Function(q)
	if !ok {
		return types.FunctionCall{}, x.notFound(fr, q)
	}

	call := types.FunctionCall{Name: q, Line: line}

	for i, raw := range splitArguments(params) {
		var (
			fa   *types.Argument
			expr = raw
		)

		if m := namedArgRegexp.FindStringSubmatch(raw); m != nil {
			fa, ok = f.Argument(m[1])
			if !ok {
				return types.FunctionCall{}, lang.Errorf(lang.ForbiddenUsage,
					"function %q has no argument %q", fr.written(q), m[1])
			}

			expr = strings.TrimSpace(raw[len(m[0]):])
		} else {
			if i >= len(f.Arguments) {
				return types.FunctionCall{}, lang.Errorf(lang.ForbiddenUsage,
					"too many arguments to function %q", fr.written(q))
			}

			fa = &f.Arguments[i]
		}

		if slices.ContainsFunc(call.Arguments, func(a types.Field) bool { return a.Name == fa.Name }) {
			return types.FunctionCall{}, lang.Errorf(lang.ForbiddenUsage,
				"argument %q is passed twice", fa.Name)
		}

		pv, err := x.value(ctx, fr, ast.StringValue(expr, ast.SourceHeader, line), fa.Kind.Kind, sc)
		if err != nil {
			return types.FunctionCall{}, err
		}

		if fa.Mutable && (!pv.IsReference() || !pv.Mutable) {
			return types.FunctionCall{}, lang.Errorf(lang.ForbiddenUsage,
				"mutable argument %q of %q must be bound to a mutable reference",
				fa.Name, fr.written(q))
		}

		call.Arguments = append(call.Arguments, types.Field{Name: fa.Name, Value: pv})
	}

	for _, fa := range f.Arguments {
		if fa.IsRequired() && !slices.ContainsFunc(call.Arguments, func(a types.Field) bool {
			return a.Name == fa.Name
		}) {
			return types.FunctionCall{}, lang.Errorf(lang.ValueNotFound,
				"function %q requires argument %q", fr.written(q), fa.Name)
		}
	}

	return call, nil
}

// splitArguments splits an argument list at commas outside quotes and
// parentheses.
func splitArguments(s string) []string {
	var (
		out   []string
		depth int
		quote rune
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			if a := strings.TrimSpace(s[start:i]); a != "" {
				out = append(out, a)
			}

			start = i + 1
		}
	}

	if a := strings.TrimSpace(s[start:]); a != "" {
		out = append(out, a)
	}

	return out
}
