package exec

import (
	"context"
	"maps"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// binding is a property value together with the scope its local and loop
// references resolve in.
type binding struct {
	pv    types.PropertyValue
	scope *scope
}

// scope holds the arguments of the component definition being executed and
// the loop binders in effect.
type scope struct {
	container string
	args      map[string]binding
	loop      map[string]binding
}

// withLoop returns a child scope binding alias (and index, if named).
func (s *scope) withLoop(alias string, item binding, index string, i int) *scope {
	c := &scope{loop: map[string]binding{}}

	if s != nil {
		c.container = s.container
		c.args = s.args
		maps.Copy(c.loop, s.loop)
	}

	c.loop[alias] = item

	if index != "" {
		c.loop[index] = binding{pv: types.NewValue(types.Integer{Int: int64(i)}, 0)}
	}

	return c
}

// lookup returns the binding a local or loop reference names and the field
// path that follows it.
func (s *scope) lookup(pv types.PropertyValue) (binding, []string, error) {
	head, rest, _ := strings.Cut(pv.Name, ".")

	var path []string
	if rest != "" {
		path = strings.Split(rest, ".")
	}

	if s != nil {
		table := s.args
		if pv.Source.Tag == types.SourceLoop {
			table = s.loop
		}

		if b, ok := table[head]; ok {
			return b, path, nil
		}
	}

	return binding{}, nil, lang.Errorf(lang.ValueNotFound,
		"%q is not bound here", head).With(log.Kind(pv.Source.String()))
}

// close rewrites pv so it no longer depends on sc: local and loop references
// become references into the bag or literal values, and literals are
// resolved fully.
func (x *Executor) close(ctx context.Context, pv types.PropertyValue, sc *scope) (types.PropertyValue, error) {
	switch {
	case pv.IsValue():
		v, err := x.literal(ctx, pv.Value, sc)
		if err != nil {
			return types.PropertyValue{}, err
		}

		return literalValue(v, pv.Line).WithMutable(pv.Mutable), nil

	case pv.Source.Tag == types.SourceGlobal:
		return pv, nil
	}

	b, path, err := sc.lookup(pv)
	if err != nil {
		return types.PropertyValue{}, lang.WrapError(err).WithLine(pv.Line)
	}

	inner, err := x.close(ctx, b.pv, b.scope)
	if err != nil {
		return types.PropertyValue{}, err
	}

	if len(path) == 0 {
		if inner.IsReference() {
			inner.Case = pv.Case
		}

		return inner, nil
	}

	if inner.IsReference() {
		return types.PropertyValue{
			Case:    pv.Case,
			Name:    inner.Name + "." + strings.Join(path, "."),
			Kind:    pv.Kind,
			Mutable: inner.Mutable,
			Source:  types.Global(),
			Line:    pv.Line,
		}, nil
	}

	field, ok := types.FieldOf(inner.Value, path)
	if !ok {
		return types.PropertyValue{}, lang.Errorf(lang.ValueNotFound,
			"%q has no field %q", strings.SplitN(pv.Name, ".", 2)[0],
			strings.Join(path, ".")).WithLine(pv.Line)
	}

	return x.close(ctx, field, nil)
}

// literalValue wraps a resolved value, which is nil for an absent one.
func literalValue(v types.Value, line int) types.PropertyValue {
	if v == nil {
		return types.PropertyValue{Case: types.CaseValue, Line: line}
	}

	return types.NewValue(v, line)
}

// value resolves pv in sc to a literal value.
func (x *Executor) value(ctx context.Context, pv types.PropertyValue, sc *scope) (types.Value, error) {
	if pv.IsValue() {
		return x.literal(ctx, pv.Value, sc)
	}

	if pv.Source.Tag != types.SourceGlobal {
		c, err := x.close(ctx, pv, sc)
		if err != nil {
			return nil, err
		}

		return x.value(ctx, c, nil)
	}

	return x.global(ctx, pv)
}

// global reads a reference into the bag, applying the conditional overrides
// of the variable that currently hold.
func (x *Executor) global(ctx context.Context, pv types.PropertyValue) (types.Value, error) {
	t, path, ok := x.bag.Resolve(pv.Name)
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound, "%q", pv.Name).WithLine(pv.Line)
	}

	v, ok := t.(*types.Variable)
	if !ok {
		return nil, lang.Errorf(lang.ForbiddenUsage,
			"%q is a %q, not a variable", t.Key(), t.Form()).WithLine(pv.Line)
	}

	cur, err := v.Current(func(e *types.Expression) (bool, error) {
		return x.holds(ctx, e, nil)
	})
	if err != nil {
		return nil, err
	}

	val, err := x.value(ctx, cur, nil)
	if err != nil || len(path) == 0 {
		return val, err
	}

	field, ok := types.FieldOf(val, path)
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound,
			"%q has no field %q", v.Name, strings.Join(path, ".")).WithLine(pv.Line)
	}

	return x.value(ctx, field, nil)
}

// literal resolves the references nested inside a literal value.
func (x *Executor) literal(ctx context.Context, v types.Value, sc *scope) (types.Value, error) {
	switch v := v.(type) {
	case types.Template:
		var b strings.Builder

		for _, p := range v.Parts {
			if p.Ref == nil {
				b.WriteString(p.Text)

				continue
			}

			rv, err := x.value(ctx, *p.Ref, sc)
			if err != nil {
				return nil, err
			}

			b.WriteString(types.Text(rv))
		}

		return types.String{Text: b.String()}, nil

	case types.RecordValue:
		out := types.RecordValue{Name: v.Name, Fields: make([]types.Field, len(v.Fields))}

		for i, f := range v.Fields {
			fv, err := x.value(ctx, f.Value, sc)
			if err != nil {
				return nil, err
			}

			out.Fields[i] = types.Field{Name: f.Name, Value: literalValue(fv, f.Value.Line)}
		}

		return out, nil

	case types.List:
		out := types.List{Item: v.Item, Items: make([]types.PropertyValue, len(v.Items))}

		for i, item := range v.Items {
			iv, err := x.value(ctx, item, sc)
			if err != nil {
				return nil, err
			}

			out.Items[i] = literalValue(iv, item.Line)
		}

		return out, nil

	case types.OrTypeValue:
		if v.Value.Case == types.CaseValue && v.Value.Value == nil {
			return v, nil
		}

		pv, err := x.value(ctx, v.Value, sc)
		if err != nil {
			return nil, err
		}

		v.Value = literalValue(pv, v.Value.Line)

		return v, nil

	case types.Optional:
		if v.Value == nil {
			return v, nil
		}

		inner, err := x.literal(ctx, v.Value, sc)
		if err != nil {
			return nil, err
		}

		return types.Optional{Inner: v.Inner, Value: inner}, nil
	}

	return v, nil
}

// holds evaluates a condition in sc.
func (x *Executor) holds(ctx context.Context, e *types.Expression, sc *scope) (bool, error) {
	out, err := x.evaluate(ctx, e, sc)
	if err != nil {
		return false, err
	}

	return out.Truthy(), nil
}

func (x *Executor) evaluate(ctx context.Context, e *types.Expression, sc *scope) (eval.Value, error) {
	p, err := x.eval.Cached(e.Source)
	if err != nil {
		return eval.Value{}, lang.WrapError(err).WithLine(e.Line)
	}

	values := make(map[string]eval.Value, len(e.References))

	for name, pv := range e.References {
		v, err := x.value(ctx, pv, sc)
		if err != nil {
			return eval.Value{}, err
		}

		ev, err := EvalValue(v)
		if err != nil {
			return eval.Value{}, lang.WrapError(err).WithLine(e.Line)
		}

		values[name] = ev
	}

	out, err := p.Run(ctx, values)
	if err != nil {
		return eval.Value{}, lang.WrapError(err).WithLine(e.Line)
	}

	return out, nil
}

// dynamic reports whether the value of pv in sc can change after execution,
// that is, whether it reads a mutable variable or a variable with
// conditional overrides.
func (x *Executor) dynamic(pv types.PropertyValue, sc *scope) bool {
	switch {
	case pv.IsValue():
		if t, ok := pv.Value.(types.Template); ok {
			for _, p := range t.Parts {
				if p.Ref != nil && x.dynamic(*p.Ref, sc) {
					return true
				}
			}
		}

		return false

	case pv.Source.Tag == types.SourceGlobal:
		t, _, ok := x.bag.Resolve(pv.Name)
		if !ok {
			return false
		}

		v, ok := t.(*types.Variable)

		return ok && (v.Mutable || len(v.Conditional) > 0)
	}

	b, _, err := sc.lookup(pv)
	if err != nil {
		return false
	}

	return x.dynamic(b.pv, b.scope)
}

// references maps the references of e that read mutable state to the
// qualified names they read. It returns nil when e does not depend on
// mutable state.
func (x *Executor) references(ctx context.Context, e *types.Expression, sc *scope) (map[string]string, error) {
	var (
		out     = make(map[string]string, len(e.References))
		mutable bool
	)

	for name, pv := range e.References {
		if x.dynamic(pv, sc) {
			mutable = true
		}

		c, err := x.close(ctx, pv, sc)
		if err != nil {
			return nil, err
		}

		if c.IsReference() {
			out[name] = c.Name
		}
	}

	if !mutable {
		return nil, nil
	}

	return out, nil
}

// Value resolves a property value that refers only to the bag.
func (x *Executor) Value(ctx context.Context, pv types.PropertyValue) (types.Value, error) {
	return x.value(ctx, pv, nil)
}

// Evaluate runs an expression whose references all read the bag.
func (x *Executor) Evaluate(ctx context.Context, e *types.Expression) (eval.Value, error) {
	return x.evaluate(ctx, e, nil)
}

// Holds evaluates a condition whose references all read the bag.
func (x *Executor) Holds(ctx context.Context, e *types.Expression) (bool, error) {
	return x.holds(ctx, e, nil)
}
