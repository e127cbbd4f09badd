package interp

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// variable declares a variable, or interprets "-- <component> <caption>:"
// written with the shape of one.
func (x *Interpreter) variable(ctx context.Context, fr *frame, d *ast.VariableDefinition) (State, error) {
	if word, _, ok := x.componentName(fr, d.Kind); ok {
		inv, err := d.AsInvocation(word)
		if err != nil {
			return nil, err
		}

		return nil, x.instruction(ctx, fr, inv)
	}

	q, err := x.declare(fr, d.Name)
	if err != nil {
		return nil, err
	}

	kd, err := x.valueKind(fr, d.Kind)
	if err != nil {
		return nil, err
	}

	var pv types.PropertyValue

	if d.Processor != "" {
		v, ok := x.processed[q]
		if !ok {
			return &StuckOnProcessor{
				Variable:  q,
				Processor: d.Processor,
				Kind:      kd.Kind,
				Meta:      d.Meta,
				Doc:       fr.name,
				Line:      d.LineNum,
			}, nil
		}

		pv = types.NewValue(v, d.LineNum)
	} else {
		pv, err = x.value(ctx, fr, d.Value, kd.Kind, nil)
		if err != nil {
			return nil, err
		}
	}

	pv, err = x.fold(ctx, pv)
	if err != nil {
		return nil, err
	}

	x.bag.Set(&types.Variable{
		Name:     q,
		Kind:     kd,
		Mutable:  d.Mutable,
		Value:    pv,
		IsStatic: !d.Mutable,
		LineNum:  d.LineNum,
	})

	x.logger.TraceContext(ctx, "declare variable",
		log.Name(q),
		log.Kind(kd.String()),
		slog.Bool("mutable", d.Mutable))

	return nil, nil
}

// assign interprets "-- <name>: <value>", which replaces the value of a
// mutable variable, and "-- <name>: <value>" with an "if" clause, which adds
// a conditional override to any variable.
func (x *Interpreter) assign(ctx context.Context, fr *frame, d *ast.VariableInvocation) error {
	q := fr.qualify(d.Name)

	v, ok := x.bag.Variable(q)
	if !ok {
		return x.notFound(fr, q)
	}

	pv, err := x.value(ctx, fr, d.Value, v.Kind.Kind, nil)
	if err != nil {
		return err
	}

	pv, err = x.fold(ctx, pv)
	if err != nil {
		return err
	}

	nv := *v
	nv.Conditional = slices.Clone(v.Conditional)

	switch {
	case d.Condition != nil:
		e, err := x.expression(ctx, fr, d.Condition.Expression, nil, d.Condition.LineNum)
		if err != nil {
			return err
		}

		if !x.staticExpression(e) {
			nv.Conditional = append(nv.Conditional, types.ConditionalValue{
				Condition: *e,
				Value:     pv,
				Line:      d.LineNum,
			})

			break
		}

		holds, err := x.exec().Holds(ctx, e)
		if err != nil {
			return err
		}

		if !holds {
			return nil
		}

		nv.Value = pv

	case !v.Mutable:
		return lang.Errorf(lang.ForbiddenUsage,
			"cannot assign to %q, which is not mutable", fr.written(q))

	default:
		nv.Value = pv
	}

	x.bag.Set(&nv)

	x.logger.TraceContext(ctx, "assign variable",
		log.Name(q),
		slog.Bool("conditional", d.Condition != nil))

	return nil
}

// record declares a record. Field defaults may read the fields declared
// before them.
func (x *Interpreter) record(ctx context.Context, fr *frame, d *ast.Record) error {
	q, err := x.declare(fr, d.Name)
	if err != nil {
		return err
	}

	sc := &scope{container: q}

	fields, err := x.arguments(ctx, fr, d.Fields, sc, q)
	if err != nil {
		return err
	}

	x.bag.Set(&types.Record{Name: q, Fields: fields, LineNum: d.LineNum})

	x.logger.TraceContext(ctx, "declare record",
		log.Name(q),
		slog.Int("fields", len(fields)))

	return nil
}

// arguments converts argument declarations, binding each default in sc
// extended with the arguments before it.
func (x *Interpreter) arguments(
	ctx context.Context,
	fr *frame,
	decls []*ast.Argument,
	sc *scope,
	self string,
) ([]types.Argument, error) {
	out := make([]types.Argument, 0, len(decls))

	for _, a := range decls {
		kd, err := x.kindData(fr, a.Kind, self)
		if err != nil {
			return nil, lang.WrapError(err).WithLine(a.LineNum)
		}

		arg := types.Argument{
			Name:    a.Name,
			Kind:    kd,
			Mutable: a.Mutable,
			Line:    a.LineNum,
		}

		if a.Value != nil {
			pv, err := x.value(ctx, fr, a.Value, kd.Kind, sc)
			if err != nil {
				return nil, lang.WrapError(err).WithLine(a.LineNum)
			}

			arg.Default = &pv
		}

		out = append(out, arg)
		sc.args = out
	}

	return out, nil
}

// orType declares an or-type.
func (x *Interpreter) orType(ctx context.Context, fr *frame, d *ast.OrType) error {
	q, err := x.declare(fr, d.Name)
	if err != nil {
		return err
	}

	o := &types.OrType{Name: q, LineNum: d.LineNum}

	for _, v := range d.Variants {
		if _, dup := o.Variant(v.Name); dup {
			return lang.Errorf(lang.ForbiddenUsage, "variant %q is declared twice",
				v.Name).WithLine(v.LineNum)
		}

		kd, err := x.valueKind(fr, v.Kind)
		if err != nil {
			return lang.WrapError(err).WithLine(v.LineNum)
		}

		variant := types.OrTypeVariant{
			Name:     v.Name,
			Kind:     kd,
			Constant: v.Constant,
			Line:     v.LineNum,
		}

		if v.Value != nil {
			pv, err := x.value(ctx, fr, v.Value, kd.Kind, nil)
			if err != nil {
				return lang.WrapError(err).WithLine(v.LineNum)
			}

			if pv, err = x.fold(ctx, pv); err != nil {
				return err
			}

			if v.Constant && !pv.IsValue() {
				return lang.Errorf(lang.ForbiddenUsage,
					"constant variant %q must have a literal value", v.Name).
					WithLine(v.LineNum)
			}

			variant.Value = &pv
		}

		o.Variants = append(o.Variants, variant)
	}

	x.bag.Set(o)

	x.logger.TraceContext(ctx, "declare or-type",
		log.Name(q),
		slog.Int("variants", len(o.Variants)))

	return nil
}

// function declares a function. Its body reads arguments by bare name and
// is compiled once to check it.
func (x *Interpreter) function(ctx context.Context, fr *frame, d *ast.Function) error {
	q, err := x.declare(fr, d.Name)
	if err != nil {
		return err
	}

	ret, err := x.valueKind(fr, d.ReturnKind)
	if err != nil {
		return err
	}

	sc := &scope{container: q}

	args, err := x.arguments(ctx, fr, d.Arguments, sc, "")
	if err != nil {
		return err
	}

	f := &types.Function{
		Name:       q,
		ReturnKind: ret,
		Arguments:  args,
		JS:         d.JS,
		LineNum:    d.LineNum,
	}

	if strings.TrimSpace(d.Definition) != "" {
		names := make([]string, len(args))
		for i, a := range args {
			names[i] = a.Name
		}

		p, err := x.eval.Cached(d.Definition, names...)
		if err != nil {
			return lang.WrapError(err).WithLine(d.DefLine)
		}

		if refs := p.References(); len(refs) > 0 {
			return lang.Errorf(lang.ForbiddenUsage,
				"function %q reads %q; function bodies name their arguments without '$'",
				d.Name, "$"+refs[0]).WithLine(d.DefLine)
		}

		f.Expressions = statements(d.Definition, d.DefLine)
	}

	x.bag.Set(f)

	x.logger.TraceContext(ctx, "declare function",
		log.Name(q),
		slog.Int("arguments", len(args)),
		slog.Int("statements", len(f.Expressions)))

	return nil
}

// statements splits a function body, numbering each statement with the
// line it starts on.
func statements(body string, first int) []types.FunctionExpression {
	var (
		out []types.FunctionExpression
		off int
	)

	for _, st := range eval.Split(body) {
		line := first

		if i := strings.Index(body[off:], st); i >= 0 {
			line += strings.Count(body[:off+i], "\n")
			off += i + len(st)
		}

		out = append(out, types.FunctionExpression{Expression: st, Line: line})
	}

	return out
}

// componentDefinition declares a component. Its body may invoke the
// component being declared.
func (x *Interpreter) componentDefinition(ctx context.Context, fr *frame, d *ast.ComponentDefinition) error {
	q, err := x.declare(fr, d.Name)
	if err != nil {
		return err
	}

	sc := &scope{container: q}

	args, err := x.arguments(ctx, fr, d.Arguments, sc, "")
	if err != nil {
		return err
	}

	cd := &types.ComponentDefinition{
		Name:      q,
		Arguments: args,
		CSS:       d.CSS,
		LineNum:   d.LineNum,
	}

	x.defining = cd
	defer func() { x.defining = nil }()

	root, err := x.component(ctx, fr, d.Definition, sc)
	if err != nil {
		return err
	}

	cd.Definition = root

	x.bag.Set(cd)

	x.logger.TraceContext(ctx, "declare component",
		log.Name(q),
		slog.Int("arguments", len(args)),
		slog.Bool("kernel", cd.IsKernel()))

	return nil
}

// webComponent declares a component implemented by a script.
func (x *Interpreter) webComponent(ctx context.Context, fr *frame, d *ast.WebComponentDefinition) error {
	q, err := x.declare(fr, d.Name)
	if err != nil {
		return err
	}

	args, err := x.arguments(ctx, fr, d.Arguments, &scope{container: q}, "")
	if err != nil {
		return err
	}

	x.bag.Set(&types.WebComponentDefinition{
		Name:      q,
		Arguments: args,
		JS:        d.JS,
		LineNum:   d.LineNum,
	})

	x.logger.TraceContext(ctx, "declare web-component", log.Name(q))

	return nil
}
