package interp

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// scope holds the names a declaration body may read besides globals: the
// arguments of the definition being interpreted and the loop binders in
// effect.
type scope struct {
	// container is the qualified name of the definition owning args.
	container string
	args      []types.Argument
	loop      map[string]types.Kind
}

func (s *scope) arg(name string) (*types.Argument, bool) {
	if s == nil {
		return nil, false
	}

	i := slices.IndexFunc(s.args, func(a types.Argument) bool { return a.Name == name })
	if i < 0 {
		return nil, false
	}

	return &s.args[i], true
}

// withLoop returns a child scope binding alias to items of kind item, and
// index, if named, to their position.
func (s *scope) withLoop(alias string, item types.Kind, index string) *scope {
	c := &scope{loop: map[string]types.Kind{}}

	if s != nil {
		c.container = s.container
		c.args = s.args
		maps.Copy(c.loop, s.loop)
	}

	c.loop[alias] = item

	if index != "" {
		c.loop[index] = types.IntegerKind
	}

	return c
}

// qualify returns the qualified name of name as written in fr.
func (fr *frame) qualify(name string) string {
	head, rest, dotted := strings.Cut(name, ".")

	if q, ok := fr.exposed[head]; ok {
		if dotted {
			return q + "." + rest
		}

		return q
	}

	return types.Qualify(fr.name, name, fr.aliases)
}

// reference resolves name, written after '$', to a property value. Loop
// binders shadow arguments, which shadow globals.
func (x *Interpreter) reference(fr *frame, name string, sc *scope, line int) (types.PropertyValue, error) {
	head, rest, _ := strings.Cut(name, ".")

	var path []string
	if rest != "" {
		path = strings.Split(rest, ".")
	}

	if sc != nil {
		if k, ok := sc.loop[head]; ok {
			fk, ok := x.bag.FieldKind(k, path)
			if !ok {
				return types.PropertyValue{}, fieldError(head, path)
			}

			return types.NewReference(name, fk, types.Loop(), line), nil
		}

		if a, ok := sc.arg(head); ok {
			fk, ok := x.bag.FieldKind(a.Kind.Kind, path)
			if !ok {
				return types.PropertyValue{}, fieldError(head, path)
			}

			return types.NewReference(name, fk, types.Local(sc.container), line).
				WithMutable(a.Mutable), nil
		}
	}

	q := fr.qualify(name)

	t, path, ok := x.bag.Resolve(q)
	if !ok {
		doc, short := types.SplitName(q)
		if x.foreign[doc] {
			variable, _, _ := strings.Cut(short, ".")

			return types.PropertyValue{}, &foreignError{
				variable: types.Join(doc, variable),
				module:   doc,
			}
		}

		return types.PropertyValue{}, x.notFound(fr, q)
	}

	v, ok := t.(*types.Variable)
	if !ok {
		return types.PropertyValue{}, lang.Errorf(lang.ForbiddenUsage,
			"%q is a %q, not a variable", name, t.Form())
	}

	fk, ok := x.bag.FieldKind(v.Kind.Kind, path)
	if !ok {
		return types.PropertyValue{}, fieldError(name, path)
	}

	return types.NewReference(q, fk, types.Global(), line).WithMutable(v.Mutable), nil
}

func fieldError(name string, path []string) error {
	return lang.Errorf(lang.ValueNotFound, "%q has no field %q",
		name, strings.Join(path, "."))
}

// expression compiles a condition and resolves its references.
func (x *Interpreter) expression(
	ctx context.Context,
	fr *frame,
	source string,
	sc *scope,
	line int,
) (*types.Expression, error) {
	p, err := x.eval.Cached(source)
	if err != nil {
		return nil, lang.WrapError(err).WithLine(line)
	}

	e := &types.Expression{
		Source:     source,
		References: map[string]types.PropertyValue{},
		Line:       line,
	}

	for _, ref := range p.References() {
		pv, err := x.reference(fr, ref, sc, line)
		if err != nil {
			return nil, err
		}

		e.References[ref] = pv
	}

	x.logger.TraceContext(ctx, "condition",
		log.Doc(fr.name),
		log.Line(line),
		log.Name(source))

	return e, nil
}

// static reports whether pv reads a value that can never change: a global
// immutable variable without conditional overrides.
func (x *Interpreter) static(pv types.PropertyValue) bool {
	if pv.IsValue() {
		return true
	}

	if pv.Source.Tag != types.SourceGlobal {
		return false
	}

	t, _, ok := x.bag.Resolve(pv.Name)
	if !ok {
		return false
	}

	v, ok := t.(*types.Variable)

	return ok && !v.Mutable && len(v.Conditional) == 0
}

func (x *Interpreter) staticExpression(e *types.Expression) bool {
	for _, pv := range e.References {
		if !x.static(pv) {
			return false
		}
	}

	return true
}

// fold replaces a value that can be computed now by its literal: clones of
// globals, references to static variables, and templates over them.
func (x *Interpreter) fold(ctx context.Context, pv types.PropertyValue) (types.PropertyValue, error) {
	switch {
	case pv.Source.Tag != types.SourceGlobal:
		return pv, nil

	case pv.Case == types.CaseClone,
		pv.Case == types.CaseReference && x.static(pv):

	case pv.IsValue():
		t, ok := pv.Value.(types.Template)
		if !ok || !slices.ContainsFunc(t.Parts, func(p types.TemplatePart) bool {
			return p.Ref != nil
		}) {
			return pv, nil
		}

		for _, p := range t.Parts {
			if p.Ref != nil && !x.static(*p.Ref) {
				return pv, nil
			}
		}

	default:
		return pv, nil
	}

	v, err := x.exec().Value(ctx, pv)
	if err != nil {
		return types.PropertyValue{}, err
	}

	if v == nil {
		return pv, nil
	}

	return types.NewValue(v, pv.Line), nil
}
