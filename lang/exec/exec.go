package exec

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Executor turns component invocations into an element tree, reading
// variables from a bag.
type Executor struct {
	bag    *types.Bag
	eval   *eval.Evaluator
	logger log.Logger
	doc    string
}

// Option configures an [Executor].
type Option func(*Executor)

// WithLogger sets the logger used for execution traces.
func WithLogger(logger log.Logger) Option {
	return func(x *Executor) { x.logger = logger }
}

// WithEvaluator sets the evaluator conditions are compiled with.
func WithEvaluator(e *eval.Evaluator) Option {
	return func(x *Executor) { x.eval = e }
}

// WithDoc names the document the root invocations were written in, for
// diagnostics.
func WithDoc(doc string) Option {
	return func(x *Executor) { x.doc = doc }
}

// New returns an executor reading from bag.
func New(bag *types.Bag, opts ...Option) *Executor {
	x := &Executor{bag: bag}

	for _, opt := range opts {
		opt(x)
	}

	if x.eval == nil {
		x.eval = eval.New(eval.WithLogger(x.logger))
	}

	return x
}

// Execute executes roots in order and returns the resulting tree.
func (x *Executor) Execute(ctx context.Context, roots []*types.Component) (*Tree, error) {
	t := &Tree{}

	for _, c := range roots {
		els, err := x.invoke(ctx, c, nil, nil, len(t.Elements))
		if err != nil {
			return nil, err
		}

		t.Elements = append(t.Elements, els...)
	}

	t.index()

	x.logger.TraceContext(ctx, "execute document",
		log.Doc(x.doc),
		slog.Int("roots", len(roots)),
		slog.Int("elements", len(t.Elements)))

	return t, nil
}

// invoke executes c, once per loop item when it loops, as children of
// parent starting at index start.
func (x *Executor) invoke(
	ctx context.Context,
	c *types.Component,
	sc *scope,
	parent []int,
	start int,
) ([]*Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, lang.WrapError(err)
	}

	if c.Loop == nil {
		el, err := x.instance(ctx, c, sc, childPath(parent, start))
		if err != nil {
			return nil, err
		}

		return []*Element{el}, nil
	}

	items, err := x.loopItems(ctx, c.Loop, sc)
	if err != nil {
		return nil, x.locate(err, c.Loop.Line, sc)
	}

	out := make([]*Element, 0, len(items))

	for i, item := range items {
		inner := sc.withLoop(c.Loop.Alias, item, c.Loop.Index, i)

		el, err := x.instance(ctx, c, inner, childPath(parent, start+i))
		if err != nil {
			return nil, err
		}

		out = append(out, el)
	}

	return out, nil
}

// loopItems returns a binding per item of the list a loop iterates. Items
// of a list in the bag are bound by reference.
func (x *Executor) loopItems(ctx context.Context, l *types.LoopClause, sc *scope) ([]binding, error) {
	on, err := x.close(ctx, l.On, sc)
	if err != nil {
		return nil, err
	}

	v, err := x.value(ctx, on, nil)
	if err != nil {
		return nil, err
	}

	if types.IsNone(v) {
		return nil, nil
	}

	list, ok := types.Unwrap(v).(types.List)
	if !ok {
		return nil, lang.Errorf(lang.InvalidKind,
			"cannot loop over %q value", v.Kind().String())
	}

	out := make([]binding, len(list.Items))

	for i, item := range list.Items {
		if on.IsReference() {
			out[i] = binding{pv: types.NewReference(
				on.Name+"."+strconv.Itoa(i), list.Item, types.Global(), l.Line,
			).WithMutable(on.Mutable)}

			continue
		}

		out[i] = binding{pv: item}
	}

	return out, nil
}

// instance executes one occurrence of c at container.
func (x *Executor) instance(
	ctx context.Context,
	c *types.Component,
	sc *scope,
	container []int,
) (*Element, error) {
	x.logger.TraceContext(ctx, "execute component",
		log.Name(c.Name),
		log.Line(c.Line),
		slog.String("container", containerName(sc)))

	var cond *Condition

	if c.Condition != nil {
		ok, err := x.holds(ctx, c.Condition, sc)
		if err != nil {
			return nil, x.locate(err, c.Line, sc)
		}

		refs, err := x.references(ctx, c.Condition, sc)
		if err != nil {
			return nil, x.locate(err, c.Line, sc)
		}

		if refs == nil && !ok {
			return &Element{
				Kind:      ElementNull,
				Name:      c.Name,
				Container: container,
				IsNull:    true,
				Line:      c.Line,
			}, nil
		}

		if refs != nil {
			cond = &Condition{Source: c.Condition.Source, References: refs, Holds: ok}
		}
	}

	el, err := x.component(ctx, c, sc, container)
	if err != nil {
		return nil, x.locate(err, c.Line, sc)
	}

	if cond != nil {
		el.Condition = cond
	}

	return el, nil
}

// component executes the definition c invokes.
func (x *Executor) component(
	ctx context.Context,
	c *types.Component,
	sc *scope,
	container []int,
) (*Element, error) {
	if def, ok := x.bag.Component(c.Name); ok {
		if def.IsKernel() {
			kind, ok := kernelKinds[def.Name]
			if !ok {
				return nil, lang.Errorf(lang.ForbiddenUsage,
					"%q is not a kernel component", def.Name)
			}

			return x.leaf(ctx, c, kind, def.Name, def.Arguments, sc, container)
		}

		return x.user(ctx, c, def, sc, container)
	}

	if wc, ok := x.bag.WebComponent(c.Name); ok {
		return x.leaf(ctx, c, ElementWebComponent, wc.Name, wc.Arguments, sc, container)
	}

	return nil, lang.Errorf(lang.ValueNotFound, "component %q", c.Name)
}

// user executes the root of a component definition with the invocation's
// properties bound to its arguments. Children of the invocation are
// appended to the root.
func (x *Executor) user(
	ctx context.Context,
	c *types.Component,
	def *types.ComponentDefinition,
	sc *scope,
	container []int,
) (*Element, error) {
	if def.Definition == nil {
		return nil, lang.Errorf(lang.ForbiddenUsage, "component %q has no body", def.Name)
	}

	if def.Definition.Loop != nil {
		return nil, lang.Errorf(lang.ForbiddenUsage,
			"root of component %q cannot loop", def.Name)
	}

	inner := &scope{container: def.Name, args: map[string]binding{}}

	args, _, _, err := x.bind(ctx, c, def.Arguments, sc, inner)
	if err != nil {
		return nil, err
	}

	maps.Copy(inner.args, args)

	el, err := x.instance(ctx, def.Definition, inner, container)
	if err != nil {
		return nil, err
	}

	el.Name = c.Name

	if el.IsNull {
		return el, nil
	}

	if err := x.children(ctx, el, c, sc); err != nil {
		return nil, err
	}

	events, err := x.events(ctx, c.Events, sc)
	if err != nil {
		return nil, err
	}

	el.Events = append(el.Events, events...)

	return el, nil
}

// leaf executes a kernel or web component: every argument with a value
// becomes an attribute.
func (x *Executor) leaf(
	ctx context.Context,
	c *types.Component,
	kind ElementKind,
	name string,
	params []types.Argument,
	sc *scope,
	container []int,
) (*Element, error) {
	el := &Element{Kind: kind, Name: name, Container: container, Line: c.Line}
	inner := &scope{container: name, args: map[string]binding{}}

	args, base, conds, err := x.bind(ctx, c, params, sc, inner)
	if err != nil {
		return nil, err
	}

	maps.Copy(inner.args, args)

	for _, p := range params {
		b := args[p.Name]

		v, err := x.value(ctx, b.pv, b.scope)
		if err != nil {
			return nil, err
		}

		if types.IsNone(v) {
			continue
		}

		if p.Name == "id" {
			el.ID = types.Text(v)
		}

		el.Attributes = append(el.Attributes, Attribute{Name: p.Name, Value: v})
	}

	for _, cp := range conds {
		if err := x.conditionalAttribute(ctx, el, cp, base, sc); err != nil {
			return nil, err
		}
	}

	if err := x.children(ctx, el, c, sc); err != nil {
		return nil, err
	}

	el.Events, err = x.events(ctx, c.Events, sc)
	if err != nil {
		return nil, err
	}

	return el, nil
}

// conditional is a property whose condition reads mutable state.
type conditional struct {
	prop *types.Property
	refs map[string]string
}

// bind selects a binding for every argument: its default, then the
// unconditional properties, then the conditional properties that currently
// hold, each in declaration order. Defaults resolve in inner so they may
// refer to sibling arguments. base holds the bindings before conditional
// properties apply.
func (x *Executor) bind(
	ctx context.Context,
	c *types.Component,
	params []types.Argument,
	sc *scope,
	inner *scope,
) (args, base map[string]binding, conds []conditional, err error) {
	args = make(map[string]binding, len(params))

	for _, p := range params {
		switch {
		case p.Default != nil:
			args[p.Name] = binding{pv: *p.Default, scope: inner}
		case p.Kind.Kind.IsOptional():
			args[p.Name] = binding{pv: types.NewValue(types.Optional{Inner: p.Kind.Kind.Elem()}, p.Line)}
		case p.Kind.Kind.IsList():
			args[p.Name] = binding{pv: types.NewValue(types.List{Item: p.Kind.Kind.Elem()}, p.Line)}
		}
	}

	for i := range c.Properties {
		p := &c.Properties[i]

		if !slices.ContainsFunc(params, func(a types.Argument) bool { return a.Name == p.Target }) {
			return nil, nil, nil, lang.Errorf(lang.ForbiddenUsage,
				"%q has no argument %q", c.Name, p.Target).WithLine(p.Line)
		}

		if p.Condition == nil {
			args[p.Target] = binding{pv: p.Value, scope: sc}
		}
	}

	base = maps.Clone(args)

	for i := range c.Properties {
		p := &c.Properties[i]
		if p.Condition == nil {
			continue
		}

		ok, err := x.holds(ctx, p.Condition, sc)
		if err != nil {
			return nil, nil, nil, err
		}

		if ok {
			args[p.Target] = binding{pv: p.Value, scope: sc}
		}

		refs, err := x.references(ctx, p.Condition, sc)
		if err != nil {
			return nil, nil, nil, err
		}

		if refs != nil {
			conds = append(conds, conditional{prop: p, refs: refs})
		}
	}

	for _, p := range params {
		if _, ok := args[p.Name]; !ok {
			return nil, nil, nil, lang.Errorf(lang.ValueNotFound,
				"%q requires argument %q", c.Name, p.Name).WithLine(c.Line)
		}
	}

	return args, base, conds, nil
}

// conditionalAttribute records the style attributes a conditional property
// sets while its condition holds.
func (x *Executor) conditionalAttribute(
	ctx context.Context,
	el *Element,
	cp conditional,
	base map[string]binding,
	sc *scope,
) error {
	v, err := x.value(ctx, cp.prop.Value, sc)
	if err != nil {
		return err
	}

	var def string

	if b, ok := base[cp.prop.Target]; ok {
		dv, err := x.value(ctx, b.pv, b.scope)
		if err != nil {
			return err
		}

		def = styleValue(dv)
	}

	for _, name := range styleNames(cp.prop.Target) {
		i := slices.IndexFunc(el.ConditionalAttributes,
			func(a ConditionalAttribute) bool { return a.Name == name })
		if i < 0 {
			el.ConditionalAttributes = append(el.ConditionalAttributes,
				ConditionalAttribute{Name: name, Default: def})
			i = len(el.ConditionalAttributes) - 1
		}

		attr := &el.ConditionalAttributes[i]
		attr.Conditions = append(attr.Conditions, ConditionalValue{
			Condition:  cp.prop.Condition.Source,
			References: cp.refs,
			Value:      styleValue(v),
		})
	}

	return nil
}

// children executes the children of invocation c, resolved in sc, and
// appends them to el.
func (x *Executor) children(ctx context.Context, el *Element, c *types.Component, sc *scope) error {
	if len(c.Children) == 0 {
		return nil
	}

	if !el.Kind.IsContainer() {
		return lang.Errorf(lang.ForbiddenUsage,
			"%q cannot have children", c.Name).WithLine(c.Line)
	}

	for _, child := range c.Children {
		els, err := x.invoke(ctx, child, sc, el.Container, len(el.Children))
		if err != nil {
			return err
		}

		el.Children = append(el.Children, els...)
	}

	return nil
}

// events binds each event's actions with their arguments closed over sc.
func (x *Executor) events(ctx context.Context, events []types.Event, sc *scope) ([]EventBinding, error) {
	out := make([]EventBinding, 0, len(events))

	for _, ev := range events {
		eb := EventBinding{Name: ev.Name, Actions: make([]Action, 0, len(ev.Actions))}

		for _, call := range ev.Actions {
			a := Action{Function: call.Name, Arguments: make([]types.Field, 0, len(call.Arguments))}

			for _, f := range call.Arguments {
				pv, err := x.close(ctx, f.Value, sc)
				if err != nil {
					return nil, lang.WrapError(err).WithLine(ev.Line)
				}

				a.Arguments = append(a.Arguments, types.Field{Name: f.Name, Value: pv})
			}

			eb.Actions = append(eb.Actions, a)
		}

		out = append(out, eb)
	}

	return out, nil
}

// locate attributes err to the document the executing component was
// written in.
func (x *Executor) locate(err error, line int, sc *scope) error {
	doc := x.doc

	if sc != nil && sc.container != "" {
		doc, _ = types.SplitName(sc.container)
	}

	return lang.Locate(err, doc, line)
}

func containerName(sc *scope) string {
	if sc == nil || sc.container == "" {
		return "root"
	}

	return sc.container
}

func childPath(parent []int, i int) []int {
	return append(slices.Clone(parent), i)
}
