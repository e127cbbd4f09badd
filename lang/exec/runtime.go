package exec

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Names of the prelude variables the display mode functions change.
const (
	DarkModeVariable         = "ftd#dark-mode"
	SystemDarkModeVariable   = "ftd#system-dark-mode"
	FollowSystemModeVariable = "ftd#follow-system-dark-mode"
)

// modeKeys pairs the values keys the display mode functions write with the
// prelude variables they stand for.
//
//nolint:gochecknoglobals
var modeKeys = map[string]string{
	eval.DarkModeKey:         DarkModeVariable,
	eval.SystemDarkModeKey:   SystemDarkModeVariable,
	eval.FollowSystemModeKey: FollowSystemModeVariable,
}

// Runtime fires events against a bag it owns and renders the document again
// after a change.
type Runtime struct {
	bag       *types.Bag
	roots     []*types.Component
	doc       string
	eval      *eval.Evaluator
	exec      *Executor
	logger    log.Logger
	clipboard func(string)
}

// RuntimeOption configures a [Runtime].
type RuntimeOption func(*Runtime)

// WithRuntimeLogger sets the logger used for event traces.
func WithRuntimeLogger(logger log.Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = logger }
}

// WithClipboard sets the hook copy-to-clipboard calls.
func WithClipboard(fn func(text string)) RuntimeOption {
	return func(r *Runtime) { r.clipboard = fn }
}

// WithRuntimeDoc names the document the roots were written in.
func WithRuntimeDoc(doc string) RuntimeOption {
	return func(r *Runtime) { r.doc = doc }
}

// NewRuntime returns a runtime over bag, which it mutates as events fire.
func NewRuntime(bag *types.Bag, roots []*types.Component, opts ...RuntimeOption) *Runtime {
	r := &Runtime{bag: bag, roots: roots, clipboard: func(string) {}}

	for _, opt := range opts {
		opt(r)
	}

	r.eval = eval.New(
		eval.WithLogger(r.logger),
		eval.WithFunction("copy-to-clipboard", r.copyToClipboard),
	)
	r.exec = New(bag, WithLogger(r.logger), WithEvaluator(r.eval), WithDoc(r.doc))

	return r
}

// Bag returns the bag the runtime mutates.
func (r *Runtime) Bag() *types.Bag { return r.bag }

// Render executes the roots against the current state of the bag.
func (r *Runtime) Render(ctx context.Context) (*Tree, error) {
	return r.exec.Execute(ctx, r.roots)
}

// Fire runs the actions el binds to event, in order.
func (r *Runtime) Fire(ctx context.Context, el *Element, event string) error {
	eb, ok := el.Event(event)
	if !ok {
		return lang.Errorf(lang.ValueNotFound,
			"%q has no %q event", el.Name, event).WithLine(el.Line)
	}

	r.logger.DebugContext(ctx, "fire event",
		log.Name(el.Name),
		slog.String("event", event),
		slog.Int("actions", len(eb.Actions)))

	for _, a := range eb.Actions {
		if err := r.Call(ctx, a); err != nil {
			return lang.Locate(err, r.doc, el.Line)
		}
	}

	return nil
}

// Call runs a function with the action's arguments. Mutable arguments
// bound to variables in the bag are written back when the function
// returns.
func (r *Runtime) Call(ctx context.Context, a Action) error {
	f, ok := r.bag.Function(a.Function)
	if !ok {
		return lang.Errorf(lang.ValueNotFound, "function %q", a.Function)
	}

	values := make(map[string]eval.Value, len(f.Arguments)+len(modeKeys))
	locals := make([]string, 0, len(f.Arguments))

	for key, name := range modeKeys {
		if v, ok := r.bag.Variable(name); ok {
			cur, err := r.exec.value(ctx, v.Value, nil)
			if err != nil {
				return err
			}

			if ev, err := EvalValue(cur); err == nil {
				values[key] = ev
			}
		}
	}

	var (
		bound = make(map[string]types.PropertyValue, len(f.Arguments))
		fsc   = &scope{container: f.Name, args: make(map[string]binding, len(f.Arguments))}
	)

	for _, arg := range f.Arguments {
		locals = append(locals, arg.Name)

		if pv, ok := actionArgument(a, arg.Name); ok {
			fsc.args[arg.Name] = binding{pv: pv}
			bound[arg.Name] = pv

			continue
		}

		switch {
		case arg.Default != nil:
			fsc.args[arg.Name] = binding{pv: *arg.Default, scope: fsc}
		case arg.Kind.Kind.IsOptional():
			fsc.args[arg.Name] = binding{pv: literalValue(nil, arg.Line)}
		default:
			return lang.Errorf(lang.ValueNotFound,
				"%q requires argument %q", f.Name, arg.Name).WithLine(f.LineNum)
		}
	}

	for _, arg := range f.Arguments {
		b := fsc.args[arg.Name]

		v, err := r.exec.value(ctx, b.pv, b.scope)
		if err != nil {
			return lang.WrapError(err).With(log.Name(arg.Name))
		}

		ev, err := EvalValue(v)
		if err != nil {
			return lang.WrapError(err).With(log.Name(arg.Name))
		}

		values[arg.Name] = ev
	}

	p, err := r.eval.Cached(body(f), locals...)
	if err != nil {
		return lang.WrapError(err).At(docOf(f.Name), f.LineNum)
	}

	before := make(map[string]eval.Value, len(values))
	for k, v := range values {
		before[k] = v
	}

	if _, err := p.Run(ctx, values); err != nil {
		return lang.WrapError(err).At(docOf(f.Name), f.LineNum)
	}

	tx := r.begin()

	for _, arg := range f.Arguments {
		pv, ok := bound[arg.Name]
		if !arg.Mutable || !ok || !pv.IsReference() || pv.Source.Tag != types.SourceGlobal {
			continue
		}

		if values[arg.Name].String() == before[arg.Name].String() {
			continue
		}

		if err := tx.assign(pv.Name, values[arg.Name]); err != nil {
			return err
		}
	}

	for key, name := range modeKeys {
		if v, ok := values[key]; ok && v.String() != before[key].String() {
			if err := tx.assign(name, v); err != nil {
				return err
			}
		}
	}

	tx.commit()

	r.logger.TraceContext(ctx, "call function",
		log.Name(f.Name),
		slog.Int("arguments", len(bound)))

	return nil
}

// writes collects the variables changed by one function call. Nothing
// reaches the bag until commit, so a failed write-back changes nothing.
type writes struct {
	r       *Runtime
	changed map[string]*types.Variable
	order   []string
}

func (r *Runtime) begin() *writes {
	return &writes{r: r, changed: map[string]*types.Variable{}}
}

// variable returns the pending copy of vr.
func (w *writes) variable(vr *types.Variable) *types.Variable {
	if c, ok := w.changed[vr.Name]; ok {
		return c
	}

	c := *vr
	w.changed[vr.Name] = &c
	w.order = append(w.order, vr.Name)

	return &c
}

// assign stages v for the variable or field named by qualified.
func (w *writes) assign(qualified string, v eval.Value) error {
	t, path, ok := w.r.bag.Resolve(qualified)
	if !ok {
		return lang.Errorf(lang.ValueNotFound, "%q", qualified)
	}

	vr, ok := t.(*types.Variable)
	if !ok {
		return lang.Errorf(lang.ForbiddenUsage, "%q is not a variable", qualified)
	}

	if !vr.Mutable {
		return lang.Errorf(lang.ForbiddenUsage,
			"cannot change immutable variable %q", vr.Name).WithLine(vr.LineNum)
	}

	k, ok := w.r.bag.FieldKind(vr.Kind.Kind, path)
	if !ok {
		return lang.Errorf(lang.ValueNotFound, "%q", qualified)
	}

	nv, err := Assignable(w.r.bag, k, v)
	if err != nil {
		return lang.WrapError(err).With(log.Name(qualified))
	}

	c := w.variable(vr)

	updated, err := setField(c.Value, path, nv)
	if err != nil {
		return lang.WrapError(err).With(log.Name(qualified))
	}

	c.Value = updated

	w.r.logger.Trace("assign variable",
		log.Name(qualified),
		slog.String("value", v.String()))

	return nil
}

// commit stores every staged variable in the bag.
func (w *writes) commit() {
	for _, name := range w.order {
		w.r.bag.Set(w.changed[name])
	}
}

// setField returns pv with the value at path replaced by v.
func setField(pv types.PropertyValue, path []string, v types.Value) (types.PropertyValue, error) {
	if len(path) == 0 {
		out := types.NewValue(v, pv.Line)
		out.Mutable = pv.Mutable

		return out, nil
	}

	if !pv.IsValue() {
		return pv, lang.Errorf(lang.ForbiddenUsage,
			"cannot assign through reference %q", pv.Name)
	}

	switch x := types.Unwrap(pv.Value).(type) {
	case types.RecordValue:
		f, ok := x.Field(path[0])
		if !ok {
			break
		}

		nf, err := setField(f, path[1:], v)
		if err != nil {
			return pv, err
		}

		pv.Value = x.With(path[0], nf)

		return pv, nil

	case types.List:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i >= len(x.Items) {
			break
		}

		ni, err := setField(x.Items[i], path[1:], v)
		if err != nil {
			return pv, err
		}

		items := make([]types.PropertyValue, len(x.Items))
		copy(items, x.Items)
		items[i] = ni
		pv.Value = types.List{Item: x.Item, Items: items}

		return pv, nil
	}

	return pv, lang.Errorf(lang.ValueNotFound, "field %q", strings.Join(path, "."))
}

func (r *Runtime) copyToClipboard(_ map[string]eval.Value, args ...eval.Value) (eval.Value, error) {
	for _, a := range args {
		text := a.Str
		if a.Kind != eval.KindString {
			text = a.String()
		}

		r.clipboard(text)
	}

	return eval.Empty(), nil
}

func actionArgument(a Action, name string) (types.PropertyValue, bool) {
	for _, f := range a.Arguments {
		if f.Name == name {
			return f.Value, true
		}
	}

	return types.PropertyValue{}, false
}

// body joins the statements of a function.
func body(f *types.Function) string {
	stmts := make([]string, len(f.Expressions))
	for i, e := range f.Expressions {
		stmts[i] = e.Expression
	}

	return strings.Join(stmts, "\n")
}

func docOf(qualified string) string {
	doc, _ := types.SplitName(qualified)

	return doc
}
