package interp

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Interpreter resolves a root document and the documents it imports into a
// bag of things. It is a state machine: every step either finishes with
// [*Done] or stops with a state asking the host for input, after which the
// matching Continue method resumes it.
//
// An Interpreter is used for one interpretation and is not safe for
// concurrent use.
type Interpreter struct {
	logger  log.Logger
	eval    *eval.Evaluator
	funcs   map[string]eval.Function
	foreign map[string]bool
	parse   Parser
	base    bool

	root       string
	bag        *types.Bag
	stack      []*frame
	done       map[string]*frame
	roots      []*types.Component
	equalities []Equality
	processed  map[string]types.Value
	pending    State
	defining   *types.ComponentDefinition
	finished   bool
	executor   *exec.Executor
}

// frame is a document being interpreted.
type frame struct {
	name string
	// aliases maps import aliases to module names.
	aliases map[string]string
	// exposed maps names made visible by "exposing" to qualified names.
	exposed map[string]string
	items   []ast.Ast
	next    int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithLogger sets the logger used for interpretation traces.
func WithLogger(logger log.Logger) Option {
	return func(x *Interpreter) { x.logger = logger }
}

// WithForeignModule declares modules whose variables the host provides.
// Importing them never suspends; reading one of their variables suspends
// on [*StuckOnForeignVariable] until the host supplies it.
func WithForeignModule(modules ...string) Option {
	return func(x *Interpreter) {
		for _, m := range modules {
			x.foreign[m] = true
		}
	}
}

// Parser reads the declarations of a module from its source text.
type Parser func(ctx context.Context, module, source string) ([]ast.Ast, error)

// WithParser replaces the parser used for the root document and every
// imported module.
func WithParser(p Parser) Option {
	return func(x *Interpreter) { x.parse = p }
}

// WithFunction registers an expression function available to conditions
// and function bodies.
func WithFunction(name string, fn eval.Function) Option {
	return func(x *Interpreter) { x.funcs[name] = fn }
}

// New returns an interpreter.
func New(opts ...Option) *Interpreter {
	x := &Interpreter{
		funcs:     map[string]eval.Function{"copy-to-clipboard": discard},
		foreign:   map[string]bool{},
		done:      map[string]*frame{},
		processed: map[string]types.Value{},
	}

	for _, opt := range opts {
		opt(x)
	}

	if x.parse == nil {
		x.parse = func(ctx context.Context, module, source string) ([]ast.Ast, error) {
			return ast.ParseString(ctx, module, source, ast.WithLogger(x.logger))
		}
	}

	evalOpts := []eval.Option{eval.WithLogger(x.logger)}
	for _, name := range slices.Sorted(maps.Keys(x.funcs)) {
		evalOpts = append(evalOpts, eval.WithFunction(name, x.funcs[name]))
	}

	x.eval = eval.New(evalOpts...)

	return x
}

// discard stands in for host functions while bodies are checked.
func discard(map[string]eval.Value, ...eval.Value) (eval.Value, error) {
	return eval.Empty(), nil
}

// Interpret starts interpreting document name with the given source text.
func (x *Interpreter) Interpret(ctx context.Context, name, source string) (State, error) {
	if x.bag != nil {
		return nil, lang.NewError(lang.ForbiddenUsage, "interpretation already started")
	}

	x.root = name

	if x.base {
		x.bag = types.NewBag()
	} else {
		b, err := Prelude()
		if err != nil {
			return nil, err
		}

		x.bag = b
	}

	x.logger.DebugContext(ctx, "interpret", log.Doc(name))

	if err := x.push(ctx, name, source); err != nil {
		return nil, err
	}

	return x.run(ctx)
}

// ContinueAfterImport resumes with the source text of the module the
// interpreter is stuck on.
func (x *Interpreter) ContinueAfterImport(ctx context.Context, module, source string) (State, error) {
	st, ok := x.pending.(*StuckOnImport)
	if !ok || st.Module != module {
		return nil, x.unexpected(ctx, "import of "+module)
	}

	x.resume(ctx, st)

	if err := x.push(ctx, module, source); err != nil {
		return nil, lang.Locate(err, st.Importer, st.Line)
	}

	return x.run(ctx)
}

// ContinueAfterProcessor resumes with the value a processor produced. The
// value is converted to the declared kind of the variable as by
// [types.FromNative].
func (x *Interpreter) ContinueAfterProcessor(ctx context.Context, value any) (State, error) {
	st, ok := x.pending.(*StuckOnProcessor)
	if !ok {
		return nil, x.unexpected(ctx, "processor value")
	}

	v, err := types.FromNative(x.bag, st.Kind, value)
	if err != nil {
		return nil, lang.WrapError(err).At(st.Doc, st.Line).
			With(slog.String("processor", st.Processor))
	}

	x.resume(ctx, st)
	x.processed[st.Variable] = v

	return x.run(ctx)
}

// ContinueAfterVariable resumes with the value of the foreign variable the
// interpreter is stuck on. Its kind is inferred from the Go value.
func (x *Interpreter) ContinueAfterVariable(ctx context.Context, name string, value any) (State, error) {
	st, ok := x.pending.(*StuckOnForeignVariable)
	if !ok || st.Variable != name {
		return nil, x.unexpected(ctx, "variable "+name)
	}

	k := types.InferKind(value)

	v, err := types.FromNative(x.bag, k, value)
	if err != nil {
		return nil, lang.WrapError(err).At(st.Doc, st.Line)
	}

	x.resume(ctx, st)
	x.bag.Set(&types.Variable{
		Name:     name,
		Kind:     k.Data(),
		Value:    types.NewValue(v, 0),
		IsStatic: true,
	})

	return x.run(ctx)
}

func (x *Interpreter) unexpected(ctx context.Context, what string) error {
	state := "nothing"
	if x.pending != nil {
		state = x.pending.Name()
	}

	x.logger.WarnContext(ctx, "unexpected continuation", log.State(state))

	return lang.Errorf(lang.ForbiddenUsage,
		"cannot continue with %q while stuck on %q", what, state)
}

func (x *Interpreter) resume(ctx context.Context, st State) {
	x.logger.TraceContext(ctx, "resume", log.State(st.Name()))
	x.pending = nil
}

// push parses module and makes it the document being interpreted.
func (x *Interpreter) push(ctx context.Context, module, source string) error {
	items, err := x.parse(ctx, module, source)
	if err != nil {
		return err
	}

	x.stack = append(x.stack, &frame{
		name:    module,
		aliases: map[string]string{PreludeName: PreludeName},
		exposed: map[string]string{},
		items:   items,
	})

	x.logger.TraceContext(ctx, "enter document",
		log.Module(module),
		slog.Int("declarations", len(items)),
		slog.Int("depth", len(x.stack)))

	return nil
}

// run processes declarations until every document is done or one of them
// needs input from the host. A declaration that suspends is processed again
// from the start on resumption, so processing never changes the bag before
// it succeeds.
func (x *Interpreter) run(ctx context.Context) (State, error) {
	if x.finished {
		return nil, lang.NewError(lang.ForbiddenUsage, "interpretation already finished")
	}

	for len(x.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, lang.WrapError(err)
		}

		fr := x.stack[len(x.stack)-1]

		if fr.next >= len(fr.items) {
			x.stack = x.stack[:len(x.stack)-1]
			x.done[fr.name] = fr

			x.logger.TraceContext(ctx, "leave document", log.Module(fr.name))

			continue
		}

		item := fr.items[fr.next]

		x.logger.TraceContext(ctx, "interpret declaration",
			log.Doc(fr.name),
			log.Line(item.Line()),
			log.Kind(item.Form()))

		st, err := x.item(ctx, fr, item)

		var fe *foreignError
		if errors.As(err, &fe) {
			st, err = &StuckOnForeignVariable{
				Variable: fe.variable,
				Module:   fe.module,
				Doc:      fr.name,
				Line:     item.Line(),
			}, nil
		}

		if err != nil {
			return nil, lang.Locate(err, fr.name, item.Line())
		}

		if st != nil {
			x.pending = st

			x.logger.DebugContext(ctx, "suspend",
				log.State(st.Name()),
				log.Doc(fr.name),
				log.Line(item.Line()))

			return st, nil
		}

		fr.next++
	}

	return x.finish(ctx)
}

// item processes one declaration of fr.
func (x *Interpreter) item(ctx context.Context, fr *frame, item ast.Ast) (State, error) {
	switch d := item.(type) {
	case *ast.Import:
		return x.importModule(ctx, fr, d)
	case *ast.Record:
		return nil, x.record(ctx, fr, d)
	case *ast.OrType:
		return nil, x.orType(ctx, fr, d)
	case *ast.Function:
		return nil, x.function(ctx, fr, d)
	case *ast.ComponentDefinition:
		return nil, x.componentDefinition(ctx, fr, d)
	case *ast.WebComponentDefinition:
		return nil, x.webComponent(ctx, fr, d)
	case *ast.VariableDefinition:
		return x.variable(ctx, fr, d)
	case *ast.VariableInvocation:
		return nil, x.assign(ctx, fr, d)
	case *ast.ComponentInvocation:
		return nil, x.instruction(ctx, fr, d)
	}

	return nil, lang.Errorf(lang.OtherError, "unknown declaration %q", item.Form())
}

// importModule makes module available under its alias, suspending when the
// module has not been interpreted yet.
func (x *Interpreter) importModule(ctx context.Context, fr *frame, d *ast.Import) (State, error) {
	if m, ok := fr.aliases[d.Alias]; ok && m != d.Module {
		return nil, lang.Errorf(lang.ForbiddenUsage,
			"alias %q already names module %q", d.Alias, m)
	}

	switch {
	case d.Module == PreludeName, x.foreign[d.Module], x.done[d.Module] != nil:

	case slices.ContainsFunc(x.stack, func(f *frame) bool { return f.name == d.Module }):
		return nil, lang.Errorf(lang.ForbiddenUsage,
			"cyclic import of %q", d.Module).With(log.Module(fr.name))

	default:
		return &StuckOnImport{Module: d.Module, Importer: fr.name, Line: d.LineNum}, nil
	}

	fr.aliases[d.Alias] = d.Module

	for _, name := range d.Exposing {
		to := types.Join(d.Module, name)

		if !x.foreign[d.Module] && !x.bag.Has(to) {
			return nil, lang.Errorf(lang.ValueNotFound,
				"module %q does not declare %q", d.Module, name)
		}

		if prev, ok := fr.exposed[name]; ok {
			x.logger.DebugContext(ctx, "exposed name kept from earlier import",
				log.Name(name),
				slog.String("kept", prev),
				slog.String("ignored", to))

			continue
		}

		fr.exposed[name] = to
		x.equalities = append(x.equalities, Equality{From: types.Join(fr.name, name), To: to})
	}

	x.logger.TraceContext(ctx, "import",
		log.Doc(fr.name),
		log.Module(d.Module),
		slog.String("alias", d.Alias))

	return nil, nil
}

// instruction interprets a top-level invocation. Only invocations of the
// root document are kept for execution.
func (x *Interpreter) instruction(ctx context.Context, fr *frame, d *ast.ComponentInvocation) error {
	c, err := x.component(ctx, fr, d, nil)
	if err != nil {
		return err
	}

	if !x.base && fr.name == x.root && len(x.stack) == 1 {
		x.roots = append(x.roots, c)
	}

	return nil
}

func (x *Interpreter) finish(ctx context.Context) (State, error) {
	x.finished = true

	doc := &Document{
		Name:       x.root,
		Bag:        x.bag,
		Roots:      x.roots,
		Equalities: x.equalities,
	}

	if fr, ok := x.done[x.root]; ok {
		doc.Aliases = maps.Clone(fr.aliases)
	}

	tree, err := x.exec().Execute(ctx, x.roots)
	if err != nil {
		return nil, err
	}

	doc.Tree = tree

	x.logger.DebugContext(ctx, "done",
		log.Doc(x.root),
		slog.Int("things", x.bag.Len()),
		slog.Int("roots", len(x.roots)))

	return &Done{Document: doc}, nil
}

func (x *Interpreter) exec() *exec.Executor {
	if x.executor == nil {
		x.executor = exec.New(x.bag,
			exec.WithLogger(x.logger),
			exec.WithEvaluator(x.eval),
			exec.WithDoc(x.root))
	}

	return x.executor
}

// foreignError reports a read of a variable the host has not supplied yet.
type foreignError struct {
	variable string
	module   string
}

func (e *foreignError) Error() string {
	return "foreign variable " + e.variable + " is not known yet"
}

// declare returns the qualified name of a new thing of fr, failing when the
// name is taken.
func (x *Interpreter) declare(fr *frame, name string) (string, error) {
	q := types.Join(fr.name, name)

	if t, ok := x.bag.Get(q); ok {
		return "", lang.Errorf(lang.ForbiddenUsage,
			"%q is already declared as a %q", name, t.Form()).
			With(slog.Int("declared", t.Line()))
	}

	return q, nil
}
