package eval

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/types"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Evaluator compiles expressions and function bodies.
//
// An Evaluator is not safe for concurrent registration; compiled programs
// may run concurrently against distinct value maps.
type Evaluator struct {
	logger   log.Logger
	funcs    map[string]Function
	programs sync.Map // cache key to *compiled
}

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithLogger sets the logger used for compile and run traces.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithFunction registers fn under name.
func WithFunction(name string, fn Function) Option {
	return func(e *Evaluator) { e.Register(name, fn) }
}

// New returns an evaluator with the built-in functions registered.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{funcs: makeBuiltins()}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register adds or replaces the function called name. Hyphens in name are
// stored as underscores; expressions may spell it either way.
func (e *Evaluator) Register(name string, fn Function) {
	e.funcs[strings.ReplaceAll(name, "-", "_")] = fn
	e.programs.Clear()
}

// Functions returns the registered function names in sorted order.
func (e *Evaluator) Functions() []string {
	return slices.Sorted(maps.Keys(e.funcs))
}

// Program is a compiled sequence of statements.
type Program struct {
	source string
	refs   []string
	stmts  []statement
	idents map[string]string // expr identifier to values key
	funcs  map[string]Function
	logger log.Logger
}

type statement struct {
	source  string
	target  string // values key assigned by the statement, if any
	ident   string // expr identifier of target
	program *vm.Program
}

// Compile compiles source, which holds one or more statements separated by
// ';' or newlines. Each statement is an expression or an assignment
// "name = expr" (also "+=", "-=", "*=", "/="). "$name" denotes a reference
// whose value is supplied at run time under the key "name"; each of locals is
// a bare name whose value is supplied under its own key.
func (e *Evaluator) Compile(source string, locals ...string) (*Program, error) {
	r := newRewriter()

	p := &Program{
		source: source,
		idents: map[string]string{},
		funcs:  maps.Clone(e.funcs),
		logger: e.logger,
	}

	stmts := Split(source)
	if len(stmts) == 0 {
		return nil, lang.NewError(lang.EvalError, "empty expression")
	}

	rewritten := make([]string, len(stmts))
	for i, s := range stmts {
		rewritten[i] = r.rewrite(s)
	}

	for i, ref := range r.refs {
		p.idents[refPrefix+strconv.Itoa(i)] = ref
	}

	for _, l := range locals {
		p.idents[l] = l
	}

	p.refs = r.refs
	env := p.compileEnv()
	patcher := newHyphenPatcher(locals, e.Functions(), e.logger)

	for i, text := range rewritten {
		st := statement{source: stmts[i]}

		if id, op, rhs, ok := assignment(text); ok {
			key, known := p.idents[id]
			if !known {
				return nil, lang.Errorf(lang.EvalError,
					"cannot assign to %q", r.original(id)).
					With(slog.String("source", stmts[i]))
			}

			st.target, st.ident = key, id
			text = rhs

			if op != "=" {
				text = id + " " + op[:1] + " (" + rhs + ")"
			}
		}

		prog, err := expr.Compile(text, expr.Env(env), expr.Patch(patcher))
		if err != nil {
			return nil, lang.NewError(lang.EvalError, "cannot compile expression").
				Wrap(errors.New(r.original(err.Error()))).
				With(slog.String("source", stmts[i]))
		}

		st.program = prog
		p.stmts = append(p.stmts, st)
	}

	e.logger.Trace("compile expression",
		slog.String("source", source),
		slog.Int("statements", len(p.stmts)),
		slog.Any("references", p.refs))

	return p, nil
}

// Eval compiles and runs source with every key of values visible as a local
// name and as a "$" reference.
func (e *Evaluator) Eval(
	ctx context.Context,
	source string,
	values map[string]Value,
) (Value, error) {
	p, err := e.Compile(source, slices.Collect(maps.Keys(values))...)
	if err != nil {
		return Value{}, err
	}

	return p.Run(ctx, values)
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.source }

// References returns the names referenced with "$", without the '$', in
// order of first appearance.
func (p *Program) References() []string { return slices.Clone(p.refs) }

// Targets returns the keys assigned by the program's statements.
func (p *Program) Targets() []string {
	var out []string

	for _, st := range p.stmts {
		if st.target != "" && !slices.Contains(out, st.target) {
			out = append(out, st.target)
		}
	}

	return out
}

// Run executes the program's statements in order and returns the value of
// the last one. Assignments update values in place; so may the functions
// the program calls.
func (p *Program) Run(ctx context.Context, values map[string]Value) (Value, error) {
	env, err := p.runEnv(values)
	if err != nil {
		return Value{}, err
	}

	var result Value

	for _, st := range p.stmts {
		if err := ctx.Err(); err != nil {
			return Value{}, lang.WrapError(err)
		}

		out, err := vm.Run(st.program, env)
		if err != nil {
			return Value{}, runError(err, st.source)
		}

		result, err = FromNative(out)
		if err != nil {
			return Value{}, lang.WrapError(err).With(slog.String("source", st.source))
		}

		if st.target != "" {
			values[st.target] = result
			env[st.ident] = result.Native()
		}
	}

	p.logger.TraceContext(ctx, "run expression",
		slog.String("source", p.source),
		slog.String("result", result.String()))

	return result, nil
}

// compileEnv returns the environment the statements are type-checked
// against. Operand types are unknown until run time.
func (p *Program) compileEnv() types.Map {
	var stub func(...any) (any, error)

	fn := types.TypeOf(stub)
	env := make(types.Map, len(p.idents)+len(p.funcs)+1)
	ns := make(types.Map, len(p.funcs))

	for id := range p.idents {
		env[id] = types.Any
	}

	for name := range p.funcs {
		env[name] = fn
		ns[name] = fn
	}

	env[namespace] = ns

	return env
}

func (p *Program) runEnv(values map[string]Value) (map[string]any, error) {
	env := make(map[string]any, len(p.idents)+len(p.funcs)+1)

	for _, ref := range p.refs {
		if _, ok := values[ref]; !ok {
			return nil, lang.Errorf(lang.ValueNotFound, "%q", "$"+ref).
				With(slog.String("source", p.source))
		}
	}

	for id, key := range p.idents {
		env[id] = values[key].Native()
	}

	p.bindFunctions(env, values)

	return env, nil
}

// bindFunctions adds every function to env, both at top level and as a
// member of the namespace map, bound to values.
func (p *Program) bindFunctions(env map[string]any, values map[string]Value) {
	ns := make(map[string]any, len(p.funcs))

	for name, fn := range p.funcs {
		f := bind(fn, values)
		env[name] = f
		ns[name] = f
	}

	env[namespace] = ns
}

func bind(fn Function, values map[string]Value) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		in := make([]Value, len(args))

		for i, a := range args {
			v, err := FromNative(a)
			if err != nil {
				return nil, err
			}

			in[i] = v
		}

		out, err := fn(values, in...)
		if err != nil {
			return nil, err
		}

		return out.Native(), nil
	}
}

func runError(err error, source string) *lang.Error {
	var le *lang.Error
	if errors.As(err, &le) {
		return le.With(slog.String("source", source))
	}

	return lang.NewError(lang.EvalError, "cannot evaluate expression").
		Wrap(err).
		With(slog.String("source", source))
}
