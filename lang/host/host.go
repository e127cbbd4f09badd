package host

import (
	"context"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Host answers the suspensions of interpretations from the file system and
// registered providers. A Host may run several interpretations, one at a
// time or concurrently; its configuration must not change while it does.
type Host struct {
	logger     log.Logger
	paths      []string
	cache      *Cache
	processors map[string]Processor
	providers  map[string]Provider
	functions  map[string]eval.Function
}

// Option configures a [Host].
type Option func(*Host)

// WithLogger sets the logger used by the host and the interpreters it runs.
func WithLogger(logger log.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithSearchPath sets the directories searched for imported modules, in
// order. See [SearchPath].
func WithSearchPath(dirs ...string) Option {
	return func(h *Host) { h.paths = dirs }
}

// WithCache shares a parse cache between hosts.
func WithCache(c *Cache) Option {
	return func(h *Host) { h.cache = c }
}

// WithProcessor registers the processor called name, replacing any
// processor registered before under the same name.
func WithProcessor(name string, p Processor) Option {
	return func(h *Host) { h.processors[name] = p }
}

// WithProvider declares module foreign and answers reads of its variables
// with p.
func WithProvider(module string, p Provider) Option {
	return func(h *Host) { h.providers[module] = p }
}

// WithFunction registers an expression function for every interpretation.
func WithFunction(name string, fn eval.Function) Option {
	return func(h *Host) { h.functions[name] = fn }
}

// New returns a host searching the current directory, with the "env",
// "file", and "yaml" processors registered.
func New(opts ...Option) *Host {
	h := &Host{
		paths:      []string{"."},
		processors: map[string]Processor{},
		providers:  map[string]Provider{},
		functions:  map[string]eval.Function{},
	}

	h.processors["env"] = Env(lookupEnv)
	h.processors["file"] = h.File
	h.processors["yaml"] = h.YAML

	for _, opt := range opts {
		opt(h)
	}

	if h.cache == nil {
		h.cache = new(Cache)
	}

	return h
}

// Paths returns the search path.
func (h *Host) Paths() []string { return slices.Clone(h.paths) }

// Cache returns the parse cache.
func (h *Host) Cache() *Cache { return h.cache }

// Processors returns the names of the registered processors, sorted.
func (h *Host) Processors() []string {
	return slices.Sorted(maps.Keys(h.processors))
}

// Load returns the source text and path of the document defining module.
func (h *Host) Load(ctx context.Context, module string) (string, string, error) {
	path, err := h.resolve(module)
	if err != nil {
		return "", "", err
	}

	source, err := h.ReadFile(ctx, path)
	if err != nil {
		return "", "", err
	}

	return source, path, nil
}

// Parse returns the declarations of module through the parse cache.
func (h *Host) Parse(ctx context.Context, module, source string) ([]ast.Ast, error) {
	return h.cache.Parse(ctx, module, source, h.logger)
}

// Interpreter returns an interpreter configured with the host's parse
// cache, foreign modules, and functions, for hosts driving it themselves.
func (h *Host) Interpreter() *interp.Interpreter {
	opts := []interp.Option{
		interp.WithLogger(h.logger),
		interp.WithParser(h.Parse),
	}

	for _, m := range slices.Sorted(maps.Keys(h.providers)) {
		opts = append(opts, interp.WithForeignModule(m))
	}

	for _, name := range slices.Sorted(maps.Keys(h.functions)) {
		opts = append(opts, interp.WithFunction(name, h.functions[name]))
	}

	return interp.New(opts...)
}

// Run interprets the document of module found on the search path.
func (h *Host) Run(ctx context.Context, module string) (*interp.Document, error) {
	source, path, err := h.Load(ctx, module)
	if err != nil {
		return nil, err
	}

	return h.interpret(ctx, module, source, map[string]string{module: path})
}

// RunFile interprets the document at path. Its module name is given by
// [ModuleName].
func (h *Host) RunFile(ctx context.Context, path string) (*interp.Document, error) {
	source, err := h.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	module := ModuleName(path, h.paths)

	return h.interpret(ctx, module, source, map[string]string{module: path})
}

// Interpret interprets source as the document called name. Relative files
// named by its processors are read from the current directory.
func (h *Host) Interpret(ctx context.Context, name, source string) (*interp.Document, error) {
	return h.interpret(ctx, name, source, map[string]string{})
}

func (h *Host) interpret(
	ctx context.Context,
	name, source string,
	files map[string]string,
) (*interp.Document, error) {
	x := h.Interpreter()

	h.logger.DebugContext(ctx, "run", log.Doc(name))

	st, err := x.Interpret(ctx, name, source)

	for steps := 0; err == nil; steps++ {
		h.logger.TraceContext(ctx, "suspend",
			log.State(st.Name()),
			slog.Int("step", steps))

		switch s := st.(type) {
		case *interp.Done:
			h.logger.DebugContext(ctx, "done",
				log.Doc(name),
				slog.Int("things", s.Document.Bag.Len()),
				slog.Int("steps", steps))

			return s.Document, nil

		case *interp.StuckOnImport:
			var text, path string

			text, path, err = h.Load(ctx, s.Module)
			if err != nil {
				err = lang.Locate(err, s.Importer, s.Line)

				break
			}

			files[s.Module] = path
			st, err = x.ContinueAfterImport(ctx, s.Module, text)

		case *interp.StuckOnProcessor:
			var v any

			v, err = h.process(ctx, s, files)
			if err != nil {
				err = lang.Locate(err, s.Doc, s.Line)

				break
			}

			st, err = x.ContinueAfterProcessor(ctx, v)

		case *interp.StuckOnForeignVariable:
			var v any

			v, err = h.provide(ctx, s)
			if err != nil {
				err = lang.Locate(err, s.Doc, s.Line)

				break
			}

			st, err = x.ContinueAfterVariable(ctx, s.Variable, v)

		default:
			err = lang.Errorf(lang.OtherError, "unknown state %q", st.Name())
		}
	}

	h.logger.DebugContext(ctx, "failed", log.Doc(name), log.Err(err))

	return nil, err
}

func (h *Host) process(
	ctx context.Context,
	s *interp.StuckOnProcessor,
	files map[string]string,
) (any, error) {
	p, ok := h.processors[s.Processor]
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound, "unknown processor %q", s.Processor).
			With(slog.Any("processors", h.Processors()))
	}

	dir := "."
	if path, ok := files[s.Doc]; ok {
		dir = filepath.Dir(path)
	}

	h.logger.TraceContext(ctx, "process",
		log.Name(s.Variable),
		log.Kind(s.Processor),
		log.Path(dir))

	return p(ctx, Request{StuckOnProcessor: s, Dir: dir})
}

func (h *Host) provide(ctx context.Context, s *interp.StuckOnForeignVariable) (any, error) {
	p, ok := h.providers[s.Module]
	if !ok {
		return nil, lang.Errorf(lang.ValueNotFound,
			"no provider for foreign module %q", s.Module)
	}

	_, name := types.SplitName(s.Variable)

	h.logger.TraceContext(ctx, "provide", log.Module(s.Module), log.Name(name))

	return p(ctx, name)
}
