package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/ftd/lang/host"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	searchPathKey struct{}
	envModuleKey  struct{}
	outputKey     struct{}
)

// WithSearchPath returns a new context.Context holding the directories
// searched for imported modules.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// WithEnvModule returns a new context.Context naming the foreign module whose
// variables are read from the environment. An empty name registers none.
func WithEnvModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, envModuleKey{}, module)
}

func envModuleFrom(ctx context.Context) string {
	m, _ := ctx.Value(envModuleKey{}).(string)

	return m
}

// WithOutput returns a new context.Context whose commands write to w instead
// of os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinModule is the module name of a document read from stdin.
const stdinModule = "main"

// isFile reports whether target names a regular file.
func isFile(target string) bool {
	fi, err := os.Stat(target)

	return err == nil && fi.Mode().IsRegular()
}

// newHost returns a host over the search path in ctx. When target is a file,
// its directory is searched first.
func newHost(ctx context.Context, target string) *host.Host {
	dirs := searchPathFrom(ctx)
	if target != stdinSource && isFile(target) {
		dirs = append([]string{filepath.Dir(target)}, dirs...)
	}

	opts := []host.Option{
		host.WithLogger(log.Default()),
		host.WithSearchPath(dirs...),
	}

	if m := envModuleFrom(ctx); m != "" {
		opts = append(opts, host.WithProvider(m, host.EnvProvider(os.LookupEnv)))
	}

	return host.New(opts...)
}

// load returns the module name and source text of target: "-" for stdin, a
// file path, or a module name on the search path.
func load(ctx context.Context, h *host.Host, target string) (module, source string, err error) {
	switch {
	case target == stdinSource:
		data, err := readStdin()
		if err != nil {
			return "", "", ErrReadSource.Wrap(err)
		}

		return stdinModule, data, nil

	case isFile(target):
		source, err = h.ReadFile(ctx, target)
		if err != nil {
			return "", "", err
		}

		return host.ModuleName(target, h.Paths()), source, nil

	default:
		source, _, err = h.Load(ctx, target)

		return target, source, err
	}
}

// interpret runs the document named by target to completion.
func interpret(ctx context.Context, h *host.Host, target string) (*interp.Document, error) {
	switch {
	case target == stdinSource:
		source, err := readStdin()
		if err != nil {
			return nil, ErrReadSource.Wrap(err)
		}

		return h.Interpret(ctx, stdinModule, source)

	case isFile(target):
		return h.RunFile(ctx, target)

	default:
		return h.Run(ctx, target)
	}
}

func readStdin() (string, error) {
	ra := readahead.NewReader(os.Stdin)
	defer ra.Close()

	data, err := io.ReadAll(ra)

	return string(data), err
}
