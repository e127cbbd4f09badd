package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Request is a processor definition waiting for its value.
type Request struct {
	*interp.StuckOnProcessor

	// Dir is the directory of the document holding the definition. Relative
	// file names are read from it.
	Dir string
}

// Header returns the value of the definition header called key.
func (r Request) Header(key string) (string, bool) {
	h, ok := r.Meta.Get(key)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(h.Value), true
}

// File returns the path named by the "file" header.
func (r Request) File() (string, error) {
	name, ok := r.Header("file")
	if !ok || name == "" {
		return "", lang.Errorf(lang.ValueNotFound,
			"processor %q needs a %q header", r.Processor, "file")
	}

	if filepath.IsAbs(name) {
		return name, nil
	}

	return filepath.Join(r.Dir, filepath.FromSlash(name)), nil
}

// Processor computes the value of a "$processor$" definition. The result
// is a native Go value converted to the declared kind by the interpreter.
type Processor func(ctx context.Context, req Request) (any, error)

// Provider returns the value of a variable of a foreign module.
type Provider func(ctx context.Context, name string) (any, error)

// Env reads an environment variable. The "name" header names it, else the
// variable name is upper-cased with hyphens replaced by underscores. A
// "default" header is used when the variable is not set.
func Env(lookup func(string) (string, bool)) Processor {
	return func(_ context.Context, req Request) (any, error) {
		name, ok := req.Header("name")
		if !ok {
			_, v := types.SplitName(req.Variable)
			name = strings.ToUpper(strings.ReplaceAll(v, "-", "_"))
		}

		if v, ok := lookup(name); ok {
			return v, nil
		}

		if def, ok := req.Header("default"); ok {
			return def, nil
		}

		return nil, lang.Errorf(lang.ValueNotFound,
			"environment variable %q is not set", name)
	}
}

// EnvProvider answers variables of a foreign module from the environment.
// The variable "home" reads HOME.
func EnvProvider(lookup func(string) (string, bool)) Provider {
	return func(_ context.Context, name string) (any, error) {
		key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if v, ok := lookup(key); ok {
			return v, nil
		}

		return nil, lang.Errorf(lang.ValueNotFound,
			"environment variable %q is not set", key)
	}
}

// File reads the file named by the "file" header as a string.
func (h *Host) File(ctx context.Context, req Request) (any, error) {
	path, err := req.File()
	if err != nil {
		return nil, err
	}

	return h.ReadFile(ctx, path)
}

// YAML decodes the file named by the "file" header. A "key" header selects
// a value by its dotted path below the document root.
func (h *Host) YAML(ctx context.Context, req Request) (any, error) {
	path, err := req.File()
	if err != nil {
		return nil, err
	}

	text, err := h.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, lang.NewError(lang.ParseError, "invalid YAML").
			Wrap(err).With(log.Path(path))
	}

	key, ok := req.Header("key")
	if !ok || key == "" {
		return v, nil
	}

	for _, k := range strings.Split(key, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, lang.Errorf(lang.ValueNotFound,
				"%q has no key %q", path, key)
		}

		if v, ok = m[k]; !ok {
			return nil, lang.Errorf(lang.ValueNotFound,
				"%q has no key %q", path, key)
		}
	}

	return v, nil
}

func lookupEnv(name string) (string, bool) { return os.LookupEnv(name) }
