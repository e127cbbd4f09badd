package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang"
)

const testLib = "-- integer base: 10\n"

const testIndex = `-- import: lib
exposing: base

-- integer $count: 1

-- ftd.integer: $count
id: counter
$on-click$: $ftd.increment($a=$count)

-- ftd.text: Total
`

// workspace writes index.ftd and lib.ftd to a new directory and returns the
// path of index.ftd and a context that writes to out and searches the
// directory.
func workspace(t *testing.T, out *bytes.Buffer) (string, context.Context) {
	t.Helper()

	dir := t.TempDir()

	for name, text := range map[string]string{"index.ftd": testIndex, "lib.ftd": testLib} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ctx := WithOutput(t.Context(), out)
	ctx = WithSearchPath(ctx, []string{dir})

	return filepath.Join(dir, "index.ftd"), ctx
}

func TestContextValues(t *testing.T) {
	ctx := t.Context()

	if outputFrom(ctx) != os.Stdout {
		t.Errorf("default output is not stdout")
	}

	if searchPathFrom(ctx) != nil || envModuleFrom(ctx) != "" || kongContextFrom(ctx) != nil {
		t.Errorf("empty context holds values")
	}

	var buf bytes.Buffer

	ctx = WithOutput(ctx, &buf)
	ctx = WithSearchPath(ctx, []string{"a", "b"})
	ctx = WithEnvModule(ctx, "env")

	if outputFrom(ctx) != &buf {
		t.Errorf("output not stored")
	}

	if got := searchPathFrom(ctx); len(got) != 2 || got[1] != "b" {
		t.Errorf("search path = %v", got)
	}

	if got := envModuleFrom(ctx); got != "env" {
		t.Errorf("env module = %q", got)
	}
}

func TestLoad(t *testing.T) {
	var out bytes.Buffer

	index, ctx := workspace(t, &out)

	t.Run("file", func(t *testing.T) {
		h := newHost(ctx, index)

		module, source, err := load(ctx, h, index)
		if err != nil {
			t.Fatalf("load error: %v", err)
		}

		if module != "index" || source != testIndex {
			t.Errorf("load = %q, %q", module, source)
		}
	})

	t.Run("module", func(t *testing.T) {
		h := newHost(ctx, "lib")

		module, source, err := load(ctx, h, "lib")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}

		if module != "lib" || source != testLib {
			t.Errorf("load = %q, %q", module, source)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, _, err := load(ctx, newHost(ctx, "nothing"), "nothing"); err == nil {
			t.Errorf("load of a missing module succeeded")
		}
	})
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		cmd  Run
		want []string
	}{
		{
			name: "tree",
			cmd:  Run{Format: formatTree},
			want: []string{"integer", "#counter", "on-click", "text"},
		},
		{
			name: "yaml",
			cmd:  Run{Format: formatYAML},
			want: []string{"counter", "Total"},
		},
		{
			name: "json bag",
			cmd:  Run{Format: formatJSON, Bag: true},
			want: []string{`"bag"`, `"elements"`, `"index#count"`},
		},
		{
			name: "fire",
			cmd:  Run{Format: formatYAML, Fire: []string{"counter:click", "0:click"}},
			want: []string{"3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			index, ctx := workspace(t, &out)

			tt.cmd.Source = index
			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatalf("run error: %v", err)
			}

			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRun_Fire(t *testing.T) {
	var out bytes.Buffer

	index, ctx := workspace(t, &out)

	cmd := Run{Format: formatYAML, Fire: []string{"counter:click", "counter:click"}, Source: index}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("run error: %v", err)
	}

	var tree struct {
		Elements []map[string]any `yaml:"elements"`
	}

	if err := yaml.Unmarshal(out.Bytes(), &tree); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, out.String())
	}

	if len(tree.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(tree.Elements))
	}

	if !strings.Contains(out.String(), "3") {
		t.Errorf("counter not incremented twice:\n%s", out.String())
	}

	errs := []struct {
		fire string
		want error
	}{
		{fire: "counter", want: ErrInvalidEvent},
		{fire: ":click", want: ErrInvalidEvent},
		{fire: "nowhere:click", want: lang.ErrValueNotFound},
		{fire: "1:click", want: lang.ErrValueNotFound},
	}

	for _, tt := range errs {
		t.Run(tt.fire, func(t *testing.T) {
			cmd := Run{Format: formatYAML, Fire: []string{tt.fire}, Source: index}
			if err := cmd.Run(ctx); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer

	index, ctx := workspace(t, &out)

	if err := (&Check{Source: index}).Run(ctx); err != nil {
		t.Fatalf("check error: %v", err)
	}

	if got, want := out.String(), "index: ok (1 definitions, 2 elements, 1 imports)\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	out.Reset()

	if err := (&Check{Bag: true, Source: index}).Run(ctx); err != nil {
		t.Fatalf("check error: %v", err)
	}

	if s := out.String(); !strings.Contains(s, "index#count") || strings.Contains(s, "lib#base") {
		t.Errorf("bag table of the root document:\n%s", s)
	}

	out.Reset()

	if err := (&Check{Bag: true, All: true, Source: index}).Run(ctx); err != nil {
		t.Fatalf("check error: %v", err)
	}

	for _, want := range []string{"index#count", "lib#base", "ftd#increment", "NAME"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("full bag table missing %q", want)
		}
	}
}

func TestCheck_Invalid(t *testing.T) {
	var out bytes.Buffer

	_, ctx := workspace(t, &out)

	bad := filepath.Join(t.TempDir(), "bad.ftd")
	if err := os.WriteFile(bad, []byte("-- integer x: $missing\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := (&Check{Source: bad}).Run(ctx)

	var le *lang.Error
	if !errors.As(err, &le) || !errors.Is(err, lang.ErrValueNotFound) {
		t.Errorf("error = %v, want a value-not-found diagnostic", err)
	}
}

func TestParse(t *testing.T) {
	var out bytes.Buffer

	index, ctx := workspace(t, &out)

	if err := (&Parse{Format: formatYAML, Source: index}).Run(ctx); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	for _, want := range []string{"import", "ftd.integer", "counter"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("sections missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()

	if err := (&AST{Format: formatJSON, Source: index}).Run(ctx); err != nil {
		t.Fatalf("ast error: %v", err)
	}

	var decls []map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &decls); err != nil {
		t.Fatalf("ast output is not json: %v", err)
	}

	if len(decls) != 4 {
		t.Errorf("declarations = %d, want 4:\n%s", len(decls), out.String())
	}

	if err := encode(ctx, "toml", decls); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("encode error = %v, want %v", err, ErrInvalidFormat)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer

	if err := (&Version{}).Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out.String(), "ftd ") {
		t.Errorf("version = %q", out.String())
	}
}
