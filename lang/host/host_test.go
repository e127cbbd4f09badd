package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// tree writes files below a new temporary directory and returns it.
func tree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir error: %v", err)
		}

		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatalf("write error: %v", err)
		}
	}

	return dir
}

func TestSearchPath(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	missing := filepath.Join(a, "missing")

	got := SearchPath([]string{a, missing}, b+string(os.PathListSeparator)+a)

	if diff := cmp.Diff([]string{a, b}, got); diff != "" {
		t.Errorf("search path mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleName(t *testing.T) {
	root := tree(t, map[string]string{
		"main.ftd":        "",
		"lib/util.ftd":    "",
		"pages/index.ftd": "",
	})
	outside := tree(t, map[string]string{"x.ftd": ""})

	tests := []struct {
		path string
		want string
	}{
		{path: filepath.Join(root, "main.ftd"), want: "main"},
		{path: filepath.Join(root, "lib", "util.ftd"), want: "lib/util"},
		{path: filepath.Join(root, "pages", "index.ftd"), want: "pages"},
		{path: filepath.Join(outside, "x.ftd"), want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ModuleName(tt.path, []string{root}); got != tt.want {
				t.Errorf("ModuleName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHost_Run(t *testing.T) {
	root := tree(t, map[string]string{
		"main.ftd":        "-- import: lib/util\n\n-- import: theme\nexposing: accent\n\n-- ftd.text: $util.title\ncolor: $accent\n",
		"lib/util.ftd":    "-- string title: Hello\n",
		"theme/index.ftd": "-- ftd.color accent: red\n",
	})

	h := New(WithSearchPath(root))

	doc, err := h.RunFile(t.Context(), filepath.Join(root, "main.ftd"))
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if doc.Name != "main" {
		t.Errorf("document name = %q, want main", doc.Name)
	}

	if got := doc.Tree.Elements[0].Text("text"); got != "Hello" {
		t.Errorf("text = %q, want Hello", got)
	}

	for _, name := range []string{"lib/util#title", "theme#accent"} {
		if !doc.Bag.Has(name) {
			t.Errorf("bag has no %q", name)
		}
	}

	n := h.Cache().Len()

	if _, err := h.Run(t.Context(), "main"); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	if got := h.Cache().Len(); got != n {
		t.Errorf("cache grew from %d to %d on an unchanged run", n, got)
	}
}

func TestHost_Errors(t *testing.T) {
	root := tree(t, map[string]string{
		"main.ftd": "-- integer x: 1\n\n-- import: nowhere\n",
		"proc.ftd": "-- string s:\n$processor$: nothing\n",
	})

	tests := []struct {
		module string
		want   error
		line   int
	}{
		{module: "main", want: lang.ErrValueNotFound, line: 3},
		{module: "../main", want: lang.ErrForbiddenUsage},
		{module: "proc", want: lang.ErrValueNotFound, line: 1},
		{module: "missing", want: lang.ErrValueNotFound},
	}

	h := New(WithSearchPath(root))

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			_, err := h.Run(t.Context(), tt.module)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var le *lang.Error
			if errors.As(err, &le) && le.Line() != tt.line {
				t.Errorf("error line = %d, want %d", le.Line(), tt.line)
			}
		})
	}
}

func TestHost_Processors(t *testing.T) {
	root := tree(t, map[string]string{
		"data/points.yaml": "origin:\n  x: 3\n  y: 4\nnames:\n  - a\n  - b\n",
		"data/note.txt":    "remember",
		"main.ftd": `-- record point:
integer x:
integer y:

-- point p:
$processor$: yaml
file: data/points.yaml
key: origin

-- list string names:
$processor$: yaml
file: data/points.yaml
key: names

-- string note:
$processor$: file
file: data/note.txt

-- string user:
$processor$: env
name: FTD_TEST_USER

-- string shell:
$processor$: env
default: sh
`,
	})

	env := map[string]string{"FTD_TEST_USER": "ardnew"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]

		return v, ok
	}

	h := New(WithSearchPath(root), WithProcessor("env", Env(lookup)))

	doc, err := h.Run(t.Context(), "main")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	value := func(name string) types.Value {
		v, ok := doc.Bag.Variable("main#" + name)
		if !ok {
			t.Fatalf("no variable %q", name)
		}

		return v.Value.Value
	}

	p := value("p").(types.RecordValue)
	for name, want := range map[string]int64{"x": 3, "y": 4} {
		if f, _ := p.Field(name); f.Value != (types.Integer{Int: want}) {
			t.Errorf("p.%s = %v, want %d", name, f.Value, want)
		}
	}

	var names []string
	for _, it := range value("names").(types.List).Items {
		names = append(names, types.Text(it.Value))
	}

	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	for name, want := range map[string]string{
		"note":  "remember",
		"user":  "ardnew",
		"shell": "sh",
	} {
		if got := value(name); got != (types.String{Text: want}) {
			t.Errorf("%s = %v, want %q", name, got, want)
		}
	}
}

func TestHost_Provider(t *testing.T) {
	calls := 0

	h := New(WithProvider("env", func(_ context.Context, name string) (any, error) {
		calls++

		return "/home/" + name, nil
	}))

	doc, err := h.Interpret(t.Context(), "main",
		"-- import: env\n\n-- string a: $env.user\n\n-- string b: $env.user\n")
	if err != nil {
		t.Fatalf("interpret error: %v", err)
	}

	v, _ := doc.Bag.Variable("main#b")
	if v.Value.Value != (types.String{Text: "/home/user"}) {
		t.Errorf("b = %v", v.Value.Value)
	}

	if calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestCache(t *testing.T) {
	var c Cache

	a, err := c.Parse(t.Context(), "m", "-- integer x: 1\n", log.Discard())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	b, _ := c.Parse(t.Context(), "m", "-- integer x: 1\n", log.Discard())
	if &a[0] != &b[0] {
		t.Errorf("second parse did not hit the cache")
	}

	if _, err := c.Parse(t.Context(), "n", "-- integer x: 1\n", log.Discard()); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if _, err := c.Parse(t.Context(), "m", "-- integer x\n", log.Discard()); !errors.Is(err, lang.ErrParse) {
		t.Errorf("error = %v, want parse error", err)
	}

	if c.Len() != 3 {
		t.Errorf("cache holds %d entries, want 3", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("cache holds %d entries after clear", c.Len())
	}
}
