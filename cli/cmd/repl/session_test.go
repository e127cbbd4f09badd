package repl

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/exec"
)

func TestSession_Evaluate(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		src  string
		want string
	}{
		{src: "$p.x + $p.y", want: "7"},
		{src: "$base * $n", want: "10"},
		{src: "$lib.limit", want: "99"},
		{src: "is_empty(\"\")", want: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := s.evaluate(t.Context(), tt.src)
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestSession_List(t *testing.T) {
	s := newSession(t)

	out := s.list("p")

	for _, want := range []string{"  point", "  p "} {
		if !strings.Contains(out, want) {
			t.Errorf("list(p) = %q, missing %q", out, want)
		}
	}

	if strings.Contains(out, "main#") {
		t.Errorf("list shows qualified names of the root document:\n%s", out)
	}

	if out := s.list("lib#"); !strings.Contains(out, "lib#limit") {
		t.Errorf("list(lib#) = %q, missing lib#limit", out)
	}
}

func TestSession_Show(t *testing.T) {
	s := newSession(t)

	out, err := s.show("n")
	if err != nil {
		t.Fatalf("show error: %v", err)
	}

	for _, want := range []string{"main#n", "form: variable", "mutable: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("show(n) missing %q:\n%s", want, out)
		}
	}

	if _, err := s.show("nothing"); !errors.Is(err, lang.ErrValueNotFound) {
		t.Errorf("show(nothing) error = %v, want value not found", err)
	}
}

func TestSession_Fire(t *testing.T) {
	s := newSession(t)

	for _, ref := range []string{"counter", "0"} {
		if err := s.fire(t.Context(), ref, "click"); err != nil {
			t.Fatalf("fire %s error: %v", ref, err)
		}
	}

	if got, _ := s.evaluate(t.Context(), "$n"); got != "3" {
		t.Errorf("n = %s after two clicks, want 3", got)
	}

	if got := s.tree.Elements[0].Text("value"); got != "3" {
		t.Errorf("rendered value = %q, want 3", got)
	}

	if err := s.fire(t.Context(), "nowhere", "click"); !errors.Is(err, ErrNoElement) {
		t.Errorf("fire(nowhere) error = %v, want %v", err, ErrNoElement)
	}

	if err := s.fire(t.Context(), "1", "click"); !errors.Is(err, lang.ErrValueNotFound) {
		t.Errorf("fire on unbound event error = %v, want value not found", err)
	}

	if err := s.reload(t.Context()); err != nil {
		t.Fatalf("reload error: %v", err)
	}

	if got, _ := s.evaluate(t.Context(), "$n"); got != "1" {
		t.Errorf("n = %s after reload, want 1", got)
	}
}

func TestSession_Call(t *testing.T) {
	s := newSession(t)

	if err := s.call(t.Context(), "ftd.increment-by", []string{"a=$n", "v=$base + 1"}); err != nil {
		t.Fatalf("call error: %v", err)
	}

	if got, _ := s.evaluate(t.Context(), "$n"); got != "12" {
		t.Errorf("n = %s, want 12", got)
	}

	tests := []struct {
		name string
		fn   string
		args []string
		want error
	}{
		{name: "undefined", fn: "nothing", want: lang.ErrValueNotFound},
		{name: "not a function", fn: "n", want: ErrNotFunction},
		{name: "malformed", fn: "ftd.increment", args: []string{"a"}, want: ErrUsage},
		{name: "unknown argument", fn: "ftd.increment", args: []string{"b=1"}, want: lang.ErrValueNotFound},
		{name: "missing argument", fn: "ftd.increment", want: lang.ErrValueNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.call(t.Context(), tt.fn, tt.args); !errors.Is(err, tt.want) {
				t.Errorf("call error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSession_ShowTree(t *testing.T) {
	s := newSession(t)

	if out := s.showTree(); !strings.Contains(out, "counter") {
		t.Errorf("yaml tree missing element id:\n%s", out)
	}

	s.render = func(*exec.Tree) string { return "drawn\n" }

	if out := s.showTree(); out != "drawn" {
		t.Errorf("showTree = %q, want the renderer's output", out)
	}
}
