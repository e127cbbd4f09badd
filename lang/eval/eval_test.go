package eval

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ardnew/ftd/lang"
)

func TestCompile_References(t *testing.T) {
	p, err := New().Compile(`$a.b == 1 && $c-d || $a.b == "$quoted"`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if diff := cmp.Diff([]string{"a.b", "c-d"}, p.References()); diff != "" {
		t.Errorf("References() mismatch (-want +got):\n%s", diff)
	}
}

func TestProgram_Run(t *testing.T) {
	tests := []struct {
		name   string
		source string
		locals []string
		values map[string]Value
		want   Value
	}{
		{
			name:   "arithmetic",
			source: "1 + 2",
			want:   Integer(3),
		},
		{
			name:   "reference comparison",
			source: "$x > 3",
			values: map[string]Value{"x": Integer(5)},
			want:   Boolean(true),
		},
		{
			name:   "string concatenation",
			source: `$name + "!"`,
			values: map[string]Value{"name": String("hi")},
			want:   String("hi!"),
		},
		{
			name:   "hyphenated local",
			source: "is-open && !$flag",
			locals: []string{"is-open"},
			values: map[string]Value{
				"is-open": Boolean(true),
				"flag":    Boolean(false),
			},
			want: Boolean(true),
		},
		{
			name:   "subtraction of locals",
			source: "a-b",
			locals: []string{"a", "b"},
			values: map[string]Value{"a": Integer(5), "b": Integer(2)},
			want:   Integer(3),
		},
		{
			name:   "negated hyphenated local",
			source: "!is-open",
			locals: []string{"is-open"},
			values: map[string]Value{"is-open": Boolean(true)},
			want:   Boolean(false),
		},
		{
			name:   "hyphenated local between products",
			source: "2 * item-count * 3",
			locals: []string{"item-count"},
			values: map[string]Value{"item-count": Integer(2)},
			want:   Integer(12),
		},
		{
			name:   "hyphenated local after subtraction",
			source: "total - item-count",
			locals: []string{"total", "item-count"},
			values: map[string]Value{"total": Integer(10), "item-count": Integer(3)},
			want:   Integer(7),
		},
		{
			name:   "decimal",
			source: "2.5 * 2",
			want:   Decimal(5),
		},
		{
			name:   "tuple",
			source: "[1, 2]",
			want:   Tuple(Integer(1), Integer(2)),
		},
		{
			name:   "separator inside string",
			source: `"a;b" + "c"`,
			want:   String("a;bc"),
		},
		{
			name:   "empty operand",
			source: "$opt == nil",
			values: map[string]Value{"opt": Empty()},
			want:   Boolean(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New().Compile(tt.source, tt.locals...)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			values := tt.values
			if values == nil {
				values = map[string]Value{}
			}

			got, err := p.Run(t.Context(), values)
			if err != nil {
				t.Fatalf("run error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Run() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProgram_RunAssignments(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		locals  []string
		values  map[string]Value
		want    map[string]Value
		targets []string
	}{
		{
			name:    "toggle",
			source:  "a = !a",
			locals:  []string{"a"},
			values:  map[string]Value{"a": Boolean(false)},
			want:    map[string]Value{"a": Boolean(true)},
			targets: []string{"a"},
		},
		{
			name:    "increment by",
			source:  "a += v",
			locals:  []string{"a", "v"},
			values:  map[string]Value{"a": Integer(1), "v": Integer(2)},
			want:    map[string]Value{"a": Integer(3), "v": Integer(2)},
			targets: []string{"a"},
		},
		{
			name:    "statement sequence",
			source:  "a -= 1; a *= 3",
			locals:  []string{"a"},
			values:  map[string]Value{"a": Integer(5)},
			want:    map[string]Value{"a": Integer(12)},
			targets: []string{"a"},
		},
		{
			name:    "newline separated",
			source:  "a = 1\nb = a + 1",
			locals:  []string{"a", "b"},
			values:  map[string]Value{"a": Integer(0), "b": Integer(0)},
			want:    map[string]Value{"a": Integer(1), "b": Integer(2)},
			targets: []string{"a", "b"},
		},
		{
			name:    "reference target",
			source:  "$n = $n + 1",
			values:  map[string]Value{"n": Integer(0)},
			want:    map[string]Value{"n": Integer(1)},
			targets: []string{"n"},
		},
		{
			name:    "hyphenated target",
			source:  "is-open = !is-open",
			locals:  []string{"is-open"},
			values:  map[string]Value{"is-open": Boolean(true)},
			want:    map[string]Value{"is-open": Boolean(false)},
			targets: []string{"is-open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New().Compile(tt.source, tt.locals...)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			if diff := cmp.Diff(tt.targets, p.Targets()); diff != "" {
				t.Errorf("Targets() mismatch (-want +got):\n%s", diff)
			}

			if _, err := p.Run(t.Context(), tt.values); err != nil {
				t.Fatalf("run error: %v", err)
			}

			if diff := cmp.Diff(tt.want, tt.values); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		locals  []string
		wantMsg string
	}{
		{name: "empty", source: "  ", wantMsg: "empty expression"},
		{name: "syntax", source: "1 +", wantMsg: "cannot compile"},
		{name: "unknown target", source: "b = 1", locals: []string{"a"}, wantMsg: `cannot assign to "b"`},
		{name: "unknown name", source: "unknown_name", wantMsg: "cannot compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Compile(tt.source, tt.locals...)
			if err == nil {
				t.Fatal("expected error")
			}

			if !errors.Is(err, lang.ErrEval) {
				t.Errorf("expected eval error, got %v", err)
			}

			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestProgram_RunMissingReference(t *testing.T) {
	p, err := New().Compile("$x")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	_, err = p.Run(t.Context(), map[string]Value{})
	if !errors.Is(err, lang.ErrValueNotFound) {
		t.Errorf("expected value not found, got %v", err)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		values  map[string]Value
		want    Value
		wantErr bool
	}{
		{name: "is_empty string", source: `is_empty("")`, want: Boolean(true)},
		{name: "is_empty list", source: `is_empty([])`, want: Boolean(true)},
		{
			name:   "namespaced is-empty",
			source: "ftd.is-empty($s)",
			values: map[string]Value{"s": String("x")},
			want:   Boolean(false),
		},
		{
			name:   "is_empty none",
			source: "ftd.is_empty($s)",
			values: map[string]Value{"s": Empty()},
			want:   Boolean(true),
		},
		{name: "hyphenated is-empty", source: `!is-empty("x")`, want: Boolean(true)},
		{name: "is_empty integer", source: "is_empty(1)", wantErr: true},
		{name: "append", source: "append([1], 2)", want: Tuple(Integer(1), Integer(2))},
		{name: "append to string", source: `append("x", 1)`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := tt.values
			if values == nil {
				values = map[string]Value{}
			}

			p, err := New().Compile(tt.source)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			got, err := p.Run(t.Context(), values)
			if tt.wantErr {
				if !errors.Is(err, lang.ErrEval) {
					t.Errorf("expected eval error, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("run error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Run() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModeFunctions(t *testing.T) {
	tests := []struct {
		source string
		system bool
		dark   bool
		follow bool
	}{
		{source: "enable-dark-mode()", dark: true},
		{source: "ftd.enable-light-mode()"},
		{source: "ftd.enable_system_mode()", system: true, dark: true, follow: true},
		{source: "enable-system-mode()", follow: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			values := map[string]Value{
				DarkModeKey:       Boolean(!tt.dark),
				SystemDarkModeKey: Boolean(tt.system),
			}

			if _, err := New().Eval(t.Context(), tt.source, values); err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if got := values[DarkModeKey].Truthy(); got != tt.dark {
				t.Errorf("dark mode = %v, want %v", got, tt.dark)
			}

			if got := values[FollowSystemModeKey].Truthy(); got != tt.follow {
				t.Errorf("follow system = %v, want %v", got, tt.follow)
			}
		})
	}
}

func TestEvaluator_Register(t *testing.T) {
	var copied []string

	e := New(WithFunction("copy-to-clipboard",
		func(_ map[string]Value, args ...Value) (Value, error) {
			for _, a := range args {
				copied = append(copied, a.Str)
			}

			return Empty(), nil
		}))

	if !strings.Contains(strings.Join(e.Functions(), ","), "copy_to_clipboard") {
		t.Fatalf("Functions() = %v, missing copy_to_clipboard", e.Functions())
	}

	values := map[string]Value{"t": String("x")}
	if _, err := e.Eval(t.Context(), "ftd.copy-to-clipboard($t)", values); err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if diff := cmp.Diff([]string{"x"}, copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}

	if strings.Contains(strings.Join(New().Functions(), ","), "copy_to_clipboard") {
		t.Error("registration leaked into a new evaluator")
	}
}

func TestCompile_HyphenatedNames(t *testing.T) {
	text := func(_ map[string]Value, args ...Value) (Value, error) {
		return String(args[0].String()), nil
	}

	tests := []struct {
		name   string
		source string
		values map[string]Value
		want   Value
	}{
		{name: "name ending in a builtin", source: "to-string(7)", want: String("7")},
		{name: "namespaced", source: `ftd.to-string(7) + "!"`, want: String("7!")},
		{
			name:   "unknown chain stays subtraction",
			source: "to - str",
			values: map[string]Value{"to": Integer(3), "str": Integer(1)},
			want:   Integer(2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := tt.values
			if values == nil {
				values = map[string]Value{}
			}

			got, err := New(WithFunction("to-string", text)).Eval(t.Context(), tt.source, values)
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Eval() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{src: "a = 1", want: []string{"a = 1"}},
		{src: "a = 1; b = 2", want: []string{"a = 1", "b = 2"}},
		{src: "a = 1\n\n  b = 2\n", want: []string{"a = 1", "b = 2"}},
		{src: `a = "x;y"`, want: []string{`a = "x;y"`}},
		{src: "f(a;\nb); c", want: []string{"f(a;\nb)", "c"}},
		{src: " ; ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Split(tt.src)); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssignment(t *testing.T) {
	tests := []struct {
		stmt   string
		target string
		op     string
		rhs    string
		ok     bool
	}{
		{stmt: "a = !a", target: "a", op: "=", rhs: "!a", ok: true},
		{stmt: "a += 1", target: "a", op: "+=", rhs: "1", ok: true},
		{stmt: "a /= 2", target: "a", op: "/=", rhs: "2", ok: true},
		{stmt: "x = y == z", target: "x", op: "=", rhs: "y == z", ok: true},
		{stmt: "a == b"},
		{stmt: "a <= b"},
		{stmt: "a != b"},
		{stmt: "f(a = 1)"},
		{stmt: `"a" = b`},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			target, op, rhs, ok := assignment(tt.stmt)
			if ok != tt.ok || target != tt.target || op != tt.op || rhs != tt.rhs {
				t.Errorf("assignment(%q) = (%q, %q, %q, %v), want (%q, %q, %q, %v)",
					tt.stmt, target, op, rhs, ok, tt.target, tt.op, tt.rhs, tt.ok)
			}
		})
	}
}

func TestEvaluator_Cached(t *testing.T) {
	e := New()

	p1, err := e.Cached("a + 1", "a")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	p2, _ := e.Cached("a + 1", "a")
	if p1 != p2 {
		t.Error("expected the cached program")
	}

	p3, _ := e.Cached("a + 1", "a", "b")
	if p1 == p3 {
		t.Error("different locals must not share a program")
	}

	if _, err := e.Cached("1 +"); !errors.Is(err, lang.ErrEval) {
		t.Errorf("expected eval error, got %v", err)
	}
}
