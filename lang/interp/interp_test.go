package interp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/types"
)

// drive interprets main and answers imports from modules until done.
func drive(
	ctx context.Context,
	x *Interpreter,
	src string,
	modules map[string]string,
) (*Document, error) {
	st, err := x.Interpret(ctx, "main", src)

	for err == nil {
		switch s := st.(type) {
		case *Done:
			return s.Document, nil

		case *StuckOnImport:
			text, ok := modules[s.Module]
			if !ok {
				return nil, lang.Errorf(lang.ValueNotFound, "module %q", s.Module)
			}

			st, err = x.ContinueAfterImport(ctx, s.Module, text)

		default:
			return nil, lang.Errorf(lang.OtherError, "unexpected state %q", st.Name())
		}
	}

	return nil, err
}

func interpret(t *testing.T, src string, modules map[string]string) *Document {
	t.Helper()

	doc, err := drive(t.Context(), New(), src, modules)
	if err != nil {
		t.Fatalf("interpret error: %v", err)
	}

	return doc
}

func variable(t *testing.T, doc *Document, name string) *types.Variable {
	t.Helper()

	v, ok := doc.Bag.Variable(name)
	if !ok {
		t.Fatalf("variable %q not in bag", name)
	}

	return v
}

func TestInterpret_Scenarios(t *testing.T) {
	t.Run("reference folds to value", func(t *testing.T) {
		doc := interpret(t, "-- integer x: 5\n\n-- integer y: $x\n", nil)

		for _, name := range []string{"main#x", "main#y"} {
			v := variable(t, doc, name)

			if v.Value.Value != (types.Integer{Int: 5}) {
				t.Errorf("%s = %v, want 5", name, v.Value.Value)
			}

			if !v.Kind.Kind.Equal(types.IntegerKind) {
				t.Errorf("%s kind = %v, want integer", name, v.Kind)
			}
		}
	})

	t.Run("record value", func(t *testing.T) {
		doc := interpret(t, "-- record point:\ninteger x:\ninteger y:\n\n-- point p:\nx: 3\ny: 4\n", nil)

		r, ok := doc.Bag.Record("main#point")
		if !ok || len(r.Fields) != 2 {
			t.Fatalf("record main#point = %+v", r)
		}

		rv, ok := variable(t, doc, "main#p").Value.Value.(types.RecordValue)
		if !ok {
			t.Fatalf("main#p is not a record value")
		}

		for name, want := range map[string]int64{"x": 3, "y": 4} {
			f, _ := rv.Field(name)
			if f.Value != (types.Integer{Int: want}) {
				t.Errorf("p.%s = %v, want %d", name, f.Value, want)
			}
		}
	})

	t.Run("or-type constant", func(t *testing.T) {
		src := "-- or-type status:\n\n-- constant string ok: ok\n-- constant string err: err\n\n-- end: status\n\n-- status s: ok\n"
		doc := interpret(t, src, nil)

		ov, ok := variable(t, doc, "main#s").Value.Value.(types.OrTypeValue)
		if !ok {
			t.Fatalf("main#s is not an or-type value")
		}

		if ov.Variant != "ok" || ov.Value.Value != (types.String{Text: "ok"}) {
			t.Errorf("main#s = %s(%v), want ok(\"ok\")", ov.Variant, ov.Value.Value)
		}
	})

	t.Run("shared constant picks earlier variant", func(t *testing.T) {
		src := "-- or-type st:\n\n-- constant string a: x\n-- constant string b: x\n\n-- end: st\n\n-- st s: x\n"
		doc := interpret(t, src, nil)

		ov, ok := variable(t, doc, "main#s").Value.Value.(types.OrTypeValue)
		if !ok {
			t.Fatalf("main#s is not an or-type value")
		}

		if ov.Variant != "a" {
			t.Errorf("main#s variant = %q, want %q", ov.Variant, "a")
		}
	})

	t.Run("conditional attribute", func(t *testing.T) {
		src := "-- boolean $flag: false\n\n-- ftd.text Hello:\ncolor if $flag: red\ncolor: blue\n"
		doc := interpret(t, src, nil)

		el := doc.Tree.Elements[0]
		if el.Kind != exec.ElementText || el.Text("text") != "Hello" {
			t.Fatalf("element = %s %q", el.Kind, el.Text("text"))
		}

		want := []exec.ConditionalAttribute{{
			Name:    "color",
			Default: "blue",
			Conditions: []exec.ConditionalValue{{
				Condition:  "$flag",
				References: map[string]string{"flag": "main#flag"},
				Value:      "red",
			}},
		}}

		if diff := cmp.Diff(want, el.ConditionalAttributes); diff != "" {
			t.Errorf("conditional attributes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("component caption", func(t *testing.T) {
		src := "-- component greet:\ncaption name:\n\n-- ftd.text: Hello, $name\n\n-- greet: World\n"
		doc := interpret(t, src, nil)

		el := doc.Tree.Elements[0]
		if el.Kind != exec.ElementText || el.Name != "main#greet" {
			t.Fatalf("element = %s %s", el.Kind, el.Name)
		}

		if got := el.Text("text"); got != "Hello, World" {
			t.Errorf("text = %q, want %q", got, "Hello, World")
		}
	})

	t.Run("event increments", func(t *testing.T) {
		src := "-- integer $n: 0\n\n-- ftd.integer: $n\n$on-click$: $ftd.increment($a=$n)\n"
		doc := interpret(t, src, nil)

		el := doc.Tree.Elements[0]

		ev, ok := el.Event("click")
		if !ok || len(ev.Actions) != 1 || ev.Actions[0].Function != "ftd#increment" {
			t.Fatalf("click binding = %+v", ev)
		}

		if err := doc.Runtime().Fire(t.Context(), el, "click"); err != nil {
			t.Fatalf("fire error: %v", err)
		}

		if got := variable(t, doc, "main#n").Value.Value; got != (types.Integer{Int: 1}) {
			t.Errorf("n = %v, want 1", got)
		}
	})
}

func TestInterpret_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		modules map[string]string
		want    error
	}{
		{
			name: "forward reference",
			src:  "-- integer y: $x\n\n-- integer x: 5\n",
			want: lang.ErrValueNotFound,
		},
		{
			name: "duplicate declaration",
			src:  "-- integer x: 5\n\n-- string x: five\n",
			want: lang.ErrForbiddenUsage,
		},
		{
			name: "assign immutable",
			src:  "-- integer x: 5\n\n-- x: 6\n",
			want: lang.ErrForbiddenUsage,
		},
		{
			name: "integer is not decimal",
			src:  "-- decimal d: 1.5\n\n-- integer i: $d\n",
			want: lang.ErrInvalidKind,
		},
		{
			name: "bad literal",
			src:  "-- integer x: five\n",
			want: lang.ErrInvalidKind,
		},
		{
			name: "unknown argument",
			src:  "-- ftd.text: hi\nsize: 3\n",
			want: lang.ErrForbiddenUsage,
		},
		{
			name: "missing required argument",
			src:  "-- component greet:\ncaption name:\n\n-- ftd.text: $name\n\n-- greet:\n",
			want: lang.ErrValueNotFound,
		},
		{
			name: "reference in function body",
			src:  "-- integer $n: 0\n\n-- void f(a):\ninteger $a:\n\n$a = 1\n",
			want: lang.ErrForbiddenUsage,
		},
		{
			name: "immutable event argument",
			src:  "-- integer n: 0\n\n-- ftd.integer: $n\n$on-click$: $ftd.increment($a=$n)\n",
			want: lang.ErrForbiddenUsage,
		},
		{
			name:    "cyclic import",
			src:     "-- import: a\n",
			modules: map[string]string{"a": "-- import: main\n"},
			want:    lang.ErrForbiddenUsage,
		},
		{
			name:    "alias names two modules",
			src:     "-- import: a as x\n\n-- import: b as x\n",
			modules: map[string]string{"a": "", "b": ""},
			want:    lang.ErrForbiddenUsage,
		},
		{
			name:    "exposing unknown name",
			src:     "-- import: a\nexposing: nope\n",
			modules: map[string]string{"a": "-- integer x: 1\n"},
			want:    lang.ErrValueNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := drive(t.Context(), New(), tt.src, tt.modules)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var le *lang.Error
			if !errors.As(err, &le) || le.Doc() == "" || le.Line() == 0 {
				t.Errorf("error %v is not located", err)
			}
		})
	}
}

func TestInterpret_Suggestion(t *testing.T) {
	_, err := drive(t.Context(), New(), "-- integer counter: 1\n\n-- integer y: $countr\n", nil)
	if !errors.Is(err, lang.ErrValueNotFound) {
		t.Fatalf("error = %v, want value not found", err)
	}

	if !strings.Contains(err.Error(), `did you mean "counter"?`) {
		t.Errorf("error %q has no suggestion", err)
	}
}

func TestInterpret_Imports(t *testing.T) {
	modules := map[string]string{
		"lib": "-- integer x: 1\n\n-- string title: Library\n",
	}

	t.Run("second alias", func(t *testing.T) {
		doc := interpret(t, "-- import: lib\n\n-- import: lib as l\n\n-- integer y: $l.x\n", modules)

		want := map[string]string{"ftd": "ftd", "lib": "lib", "l": "lib"}
		if diff := cmp.Diff(want, doc.Aliases); diff != "" {
			t.Errorf("aliases mismatch (-want +got):\n%s", diff)
		}

		n := 0

		for name := range doc.Bag.All() {
			if name == "lib#x" {
				n++
			}
		}

		if n != 1 {
			t.Errorf("lib#x appears %d times", n)
		}

		if v := variable(t, doc, "main#y"); v.Value.Value != (types.Integer{Int: 1}) {
			t.Errorf("y = %v, want 1", v.Value.Value)
		}
	})

	t.Run("exposing", func(t *testing.T) {
		doc := interpret(t, "-- import: lib\nexposing: x, title\n\n-- string s: $title $x\n", modules)

		want := []Equality{
			{From: "main#x", To: "lib#x"},
			{From: "main#title", To: "lib#title"},
		}
		if diff := cmp.Diff(want, doc.Equalities); diff != "" {
			t.Errorf("equalities mismatch (-want +got):\n%s", diff)
		}

		if v := variable(t, doc, "main#s"); v.Value.Value != (types.String{Text: "Library 1"}) {
			t.Errorf("s = %v, want %q", v.Value.Value, "Library 1")
		}
	})
}

func TestInterpret_Suspensions(t *testing.T) {
	t.Run("processor", func(t *testing.T) {
		x := New()

		st, err := x.Interpret(t.Context(), "main",
			"-- string home:\n$processor$: env\nname: HOME\n\n-- ftd.text: $home\n")
		if err != nil {
			t.Fatalf("interpret error: %v", err)
		}

		sp, ok := st.(*StuckOnProcessor)
		if !ok {
			t.Fatalf("state = %s, want stuck-on-processor", st.Name())
		}

		if sp.Variable != "main#home" || sp.Processor != "env" || sp.Line != 1 {
			t.Errorf("stuck on %+v", sp)
		}

		if h, ok := sp.Meta.Get("name"); !ok || h.Value != "HOME" {
			t.Errorf("meta = %+v", sp.Meta)
		}

		if _, err := x.ContinueAfterImport(t.Context(), "lib", ""); !errors.Is(err, lang.ErrForbiddenUsage) {
			t.Errorf("mismatched continuation error = %v", err)
		}

		st, err = x.ContinueAfterProcessor(t.Context(), "/root")
		if err != nil {
			t.Fatalf("continue error: %v", err)
		}

		done, ok := st.(*Done)
		if !ok {
			t.Fatalf("state = %s, want done", st.Name())
		}

		if got := done.Document.Tree.Elements[0].Text("text"); got != "/root" {
			t.Errorf("text = %q, want /root", got)
		}
	})

	t.Run("foreign variable", func(t *testing.T) {
		x := New(WithForeignModule("env"))

		st, err := x.Interpret(t.Context(), "main", "-- import: env\n\n-- string home: $env.home\n")
		if err != nil {
			t.Fatalf("interpret error: %v", err)
		}

		sf, ok := st.(*StuckOnForeignVariable)
		if !ok {
			t.Fatalf("state = %s, want stuck-on-foreign-variable", st.Name())
		}

		if sf.Variable != "env#home" || sf.Module != "env" || sf.Line != 3 {
			t.Errorf("stuck on %+v", sf)
		}

		st, err = x.ContinueAfterVariable(t.Context(), "env#home", "/root")
		if err != nil {
			t.Fatalf("continue error: %v", err)
		}

		done, ok := st.(*Done)
		if !ok {
			t.Fatalf("state = %s, want done", st.Name())
		}

		v, _ := done.Document.Bag.Variable("main#home")
		if v.Value.Value != (types.String{Text: "/root"}) {
			t.Errorf("home = %v, want /root", v.Value.Value)
		}
	})
}

func TestInterpret_Conditions(t *testing.T) {
	t.Run("static override folds", func(t *testing.T) {
		doc := interpret(t, "-- boolean flag: true\n\n-- string label: off\n\n-- label: on\nif: { $flag }\n", nil)

		v := variable(t, doc, "main#label")
		if v.Value.Value != (types.String{Text: "on"}) || len(v.Conditional) != 0 {
			t.Errorf("label = %v with %d overrides", v.Value.Value, len(v.Conditional))
		}
	})

	t.Run("mutable override is kept", func(t *testing.T) {
		doc := interpret(t, "-- boolean $flag: false\n\n-- string label: off\n\n-- label: on\nif: { $flag }\n", nil)

		v := variable(t, doc, "main#label")
		if v.Value.Value != (types.String{Text: "off"}) || len(v.Conditional) != 1 {
			t.Fatalf("label = %v with %d overrides", v.Value.Value, len(v.Conditional))
		}

		if got := v.Conditional[0].Condition.Targets(); !cmp.Equal(got, []string{"main#flag"}) {
			t.Errorf("targets = %v", got)
		}
	})

	t.Run("static false invocation", func(t *testing.T) {
		doc := interpret(t, "-- boolean shown: false\n\n-- ftd.text: hidden\nif: { $shown }\n", nil)

		if el := doc.Tree.Elements[0]; !el.IsNull {
			t.Errorf("element = %s, want null", el.Kind)
		}
	})

	t.Run("loop", func(t *testing.T) {
		src := "-- list string names:\n\n-- string: a\n-- string: b\n\n-- end: names\n\n-- ftd.text: $obj\n$loop$: $names as $obj\n"
		doc := interpret(t, src, nil)

		var got []string
		for _, el := range doc.Tree.Elements {
			got = append(got, el.Text("text"))
		}

		if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
			t.Errorf("texts mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestInterpret_Values(t *testing.T) {
	doc := interpret(t, "-- ftd.color c: red\n\n-- ftd.length w: px 10\n\n-- ftd.length full: fill-container\n", nil)

	rv, ok := variable(t, doc, "main#c").Value.Value.(types.RecordValue)
	if !ok {
		t.Fatalf("main#c is not a record value")
	}

	if dark, _ := rv.Field("dark"); dark.Value != (types.String{Text: "red"}) {
		t.Errorf("c.dark = %v, want red", dark.Value)
	}

	ov := variable(t, doc, "main#w").Value.Value.(types.OrTypeValue)
	if ov.Variant != "px" || ov.Value.Value != (types.Integer{Int: 10}) {
		t.Errorf("w = %s(%v)", ov.Variant, ov.Value.Value)
	}

	ov = variable(t, doc, "main#full").Value.Value.(types.OrTypeValue)
	if ov.Variant != "fill-container" || ov.Value.Value != (types.String{Text: "100%"}) {
		t.Errorf("full = %s(%v)", ov.Variant, ov.Value.Value)
	}
}

func TestPrelude(t *testing.T) {
	b, err := Prelude()
	if err != nil {
		t.Fatalf("prelude error: %v", err)
	}

	for _, name := range []string{
		"ftd#text", "ftd#row", "ftd#column", "ftd#image", "ftd#integer",
		"ftd#decimal", "ftd#boolean", "ftd#text-input", "ftd#checkbox",
		"ftd#iframe", "ftd#code",
	} {
		c, ok := b.Component(name)
		if !ok || !c.IsKernel() {
			t.Errorf("%s is not a kernel component", name)
		}
	}

	for _, name := range []string{
		exec.DarkModeVariable, exec.SystemDarkModeVariable, exec.FollowSystemModeVariable,
	} {
		if v, ok := b.Variable(name); !ok || !v.Mutable {
			t.Errorf("%s is not a mutable variable", name)
		}
	}

	v, _ := b.Variable("ftd#default-colors")
	rv := v.Value.Value.(types.RecordValue)
	text, _ := rv.Field("text")
	light, _ := text.Value.(types.RecordValue).Field("light")

	if light.Value != (types.String{Text: "#a8a29e"}) {
		t.Errorf("default-colors.text.light = %v", light.Value)
	}

	custom, _ := rv.Field("custom")
	one, _ := custom.Value.(types.RecordValue).Field("one")
	light, _ = one.Value.(types.RecordValue).Field("light")

	if light.Value != (types.String{Text: "#ed753a"}) {
		t.Errorf("default-colors.custom.one.light = %v", light.Value)
	}

	for name, fields := range map[string][]string{
		"ftd#pst":           {"primary", "secondary", "tertiary"},
		"ftd#btb":           {"base", "text", "border"},
		"ftd#custom-colors": {"one", "five", "ten"},
		"ftd#color-scheme":  {"cta-tertiary", "cta-danger", "accent", "error", "warning", "custom"},
		"ftd#type-data":     {"heading-hero", "copy-regular", "source-code", "label-small"},
	} {
		r, ok := b.Record(name)
		if !ok {
			t.Errorf("%s is not a record", name)

			continue
		}

		for _, f := range fields {
			if _, ok := r.Field(f); !ok {
				t.Errorf("%s has no field %q", name, f)
			}
		}
	}

	for _, name := range []string{
		"ftd#default-colors", "ftd#default-types",
		"ftd#font-display", "ftd#font-copy", "ftd#font-code",
	} {
		if v, ok := b.Variable(name); !ok || !v.Mutable {
			t.Errorf("%s is not a mutable variable", name)
		}
	}

	if v, _ := b.Variable("ftd#font-code"); v.Value.Value != (types.String{Text: "monospace"}) {
		t.Errorf("font-code = %v", v.Value.Value)
	}

	typography, _ := b.Variable("ftd#default-types")
	hero, _ := typography.Value.Value.(types.RecordValue).Field("heading-hero")

	if !hero.IsReference() || !strings.HasSuffix(hero.Name, "heading-hero-type") {
		t.Errorf("default-types.heading-hero = %+v", hero)
	}

	desktop, _ := b.Variable("ftd#heading-hero-desktop")
	size, _ := desktop.Value.Value.(types.RecordValue).Field("size")

	if px, ok := size.Value.(types.Optional).Value.(types.OrTypeValue); !ok || px.Variant != "px" {
		t.Errorf("heading-hero-desktop.size = %v", size.Value)
	}

	b.Set(&types.Variable{Name: exec.DarkModeVariable, Kind: types.BooleanKind.Data()})

	fresh, _ := Prelude()
	if v, _ := fresh.Variable(exec.DarkModeVariable); !v.Mutable {
		t.Errorf("prelude bag was shared")
	}
}

func TestDocument_Evaluate(t *testing.T) {
	modules := map[string]string{"lib": "-- integer base: 10\n"}

	doc := interpret(t,
		"-- import: lib\nexposing: base\n\n-- record point:\ninteger x:\ninteger y:\n\n-- point p:\nx: 3\ny: 4\n\n-- integer $n: 1\n\n-- ftd.integer: $n\n$on-click$: $ftd.increment($a=$n)\n",
		modules)

	tests := []struct {
		src  string
		want string
	}{
		{src: "$p.x * $p.y", want: "12"},
		{src: "$base + $n", want: "11"},
		{src: "$lib.base > 5", want: "true"},
		{src: "$ftd.dark-mode", want: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := doc.Evaluate(t.Context(), tt.src)
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got.String() != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}

	if err := doc.Runtime().Fire(t.Context(), doc.Tree.Elements[0], "click"); err != nil {
		t.Fatalf("fire error: %v", err)
	}

	if got, _ := doc.Evaluate(t.Context(), "$n"); got.String() != "2" {
		t.Errorf("n = %s after click, want 2", got)
	}

	if _, err := doc.Evaluate(t.Context(), "$missing"); !errors.Is(err, lang.ErrValueNotFound) {
		t.Errorf("error = %v, want value not found", err)
	}

	if _, err := doc.Evaluate(t.Context(), "$point"); !errors.Is(err, lang.ErrForbiddenUsage) {
		t.Errorf("error = %v, want forbidden usage", err)
	}
}
