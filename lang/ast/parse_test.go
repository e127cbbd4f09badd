package ast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ardnew/ftd/lang"
)

var ignoreSection = cmpopts.IgnoreUnexported(VariableDefinition{})

func parse(t *testing.T, src string) []Ast {
	t.Helper()

	items, err := ParseString(context.Background(), "doc", src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	return items
}

func TestParseString_Forms(t *testing.T) {
	src := `-- import: lib/colors as c
exposing: red, blue

-- record point:
integer x:
integer y: 0

-- or-type status:
-- constant string ok: ok
-- integer code:
-- end: status

-- integer $n: 0

-- n: 2
if: $c.dark

-- void increment-by(a, v):
integer $a:
integer v: 1

a += v

-- component greet:
caption name:
-- ftd.text: Hello, $name

-- web-component widget:
string label:
js: widget.js

-- greet: World
`
	items := parse(t, src)

	forms := make([]string, len(items))
	for i, item := range items {
		forms[i] = item.Form()
	}

	want := []string{
		"import", "record", "or-type", "variable", "variable invocation",
		"function", "component", "web-component", "component invocation",
	}
	if diff := cmp.Diff(want, forms); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}

	imp := items[0].(*Import)
	if diff := cmp.Diff(&Import{
		Module:   "lib/colors",
		Alias:    "c",
		Exposing: []string{"red", "blue"},
		LineNum:  1,
	}, imp); diff != "" {
		t.Errorf("import mismatch (-want +got):\n%s", diff)
	}

	rec := items[1].(*Record)
	if len(rec.Fields) != 2 || rec.Fields[0].Value != nil ||
		rec.Fields[1].Value.Text != "0" {
		t.Errorf("record fields = %+v", rec.Fields)
	}

	ot := items[2].(*OrType)
	if len(ot.Variants) != 2 || !ot.Variants[0].Constant ||
		ot.Variants[0].Kind != "string" || ot.Variants[0].Value.Text != "ok" ||
		ot.Variants[1].Constant || ot.Variants[1].Kind != "integer" {
		t.Errorf("or-type variants = %+v", ot.Variants)
	}

	v := items[3].(*VariableDefinition)
	if v.Name != "n" || !v.Mutable || v.Value.Text != "0" {
		t.Errorf("variable = %+v", v)
	}

	inv := items[4].(*VariableInvocation)
	if inv.Name != "n" || inv.Condition == nil ||
		inv.Condition.Expression != "$c.dark" {
		t.Errorf("variable invocation = %+v", inv)
	}

	fn := items[5].(*Function)
	if fn.Name != "increment-by" || fn.ReturnKind != "void" ||
		len(fn.Arguments) != 2 || !fn.Arguments[0].Mutable ||
		fn.Definition != "a += v" {
		t.Errorf("function = %+v", fn)
	}

	comp := items[6].(*ComponentDefinition)
	if comp.Name != "greet" || comp.Definition.Name != "ftd.text" ||
		comp.Arguments[0].Kind != "caption" {
		t.Errorf("component = %+v", comp)
	}

	wc := items[7].(*WebComponentDefinition)
	if wc.JS != "widget.js" || len(wc.Arguments) != 1 {
		t.Errorf("web-component = %+v", wc)
	}

	call := items[8].(*ComponentInvocation)
	if call.Name != "greet" || len(call.Properties) != 1 ||
		call.Properties[0].Source != SourceCaption ||
		call.Properties[0].Value.Text != "World" {
		t.Errorf("invocation = %+v", call)
	}
}

func TestParseString_Invocation(t *testing.T) {
	src := `-- ftd.column:
$loop$: $items as $item, $i
$on-click$: $ftd.toggle($a=$open); $ftd.increment($a=$n)
padding if { $open }: 10
$value: $n

body text
-- ftd.text: $item
-- end: ftd.column
`
	items := parse(t, src)
	if len(items) != 1 {
		t.Fatalf("got %d declarations, want 1", len(items))
	}

	got := items[0].(*ComponentInvocation)

	want := &ComponentInvocation{
		Name: "ftd.column",
		Loop: &Loop{On: "$items", Alias: "item", Index: "i", LineNum: 2},
		Events: []*Event{{
			Name:    "click",
			Actions: []string{"$ftd.toggle($a=$open)", "$ftd.increment($a=$n)"},
			LineNum: 3,
		}},
		Properties: []*Property{
			{
				Key:       "padding",
				Value:     StringValue("10", SourceHeader, 4),
				Condition: "$open",
				LineNum:   4,
			},
			{
				Key:     "value",
				Mutable: true,
				Value:   StringValue("$n", SourceHeader, 5),
				LineNum: 5,
			},
			{
				Source:  SourceBody,
				Value:   StringValue("body text", SourceBody, 7),
				LineNum: 7,
			},
		},
		Children: []*ComponentInvocation{{
			Name: "ftd.text",
			Properties: []*Property{{
				Source:  SourceCaption,
				Value:   StringValue("$item", SourceCaption, 8),
				LineNum: 8,
			}},
			LineNum: 8,
		}},
		LineNum: 1,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("invocation mismatch (-want +got):\n%s", diff)
	}
}

func TestParseString_Values(t *testing.T) {
	src := `-- list string names:
-- string: a
-- string: b
-- end: names

-- point p:
x: 3
-- p.label:

multi
line

-- string s:

body value
`
	items := parse(t, src)

	list := items[0].(*VariableDefinition).Value
	if list.Form != FormList || len(list.Items) != 2 ||
		list.Items[1].Value.Text != "b" || list.Items[0].Name != "string" {
		t.Errorf("list value = %+v", list)
	}

	rec := items[1].(*VariableDefinition).Value
	if rec.Form != FormRecord || len(rec.Headers) != 2 {
		t.Fatalf("record value = %+v", rec)
	}

	if h, ok := rec.Header("label"); !ok || h.Value.Text != "multi\nline" {
		t.Errorf("label header = %+v", h)
	}

	body := items[2].(*VariableDefinition).Value
	if body.Form != FormString || body.Source != SourceBody ||
		body.Text != "body value" {
		t.Errorf("body value = %+v", body)
	}
}

func TestVariableDefinition_AsInvocation(t *testing.T) {
	items := parse(t, "-- ftd.text Hello:\ncolor: red\n")

	d, ok := items[0].(*VariableDefinition)
	if !ok {
		t.Fatalf("got %T, want *VariableDefinition", items[0])
	}

	inv, err := d.AsInvocation("ftd.text")
	if err != nil {
		t.Fatalf("AsInvocation() error = %v", err)
	}

	want := &ComponentInvocation{
		Name: "ftd.text",
		Properties: []*Property{
			{
				Source:  SourceCaption,
				Value:   StringValue("Hello", SourceCaption, 1),
				LineNum: 1,
			},
			{
				Key:     "color",
				Value:   StringValue("red", SourceHeader, 2),
				LineNum: 2,
			},
		},
		LineNum: 1,
	}

	if diff := cmp.Diff(want, inv, ignoreSection); diff != "" {
		t.Errorf("AsInvocation() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"bad import", "-- import: a b\n", "import expects"},
		{"untyped record field", "-- record r:\nx: 1\n", "needs a kind"},
		{"mutable record field", "-- record r:\ninteger $x:\n", "cannot be mutable"},
		{"empty or-type", "-- or-type o:\n", "no variants"},
		{"constant without value", "-- or-type o:\n-- constant string a:\n-- end: o\n", "needs a value"},
		{"component without body", "-- component c:\n", "no definition"},
		{"two roots", "-- component c:\n-- ftd.text: a\n-- ftd.text: b\n-- end: c\n", "exactly one root"},
		{"function without body", "-- void f():\n", "no body"},
		{"undeclared parameter", "-- void f(a):\n\nx = 1\n", "no declaration"},
		{"web-component without js", "-- web-component w:\nstring a:\n", "needs a 'js' header"},
		{"bad loop", "-- ftd.text: a\n$loop$: $xs\n", "must have the form"},
		{"duplicate argument", "-- component c:\nstring a:\nstring a:\n-- ftd.text: x\n-- end: c\n", "duplicate argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(context.Background(), "doc", tt.src)
			if err == nil {
				t.Fatal("ParseString() expected error")
			}

			var le *lang.Error
			if !errors.As(err, &le) || le.Doc() != "doc" {
				t.Fatalf("error %v is not a located *lang.Error", err)
			}

			if !errors.Is(err, lang.ErrParse) {
				t.Errorf("error kind = %v, want parse error", le.Kind())
			}

			if !strings.Contains(le.Message(), tt.msg) {
				t.Errorf("message = %q, want it to contain %q", le.Message(), tt.msg)
			}
		})
	}
}
