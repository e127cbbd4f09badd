package repl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   functionCall
	}{
		{"no call", "$a + $b", 7, functionCall{}},
		{"first argument", "is_empty($", 10, functionCall{name: "is_empty", inCall: true}},
		{"second argument", "append($xs, ", 12, functionCall{name: "append", argIndex: 1, inCall: true}},
		{"namespaced", "ftd.append([1], ", 16, functionCall{name: "append", argIndex: 1, inCall: true}},
		{"nested list", "append([1, 2], 3", 16, functionCall{name: "append", argIndex: 1, inCall: true}},
		{"inner call", "append(len($a", 13, functionCall{name: "len", inCall: true}},
		{"closed inner call", "append(len($a), ", 16, functionCall{name: "append", argIndex: 1, inCall: true}},
		{"closed call", "len($a)", 7, functionCall{}},
		{"bare paren", "($a + ", 6, functionCall{}},
		{"hyphenated function", "increment-by($a, ", 17, functionCall{name: "increment-by", argIndex: 1, inCall: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(functionCall{})); diff != "" {
				t.Errorf("detectFunctionCall(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		name       string
		wantSig    string
		wantParams []string
	}{
		{"append", "append(list, item)", []string{"list", "item"}},
		{"enable_dark_mode", "enable_dark_mode()", nil},
		{"ftd.increment-by", "ftd.increment-by(a, v) void", []string{"a", "v"}},
		{"undefined", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, params := getSignature(s.doc, tt.name)
			if sig != tt.wantSig {
				t.Errorf("signature = %q, want %q", sig, tt.wantSig)
			}

			if diff := cmp.Diff(tt.wantParams, params); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	out := renderSignatureHint("append(list, item)", []string{"list", "item"}, 1)

	for _, want := range []string{"append", "list", "item", "(", ")"} {
		if !strings.Contains(out, want) {
			t.Errorf("hint %q missing %q", out, want)
		}
	}

	if out := renderSignatureHint("f", nil, 0); !strings.Contains(out, "f") {
		t.Errorf("hint without parentheses = %q", out)
	}
}
