package repl

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"reference", "$count", 6, "count", 1, 6},
		{"member", "$page.title", 11, "title", 6, 11},
		{"after_plus", "$a + $fo", 8, "fo", 6, 8},
		{"after_paren", "is_empty($fo", 12, "fo", 10, 12},
		{"after_comma", "append($a, fo", 13, "fo", 11, 13},
		{"empty_at_boundary", "$a + ", 5, "", 5, 5},
		{"mid_word", "$foobar", 3, "foobar", 1, 7},
		{"hyphenated", "$dark-mode", 10, "dark-mode", 1, 10},
		{"hyphenated_member", "$ftd.dark-mo", 12, "dark-mo", 5, 12},
		{"empty_after_dot", "$page.", 6, "", 6, 6},
		{"empty_after_dollar", "1 + $", 5, "", 5, 5},
		{"cursor_past_end", "$ab", 10, "ab", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		input     string
		wordStart int
		want      string
		ref       bool
	}{
		{"$page.ti", 6, "page", true},
		{"1 + $page.title.le", 16, "page.title", true},
		{"$n", 1, "", true},
		{"is_empty", 0, "", false},
		{"ftd.is_em", 4, "ftd", false},
		{"$a + b", 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q", tt.input, tt.wordStart, got, tt.want)
			}

			if got := referenced(tt.input, tt.wordStart); got != tt.ref {
				t.Errorf("referenced(%q, %d) = %t, want %t", tt.input, tt.wordStart, got, tt.ref)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	s := newSession(t)

	roots := rootCandidates(s.doc)
	for _, want := range []string{"n", "p", "base", "lib", "ftd"} {
		if !slices.Contains(roots, want) {
			t.Errorf("root candidates %v missing %q", roots, want)
		}
	}

	if slices.Contains(roots, "point") {
		t.Errorf("root candidates include record %q", "point")
	}

	if diff := cmp.Diff([]string{"x", "y"}, memberCandidates(s.doc, "p")); diff != "" {
		t.Errorf("record members mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"base", "limit"}, memberCandidates(s.doc, "lib")); diff != "" {
		t.Errorf("module members mismatch (-want +got):\n%s", diff)
	}

	if got := memberCandidates(s.doc, "n"); got != nil {
		t.Errorf("members of an integer = %v, want none", got)
	}

	if fns := functionCandidates(s.doc); !slices.Contains(fns, "is_empty") {
		t.Errorf("function candidates %v missing is_empty", fns)
	}

	if ids := elementCandidates(s.tree); !slices.Equal(ids, []string{"counter"}) {
		t.Errorf("element candidates = %v, want [counter]", ids)
	}
}

func TestCtrlCandidates(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		input   string
		want    string
		wantNot string
	}{
		{input: "", want: "reload"},
		{input: "show ", want: "point"},
		{input: "call ", want: "ftd#increment", wantNot: "point"},
		{input: "fire ", want: "counter"},
		{input: "fire counter ", wantNot: "counter"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ctrlCandidates(s, tt.input, len(tt.input))

			if tt.want != "" && !slices.Contains(got, tt.want) {
				t.Errorf("candidates %v missing %q", got, tt.want)
			}

			if tt.wantNot != "" && slices.Contains(got, tt.wantNot) {
				t.Errorf("candidates %v include %q", got, tt.wantNot)
			}
		})
	}
}

func TestModel_ComputeMatches(t *testing.T) {
	s := newSession(t)
	m := newModel(t.Context(), s, "", NewHistory(""), s.logger)

	tests := []struct {
		input string
		want  string
	}{
		{input: "$p.", want: "x"},
		{input: "$lib.li", want: "limit"},
		{input: "is_em", want: "is_empty"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m.input.SetValue(tt.input)
			m.input.SetCursor(len(tt.input))

			matches, _, _, _ := m.computeMatches()
			if len(matches) == 0 || matches[0].Str != tt.want {
				t.Errorf("best match for %q = %v, want %q", tt.input, matches, tt.want)
			}
		})
	}

	m.input.SetValue("$")
	m.input.SetCursor(1)

	if matches, _, _, _ := m.computeMatches(); len(matches) == 0 {
		t.Errorf("no candidates after a bare $")
	}

	m.input.SetValue("")
	m.input.SetCursor(0)

	if matches, _, _, _ := m.computeMatches(); matches != nil {
		t.Errorf("matches on empty input = %v, want none", matches)
	}
}
