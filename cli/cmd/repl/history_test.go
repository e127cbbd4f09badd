package repl

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{Line: "$n + 1", Mode: modeEval},
		{Line: "tree", Mode: modeCtrl},
		{Line: "  ", Mode: modeEval},
		{Line: "tree", Mode: modeCtrl},
		{Line: "fire counter click", Mode: modeCtrl},
		{Line: "$n + 1", Mode: modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("add error: %v", err)
		}
	}

	want := []HistoryEntry{
		{Line: "tree", Mode: modeCtrl},
		{Line: "fire counter click", Mode: modeCtrl},
		{Line: "$n + 1", Mode: modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load error: %v", err)
	}

	if diff := cmp.Diff(want, loaded.Entries()); diff != "" {
		t.Errorf("loaded entries mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, wantText := string(data), "C:tree\nC:fire counter click\nE:$n + 1\n"; got != wantText {
		t.Errorf("file = %q, want %q", got, wantText)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")

	if err := h.Add("$x", modeEval); err != nil {
		t.Fatal(err)
	}

	if e, err := h.Entry(0); err != nil || e.Line != "$x" {
		t.Errorf("Entry(0) = %+v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); err != ErrOutOfBounds {
			t.Errorf("Entry(%d) error = %v, want %v", i, err, ErrOutOfBounds)
		}
	}
}

func TestHistory_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for i := range maxHistory + 5 {
		if err := h.Add("$n + "+strconv.Itoa(i), modeEval); err != nil {
			t.Fatal(err)
		}
	}

	if h.Len() != maxHistory {
		t.Fatalf("len = %d, want %d", h.Len(), maxHistory)
	}

	if e, _ := h.Entry(0); e.Line != "$n + 5" {
		t.Errorf("oldest entry = %q, want %q", e.Line, "$n + 5")
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil || loaded.Len() != maxHistory {
		t.Errorf("loaded %d entries (%v), want %d", loaded.Len(), err, maxHistory)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "none", baseHistory))
	if err := h.Load(); err != nil || h.Len() != 0 {
		t.Errorf("Load of missing file = %d entries, %v", h.Len(), err)
	}
}
