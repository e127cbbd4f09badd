package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	unformatted = "-- integer x: 1\n-- integer y: 2\n"
	formatted   = "-- integer x: 1\n\n-- integer y: 2\n"
)

func TestFmt(t *testing.T) {
	var out bytes.Buffer

	_, ctx := workspace(t, &out)

	path := filepath.Join(t.TempDir(), "doc.ftd")
	if err := os.WriteFile(path, []byte(unformatted), 0o640); err != nil {
		t.Fatal(err)
	}

	if err := (&Fmt{Source: path}).Run(ctx); err != nil {
		t.Fatalf("fmt error: %v", err)
	}

	if out.String() != formatted {
		t.Errorf("output = %q, want %q", out.String(), formatted)
	}

	out.Reset()

	if err := (&Fmt{Write: true, Source: path}).Run(ctx); err != nil {
		t.Fatalf("fmt -w error: %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("fmt -w wrote to output: %q", out.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != formatted {
		t.Errorf("file = %q, want %q", data, formatted)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if fi.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", fi.Mode().Perm())
	}
}

func TestFmt_Module(t *testing.T) {
	var out bytes.Buffer

	index, ctx := workspace(t, &out)

	if err := (&Fmt{Write: true, Source: "lib"}).Run(ctx); err != nil {
		t.Fatalf("fmt -w error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(index), "lib.ftd"))
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != testLib {
		t.Errorf("formatted module changed: %q", data)
	}
}

func TestFmt_WriteStdin(t *testing.T) {
	if err := (&Fmt{Write: true, Source: stdinSource}).Run(t.Context()); !errors.Is(err, ErrWriteStdin) {
		t.Errorf("error = %v, want %v", err, ErrWriteStdin)
	}
}
