package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardnew/ftd/lang"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want string
		err  error
	}{
		{expr: "$count + $base", want: "11\n"},
		{expr: "$lib.base * 2", want: "20\n"},
		{expr: "is_empty(\"\")", want: "true\n"},
		{expr: "$ftd.dark-mode", want: "false\n"},
		{expr: "$missing", err: lang.ErrValueNotFound},
		{expr: "$count +", err: lang.ErrEval},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			var out bytes.Buffer

			index, ctx := workspace(t, &out)

			err := (&Eval{Expr: tt.expr, Source: index}).Run(ctx)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("error = %v, want %v", err, tt.err)
				}

				return
			}

			if err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("%s = %q, want %q", tt.expr, out.String(), tt.want)
			}
		})
	}
}

func TestEval_Module(t *testing.T) {
	var out bytes.Buffer

	_, ctx := workspace(t, &out)

	if err := (&Eval{Expr: "$base - 1", Source: "lib"}).Run(ctx); err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if out.String() != "9\n" {
		t.Errorf("output = %q, want 9", out.String())
	}
}
