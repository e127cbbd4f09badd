package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/pkg"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "failure", err: errors.New("boom"), want: 1},
		{name: "diagnostic", err: lang.NewError(lang.ParseError, "x"), want: 2},
		{
			name: "wrapped diagnostic",
			err:  pkg.MakeError(fmt.Errorf("check: %w", lang.NewError(lang.EvalError, "y"))),
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
