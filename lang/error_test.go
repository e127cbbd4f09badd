package lang

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "kind only", err: NewError(ParseError, ""), want: "parse error"},
		{name: "message", err: NewError(EvalError, "division by zero"), want: "eval error: division by zero"},
		{
			name: "names",
			err:  Errorf(ValueNotFound, "%q has no field %q", "page", "title"),
			want: `value not found: "page" has no field "title"`,
		},
		{
			name: "located",
			err:  Errorf(InvalidKind, "%q", "x").At("index", 3),
			want: `index:3: invalid kind: "x"`,
		},
		{name: "doc only", err: NewError(OtherError, "m").WithDoc("lib"), want: "lib: other error: m"},
		{name: "line only", err: NewError(OtherError, "m").WithLine(7), want: "line 7: other error: m"},
		{
			name: "wrapped",
			err:  NewError(OtherError, "read").Wrap(fs.ErrNotExist),
			want: "other error: read: file does not exist",
		},
		{name: "unknown kind", err: NewError(ErrorKind(42), ""), want: "ErrorKind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("interpret: %w", Errorf(ForbiddenUsage, "cyclic import %q", "a").At("b", 1))

	if !errors.Is(err, ErrForbiddenUsage) {
		t.Errorf("error does not match its kind sentinel")
	}

	if errors.Is(err, ErrParse) {
		t.Errorf("error matches another kind's sentinel")
	}

	if !errors.Is(err, Errorf(ForbiddenUsage, "cyclic import %q", "a")) {
		t.Errorf("error does not match an error with the same message")
	}

	if errors.Is(err, NewError(ForbiddenUsage, "other")) {
		t.Errorf("error matches an error with a different message")
	}

	if !errors.Is(NewError(OtherError, "").Wrap(fs.ErrClosed), fs.ErrClosed) {
		t.Errorf("error does not match its cause")
	}
}

func TestLocate(t *testing.T) {
	if Locate(nil, "index", 1) != nil {
		t.Errorf("Locate(nil) is not nil")
	}

	located := NewError(ParseError, "x").At("lib", 2)

	var got *Error
	if !errors.As(Locate(located, "index", 9), &got) {
		t.Fatalf("Locate did not return an *Error")
	}

	if got.Doc() != "lib" || got.Line() != 2 {
		t.Errorf("Locate replaced location: %s", got.Location())
	}

	if !errors.As(Locate(fs.ErrNotExist, "index", 9), &got) {
		t.Fatalf("Locate did not wrap a plain error")
	}

	if got.Kind() != OtherError || got.Location() != "index:9" || !errors.Is(got, fs.ErrNotExist) {
		t.Errorf("Locate(fs.ErrNotExist) = %v", got)
	}
}

func TestWrapError(t *testing.T) {
	inner := NewError(EvalError, "x")

	if got := WrapError(fmt.Errorf("outer: %w", inner)); got != inner {
		t.Errorf("WrapError did not return the wrapped Error")
	}
}

func TestError_LogValue(t *testing.T) {
	err := Errorf(ValueNotFound, "%q", "n").
		At("index", 4).
		Wrap(fs.ErrNotExist).
		With(slog.String("module", "lib"))

	got := map[string]string{}
	for _, a := range err.LogValue().Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{
		"kind":   "value not found",
		"error":  `"n"`,
		"doc":    "index",
		"line":   "4",
		"cause":  "file does not exist",
		"module": "lib",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LogValue mismatch (-want +got):\n%s", diff)
	}
}

func TestError_WithCopies(t *testing.T) {
	base := NewError(OtherError, "m")
	_ = base.With(slog.Int("n", 1)).At("d", 1)

	if len(base.Attrs()) != 0 || base.Location() != "" {
		t.Errorf("base error was modified: %v %v", base.Attrs(), base.Location())
	}
}
