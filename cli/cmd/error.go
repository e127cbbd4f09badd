package cmd

import (
	"log/slog"
	"slices"
	"strings"
)

// Error is a command failure. Attributes added with [Error.With] appear in
// both the message and structured log output:
//
//	invalid output format (format=toml)
//	write output (file=index.ftd): permission denied
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a sentinel error with the given message.
func NewError(msg string) *Error { return &Error{msg: msg} }

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.msg)

	if len(e.attrs) > 0 {
		b.WriteString(" (")

		for i, a := range e.attrs {
			if i > 0 {
				b.WriteByte(' ')
			}

			b.WriteString(a.String())
		}

		b.WriteByte(')')
	}

	if e.err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was made from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.err == nil && len(t.attrs) == 0 && t.msg == e.msg
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := slices.Clone(e.attrs)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	switch cause := e.err.(type) {
	case nil:
	case slog.LogValuer:
		attrs = append(attrs, slog.Any("cause", cause))
	default:
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}

	return slog.GroupValue(attrs...)
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(slices.Clip(e.attrs), attrs...)

	return &c
}

var (
	ErrReadSource     = NewError("read source")
	ErrWriteOutput    = NewError("write output")
	ErrJSONMarshal    = NewError("marshal JSON")
	ErrYAMLMarshal    = NewError("marshal YAML")
	ErrInvalidFormat  = NewError("invalid output format")
	ErrInvalidEvent   = NewError("invalid event (want ELEMENT:EVENT)")
	ErrWriteConfig    = NewError("write configuration file")
	ErrFileExists     = NewError("file exists (use --force to overwrite)")
	ErrWriteStdin     = NewError("cannot write formatted stdin back (omit --write)")
	ErrNotInteractive = NewError("repl needs a document file or module")
)
