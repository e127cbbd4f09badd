package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// ErrorKind classifies a diagnostic produced while parsing or interpreting a
// document.
type ErrorKind int

const (
	OtherError     ErrorKind = iota // other error
	ParseError                      // parse error
	InvalidKind                     // invalid kind
	ValueNotFound                   // value not found
	ForbiddenUsage                  // forbidden usage
	EvalError                       // eval error
)

var errorKindNames = [...]string{
	OtherError:     "other error",
	ParseError:     "parse error",
	InvalidKind:    "invalid kind",
	ValueNotFound:  "value not found",
	ForbiddenUsage: "forbidden usage",
	EvalError:      "eval error",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}

	return errorKindNames[k]
}

// Sentinel errors, one per kind. Every [Error] matches the sentinel of its
// kind with [errors.Is].
var (
	ErrOther          = NewError(OtherError, "")
	ErrParse          = NewError(ParseError, "")
	ErrInvalidKind    = NewError(InvalidKind, "")
	ErrValueNotFound  = NewError(ValueNotFound, "")
	ErrForbiddenUsage = NewError(ForbiddenUsage, "")
	ErrEval           = NewError(EvalError, "")
)

// Error is a diagnostic with a kind, the document and line it refers to, and
// optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind  ErrorKind
	msg   string
	doc   string
	line  int
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Errorf creates a new Error of the given kind, formatting msg with the
// quoted names.
//
// Each %q in msg is replaced, in order, by the corresponding name.
func Errorf(kind ErrorKind, msg string, names ...string) *Error {
	for _, name := range names {
		msg = strings.Replace(msg, "%q", strconv.Quote(name), 1)
	}

	return &Error{kind: kind, msg: msg}
}

// WrapError wraps a standard error into an Error.
// If err already is (or wraps) an Error, that Error is returned.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{kind: OtherError, err: err}
}

// Error implements the error interface.
//
// The message has the form "<doc>:<line>: <kind>: <msg>: <err>" where any
// unset part is omitted.
func (e *Error) Error() string {
	part := make([]string, 0, 4)

	if loc := e.Location(); loc != "" {
		part = append(part, loc)
	}

	part = append(part, e.kind.String())

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Kind returns the diagnostic kind.
func (e *Error) Kind() ErrorKind { return e.kind }

// Message returns the error message without location or kind.
func (e *Error) Message() string { return e.msg }

// Doc returns the identifier of the document the error refers to.
func (e *Error) Doc() string { return e.doc }

// Line returns the 1-based line number the error refers to, or 0.
func (e *Error) Line() int { return e.line }

// Location returns "<doc>:<line>", "<doc>", or the empty string.
func (e *Error) Location() string {
	switch {
	case e.doc != "" && e.line > 0:
		return e.doc + ":" + strconv.Itoa(e.line)
	case e.doc != "":
		return e.doc
	case e.line > 0:
		return "line " + strconv.Itoa(e.line)
	}

	return ""
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error of the same kind whose message is
// either empty (a kind sentinel) or equal to this error's message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.kind == e.kind && (t.msg == "" || t.msg == e.msg)
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)

	attrs = append(attrs, slog.String("kind", e.kind.String()))

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.doc != "" {
		attrs = append(attrs, slog.String("doc", e.doc))
	}

	if e.line > 0 {
		attrs = append(attrs, slog.Int("line", e.line))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// WithDoc returns a copy of the error that refers to document doc.
// An already set document is kept.
func (e *Error) WithDoc(doc string) *Error {
	if e.doc != "" {
		return e
	}

	c := *e
	c.doc = doc

	return &c
}

// WithLine returns a copy of the error that refers to the given line.
// An already set line is kept.
func (e *Error) WithLine(line int) *Error {
	if e.line > 0 {
		return e
	}

	c := *e
	c.line = line

	return &c
}

// At returns a copy of the error located at doc and line.
func (e *Error) At(doc string, line int) *Error {
	return e.WithDoc(doc).WithLine(line)
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := *e
	c.attrs = newAttrs

	return &c
}

// Attrs returns the structured attributes attached to the error.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Locate annotates err with doc and line when it is (or wraps) an Error that
// has no location yet. Other errors are wrapped as [OtherError].
func Locate(err error, doc string, line int) error {
	if err == nil {
		return nil
	}

	return WrapError(err).At(doc, line)
}
