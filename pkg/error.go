package pkg

import (
	"slices"
	"strings"
)

// Error collects the failures of one command run. Each element keeps its own
// cause chain, reachable through [errors.Is] and [errors.As].
type Error []error

// MakeError returns the non-nil errs as an Error. Nested Error values are
// flattened into the result.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		switch inner := err.(type) {
		case nil:
		case Error:
			e = append(e, inner...)
		default:
			e = append(e, err)
		}
	}

	return e
}

// Error joins the messages of the collected errors with "; ".
func (e Error) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}

// Wrap returns a copy of the receiver with errs appended.
func (e Error) Wrap(errs ...error) Error {
	return MakeError(append(slices.Clip(e), errs...)...)
}

// Unwrap returns the collected errors.
func (e Error) Unwrap() []error { return e }

// OrNil returns nil if the receiver is empty.
func (e Error) OrNil() error {
	if len(e) == 0 {
		return nil
	}

	return e
}
