package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrNoDocument   = errors.New("no document to load")
	ErrUsage        = errors.New("invalid command usage")
	ErrNoElement    = errors.New("no such element")
	ErrNotFunction  = errors.New("not a function")
	ErrEditDeclined = errors.New("decline edit")
)
