package interp

import (
	"context"
	_ "embed"
	"sync"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/types"
)

// PreludeName is the module every document can read without importing it.
const PreludeName = "ftd"

//go:embed prelude.ftd
var preludeSource string

// prelude is set in init: loadPrelude reaches Prelude through Interpret.
var prelude func() (*types.Bag, error)

func init() { prelude = sync.OnceValues(loadPrelude) }

func loadPrelude() (*types.Bag, error) {
	x := New()
	x.base = true

	st, err := x.Interpret(context.Background(), PreludeName, preludeSource)
	if err != nil {
		return nil, err
	}

	done, ok := st.(*Done)
	if !ok {
		return nil, lang.Errorf(lang.OtherError, "prelude stopped at %q", st.Name())
	}

	return done.Document.Bag, nil
}

// Prelude returns a fresh bag holding the things of the built-in "ftd"
// module: kernel components, their style kinds, the display mode variables,
// the default color scheme and typography, and the standard event functions.
func Prelude() (*types.Bag, error) {
	b, err := prelude()
	if err != nil {
		return nil, err
	}

	return b.Clone(), nil
}

// PreludeSource returns the source text of the built-in "ftd" module.
func PreludeSource() string { return preludeSource }
