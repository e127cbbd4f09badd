package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/ftd/cli/cmd/repl"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/log"
)

// Repl starts an interactive session over an interpreted document.
type Repl struct {
	Source string `arg:"" help:"Document file or module name" placeholder:"SOURCE"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if r.Source == stdinSource || !isatty.IsTerminal(os.Stdin.Fd()) {
		return ErrNotInteractive
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	h := newHost(ctx, r.Source)

	path := r.Source
	if !isFile(path) {
		path = ""
	}

	return repl.Run(ctx, repl.Config{
		Load: func(ctx context.Context) (*interp.Document, error) {
			return interpret(ctx, h, r.Source)
		},
		Render:   renderTree,
		Path:     path,
		CacheDir: cacheDir,
		Logger:   log.Default(),
	})
}
