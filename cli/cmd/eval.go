package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Eval evaluates an expression against an interpreted document.
type Eval struct {
	Expr   string `arg:"" help:"Expression to evaluate, e.g. '$count + 1'" name:"expr"`
	Source string `       help:"Document file, module name, or '-' for stdin" default:"-" short:"f"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := interpret(ctx, newHost(ctx, e.Source), e.Source)
	if err != nil {
		return err
	}

	result, err := doc.Evaluate(ctx, e.Expr)
	if err != nil {
		return lang.WrapError(err).
			With(
				slog.String("command", "eval"),
				slog.String("expr", e.Expr),
			)
	}

	log.DebugContext(ctx, "evaluated",
		log.Doc(doc.Name),
		slog.String("kind", result.Kind.String()))

	return write(ctx, result.String()+"\n")
}
