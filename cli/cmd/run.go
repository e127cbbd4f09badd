package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/log"
)

// Run interprets a document and prints its element tree.
type Run struct {
	Format string   `default:"tree" enum:"tree,yaml,json" help:"Output format (${enum})" short:"o"`
	Fire   []string `help:"Fire an event before printing; ELEMENT is an id or a container path such as 0.1" placeholder:"ELEMENT:EVENT"`
	Bag    bool     `help:"Print the whole document with its bag (yaml and json only)"`

	Source string `arg:"" default:"-" help:"Document file, module name, or '-' for stdin." name:"source"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := interpret(ctx, newHost(ctx, r.Source), r.Source)
	if err != nil {
		return err
	}

	if len(r.Fire) > 0 {
		if doc.Tree, err = fire(ctx, doc, r.Fire); err != nil {
			return err
		}
	}

	switch {
	case r.Format == formatTree:
		return write(ctx, renderTree(doc.Tree))
	case r.Bag:
		return encode(ctx, r.Format, doc)
	default:
		return encode(ctx, r.Format, doc.Tree)
	}
}

// fire runs each "ELEMENT:EVENT" in order against the document's runtime,
// re-rendering between events so later ones see the updated tree.
func fire(ctx context.Context, doc *interp.Document, events []string) (*exec.Tree, error) {
	rt := doc.Runtime(exec.WithRuntimeLogger(log.Default()))
	tree := doc.Tree

	for _, spec := range events {
		ref, event, ok := strings.Cut(spec, ":")
		if !ok || ref == "" || event == "" {
			return nil, ErrInvalidEvent.With(slog.String("event", spec))
		}

		el, ok := tree.Lookup(ref)
		if !ok {
			return nil, lang.Errorf(lang.ValueNotFound, "no element %q", ref).
				WithDoc(doc.Name)
		}

		if err := rt.Fire(ctx, el, event); err != nil {
			return nil, err
		}

		var err error
		if tree, err = rt.Render(ctx); err != nil {
			return nil, err
		}
	}

	return tree, nil
}
