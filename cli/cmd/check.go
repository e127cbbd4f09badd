package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// Check interprets a document and reports whether it is valid.
type Check struct {
	Bag bool `help:"List the definitions of the document in a table"`
	All bool `help:"List definitions of imported modules and the prelude too (with --bag)"`

	Source string `arg:"" default:"-" help:"Document file, module name, or '-' for stdin." name:"source"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := interpret(ctx, newHost(ctx, c.Source), c.Source)
	if err != nil {
		return err
	}

	var (
		things   int
		elements int
	)

	for name := range doc.Bag.All() {
		if doc.Name == docOf(name) {
			things++
		}
	}

	doc.Tree.Walk(func(*exec.Element) bool {
		elements++

		return true
	})

	log.DebugContext(ctx, "checked",
		log.Doc(doc.Name),
		slog.Int("definitions", things),
		slog.Int("elements", elements))

	if c.Bag {
		keep := func(name string) bool { return c.All || docOf(name) == doc.Name }

		if err := write(ctx, renderBag(doc.Bag, keep)); err != nil {
			return err
		}
	}

	return write(ctx, fmt.Sprintf("%s: ok (%d definitions, %d elements, %d imports)\n",
		doc.Name, things, elements, imports(doc.Aliases)))
}

func docOf(name string) string {
	doc, _ := types.SplitName(name)

	return doc
}

// imports counts the modules other than the prelude the aliases name.
func imports(aliases map[string]string) int {
	modules := map[string]bool{}

	for _, module := range aliases {
		if module != interp.PreludeName {
			modules[module] = true
		}
	}

	return len(modules)
}
