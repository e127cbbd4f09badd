package cmd

import (
	"context"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/p1"
	"github.com/ardnew/ftd/log"
)

// Parse prints the section tree of a document.
type Parse struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})" short:"o"`

	Source string `arg:"" default:"-" help:"Document file, module name, or '-' for stdin." name:"source"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	h := newHost(ctx, p.Source)

	module, source, err := load(ctx, h, p.Source)
	if err != nil {
		return err
	}

	sections, err := p1.ParseString(ctx, module, source, p1.WithLogger(log.Default()))
	if err != nil {
		return err
	}

	return encode(ctx, p.Format, sections)
}

// AST prints the declarations of a document.
type AST struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})" short:"o"`

	Source string `arg:"" default:"-" help:"Document file, module name, or '-' for stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	h := newHost(ctx, a.Source)

	module, source, err := load(ctx, h, a.Source)
	if err != nil {
		return err
	}

	items, err := h.Parse(ctx, module, source)
	if err != nil {
		return err
	}

	return encode(ctx, a.Format, declarations(items))
}

// declarations keys each declaration by its form, keeping source order.
func declarations(items []ast.Ast) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = yaml.MapSlice{{Key: item.Form(), Value: item}}
	}

	return out
}
