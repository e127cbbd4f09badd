package interp

import (
	"context"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/eval"
	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/types"
)

// Equality records that a name exposed by an import reads a name of the
// imported module.
type Equality struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// Document is the result of interpreting a root document and its imports.
type Document struct {
	Name string
	// Aliases maps each alias visible in the root document to its module.
	Aliases    map[string]string
	Bag        *types.Bag
	Roots      []*types.Component
	Equalities []Equality
	// Tree is the root invocations executed against the bag as it was when
	// interpretation finished.
	Tree *exec.Tree
}

// Runtime returns an event runtime that mutates the document's bag.
func (d *Document) Runtime(opts ...exec.RuntimeOption) *exec.Runtime {
	opts = append([]exec.RuntimeOption{exec.WithRuntimeDoc(d.Name)}, opts...)

	return exec.NewRuntime(d.Bag, d.Roots, opts...)
}

// Expression compiles source as if written in the root document. Its "$"
// references must name variables, or fields of them, in the bag.
func (d *Document) Expression(source string) (*types.Expression, error) {
	p, err := eval.New().Compile(source)
	if err != nil {
		return nil, err
	}

	e := &types.Expression{Source: source, References: map[string]types.PropertyValue{}}

	for _, name := range p.References() {
		q := d.qualify(name)

		t, path, ok := d.Bag.Resolve(q)
		if !ok {
			return nil, lang.Errorf(lang.ValueNotFound, "%q is not defined", name)
		}

		v, ok := t.(*types.Variable)
		if !ok {
			return nil, lang.Errorf(lang.ForbiddenUsage,
				"%q is a %q, not a variable", name, t.Form())
		}

		k, ok := d.Bag.FieldKind(v.Kind.Kind, path)
		if !ok {
			return nil, lang.Errorf(lang.ValueNotFound, "%q has no such field", name)
		}

		e.References[name] = types.NewReference(q, k, types.Global(), 0).
			WithMutable(v.Mutable)
	}

	return e, nil
}

// Evaluate runs source over the current state of the bag. See
// [Document.Expression].
func (d *Document) Evaluate(ctx context.Context, source string, opts ...exec.Option) (eval.Value, error) {
	e, err := d.Expression(source)
	if err != nil {
		return eval.Value{}, err
	}

	opts = append([]exec.Option{exec.WithDoc(d.Name)}, opts...)

	return exec.New(d.Bag, opts...).Evaluate(ctx, e)
}

// qualify returns the qualified name of a reference written in the root
// document, following the names its imports expose.
func (d *Document) qualify(name string) string {
	q := types.Qualify(d.Name, name, d.Aliases)

	for _, eq := range d.Equalities {
		if q == eq.From || strings.HasPrefix(q, eq.From+".") {
			return eq.To + q[len(eq.From):]
		}
	}

	return q
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (d *Document) MarshalYAML() (any, error) {
	return yaml.MapSlice{
		{Key: "name", Value: d.Name},
		{Key: "aliases", Value: d.Aliases},
		{Key: "equalities", Value: d.Equalities},
		{Key: "bag", Value: d.Bag},
		{Key: "elements", Value: d.Tree},
	}, nil
}

// MarshalJSON implements json.Marshaler, keeping key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	v, err := d.MarshalYAML()
	if err != nil {
		return nil, err
	}

	return yaml.MarshalWithOptions(v, yaml.JSON())
}
