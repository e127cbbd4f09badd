package eval

import (
	"log/slog"
	"strings"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/ftd/log"
)

// Precedences of the expr operators that bind tighter than binary '-', which
// split a hyphenated name away from its neighbors.
var (
	tighterBinary = map[string]int{"*": 60, "/": 60, "%": 60, "**": 100, "^": 100, "??": 500}
	tighterUnary  = map[string]int{"!": 50, "not": 50, "-": 90, "+": 90}
)

// hyphenPatcher joins the subtraction chains expr parses from hyphenated
// names back into a single name.
//
// "is-open" parses as is - open, and "ftd.is-empty(x)" as ftd.is - empty(x).
// When the joined name is a local, or a function called by it, the chain is
// replaced with that identifier or call. Other chains stay subtractions.
type hyphenPatcher struct {
	locals map[string]bool
	funcs  map[string]bool // underscore spelling
	logger log.Logger
}

func newHyphenPatcher(locals, funcs []string, logger log.Logger) *hyphenPatcher {
	p := &hyphenPatcher{
		locals: make(map[string]bool, len(locals)),
		funcs:  make(map[string]bool, len(funcs)),
		logger: logger,
	}

	for _, l := range locals {
		if strings.Contains(l, "-") {
			p.locals[l] = true
		}
	}

	for _, f := range funcs {
		p.funcs[f] = true
	}

	return p
}

// wrapper rebuilds an operator around the operand it was applied to.
type wrapper struct {
	prec  int
	right bool // right associative
	fill  func(ast.Node) ast.Node
}

// chain is the left operand of a '-' read as hyphen-joined name segments.
type chain struct {
	base  ast.Node   // member base of the first segment, or nil
	names []string   // segments
	nodes []ast.Node // nodes[i] spans names[:i+1]
	wrap  []wrapper  // operators around names[0], outermost first
}

// Visit implements ast.Visitor.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	c, ok := chainOf(bin.Left)
	if !ok {
		return
	}

	atom, rw := head(bin.Right)

	for k := range c.names {
		var base ast.Node
		if k == 0 {
			base = c.base
		}

		name := strings.Join(c.names[k:], "-")

		joined, combined := p.join(base, name, atom)
		if joined == nil {
			continue
		}

		var out ast.Node

		switch {
		case k > 0:
			if rw != nil {
				joined = rw.fill(joined)
			}

			out = &ast.BinaryNode{Operator: "-", Left: c.nodes[k-1], Right: joined}

		case rw != nil && len(c.wrap) > 0:
			inner := c.wrap[len(c.wrap)-1]
			if rw.prec > inner.prec || rw.prec == inner.prec && rw.right {
				out = c.fill(rw.fill(joined))
			} else {
				out = rw.fill(c.fill(joined))
			}

		case rw != nil:
			out = rw.fill(joined)

		default:
			out = c.fill(joined)
		}

		ast.Patch(node, out)

		p.logger.Trace("patch hyphenated",
			slog.String("combined_name", combined),
			slog.Int("segment", k))

		return
	}
}

// join returns the identifier or call named name-atom, or nil when no local
// or function has that name.
func (p *hyphenPatcher) join(base ast.Node, name string, atom ast.Node) (ast.Node, string) {
	switch a := atom.(type) {
	case *ast.IdentifierNode:
		combined := name + "-" + a.Value
		if base == nil && p.locals[combined] {
			return &ast.IdentifierNode{Value: combined}, combined
		}

	case *ast.CallNode:
		if callee, ok := a.Callee.(*ast.IdentifierNode); ok {
			combined := name + "-" + callee.Value

			return p.call(base, combined, a.Arguments), combined
		}

	case *ast.BuiltinNode:
		// "set-string(a, v)" ends in the builtin string()
		combined := name + "-" + a.Name

		return p.call(base, combined, a.Arguments), combined
	}

	return nil, ""
}

// call returns a call of the function spelled combined, at top level or in
// the function namespace.
func (p *hyphenPatcher) call(base ast.Node, combined string, args []ast.Node) ast.Node {
	fn := strings.ReplaceAll(combined, "-", "_")
	if !p.funcs[fn] {
		return nil
	}

	if base == nil {
		return &ast.CallNode{Callee: &ast.IdentifierNode{Value: fn}, Arguments: args}
	}

	if ns, ok := base.(*ast.IdentifierNode); !ok || ns.Value != namespace {
		return nil
	}

	return &ast.CallNode{
		Callee:    &ast.MemberNode{Node: base, Property: &ast.StringNode{Value: fn}},
		Arguments: args,
	}
}

// fill applies the operators around the first segment to n.
func (c *chain) fill(n ast.Node) ast.Node {
	for i := len(c.wrap) - 1; i >= 0; i-- {
		n = c.wrap[i].fill(n)
	}

	return n
}

// chainOf reads n as the left operand of a hyphenated name.
func chainOf(n ast.Node) (*chain, bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return &chain{names: []string{n.Value}, nodes: []ast.Node{n}}, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok || n.Method || n.Optional {
			return nil, false
		}

		return &chain{base: n.Node, names: []string{prop.Value}, nodes: []ast.Node{n}}, true

	case *ast.UnaryNode:
		prec, ok := tighterUnary[n.Operator]
		if !ok {
			return nil, false
		}

		c, ok := chainOf(n.Node)
		if !ok || len(c.names) > 1 {
			return nil, false
		}

		op := n.Operator
		c.nodes[0] = n
		c.wrap = append([]wrapper{{
			prec: prec,
			fill: func(x ast.Node) ast.Node { return &ast.UnaryNode{Operator: op, Node: x} },
		}}, c.wrap...)

		return c, true

	case *ast.BinaryNode:
		if n.Operator == "-" {
			right, ok := n.Right.(*ast.IdentifierNode)
			if !ok {
				return nil, false
			}

			c, ok := chainOf(n.Left)
			if !ok {
				return nil, false
			}

			c.names = append(c.names, right.Value)
			c.nodes = append(c.nodes, n)

			return c, true
		}

		prec, ok := tighterBinary[n.Operator]
		if !ok {
			return nil, false
		}

		c, ok := chainOf(n.Right)
		if !ok || len(c.names) > 1 {
			return nil, false
		}

		op, left := n.Operator, n.Left
		c.nodes[0] = n
		c.wrap = append([]wrapper{{
			prec:  prec,
			right: op == "**" || op == "^",
			fill: func(x ast.Node) ast.Node {
				return &ast.BinaryNode{Operator: op, Left: left, Right: x}
			},
		}}, c.wrap...)

		return c, true
	}

	return nil, false
}

// head returns the leftmost operand of n, the right side of a '-', and the
// operator bound to it when that operator binds tighter than '-'.
func head(n ast.Node) (ast.Node, *wrapper) {
	bin, ok := n.(*ast.BinaryNode)
	if !ok {
		return n, nil
	}

	prec, ok := tighterBinary[bin.Operator]
	if !ok {
		return n, nil
	}

	atom, inner := head(bin.Left)

	op, right := bin.Operator, bin.Right
	w := &wrapper{
		prec:  prec,
		right: op == "**" || op == "^",
		fill: func(x ast.Node) ast.Node {
			return &ast.BinaryNode{Operator: op, Left: x, Right: right}
		},
	}

	if inner != nil {
		w.prec, w.right = inner.prec, inner.right
		outer, innerFill := w.fill, inner.fill
		w.fill = func(x ast.Node) ast.Node { return outer(innerFill(x)) }
	}

	return atom, w
}
