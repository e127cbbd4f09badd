// Package eval evaluates the expressions of ftd documents: conditions,
// loop sources, and function bodies.
//
// Expressions are compiled with [github.com/expr-lang/expr]. "$name"
// references, which expr cannot lex, are rewritten to placeholder
// identifiers before compilation. Hyphenated local names ("is-open") and
// function names ("ftd.enable-dark-mode") parse as subtractions and are
// joined back by an AST patcher. Operands are supplied at run time as a map
// of [Value] keyed by the name as written.
//
//	e := eval.New()
//	p, _ := e.Compile("a = !a", "a")
//	values := map[string]eval.Value{"a": eval.Boolean(false)}
//	p.Run(ctx, values) // values["a"] is now true
package eval
