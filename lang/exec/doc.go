// Package exec turns the root invocations of an interpreted document into a
// tree of [Element] values.
//
// Component invocations are expanded through their definitions until only
// kernel components (text, row, column, and the rest) and web components
// remain. Properties resolve against the bag, the arguments of the
// enclosing definition, and loop binders. Values that read mutable state
// are kept symbolic: conditional style attributes and visibility conditions
// carry the qualified names of the variables they depend on, and event
// actions carry references into the bag.
//
// A [Runtime] owns a bag and fires events against it. Functions run through
// the [github.com/ardnew/ftd/lang/eval] package; mutable arguments bound to
// variables are written back when the function returns.
package exec
