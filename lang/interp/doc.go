// Package interp interprets ftd documents into a bag of typed things.
//
// An [Interpreter] reads the declarations of a root document in order,
// resolving every name against the things declared before it. Every
// document sees the built-in "ftd" module (see [Prelude]) under the alias
// "ftd" and may import others:
//
//	-- import: lib
//	exposing: title
//
// Interpretation suspends whenever it needs something only the host can
// provide: the source of an imported module ([StuckOnImport]), the output
// of a "$processor$" ([StuckOnProcessor]), or a variable of a module the
// host owns ([StuckOnForeignVariable]). The host answers with the matching
// Continue method until the interpreter reports [Done].
//
// Values that can never change are folded while interpreting: references
// to immutable variables, clones, and conditions over them. Everything that
// reads mutable state stays symbolic and is resolved by the executor in
// package [github.com/ardnew/ftd/lang/exec].
package interp
