// Package ast classifies the sections of a document into declarations.
//
// Each top-level section becomes one [Ast]: an import, a record, an or-type,
// a function, a component or web-component definition, a variable definition
// or invocation, or a component invocation. Values are kept as written
// ([Value]); kinds are resolved later by the interpreter.
package ast
