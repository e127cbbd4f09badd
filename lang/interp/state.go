package interp

import (
	"github.com/ardnew/ftd/lang/p1"
	"github.com/ardnew/ftd/lang/types"
)

// State is the result of a step of the interpreter. Every state but
// [*Done] asks the host for input before interpretation can continue.
//
// The set of implementations is closed: [*StuckOnImport],
// [*StuckOnProcessor], [*StuckOnForeignVariable], and [*Done].
type State interface {
	// Name names the state, for diagnostics.
	Name() string

	isState()
}

// StuckOnImport asks for the source text of Module. Continue with
// [Interpreter.ContinueAfterImport].
type StuckOnImport struct {
	Module string
	// Importer is the document whose import needs the module.
	Importer string
	Line     int
}

// StuckOnProcessor asks for the value of a variable whose definition names
// a processor. Continue with [Interpreter.ContinueAfterProcessor].
type StuckOnProcessor struct {
	// Variable is the qualified name of the variable being defined.
	Variable  string
	Processor string
	// Kind is the declared kind the value will be converted to.
	Kind types.Kind
	// Meta holds the other headers of the definition.
	Meta p1.Headers
	Doc  string
	Line int
}

// StuckOnForeignVariable asks for the value of a variable in a module whose
// variables the host owns. Continue with
// [Interpreter.ContinueAfterVariable].
type StuckOnForeignVariable struct {
	// Variable is the qualified name, such as "env#home".
	Variable string
	Module   string
	Doc      string
	Line     int
}

// Done holds the interpreted document.
type Done struct {
	Document *Document
}

func (*StuckOnImport) Name() string          { return "stuck-on-import" }
func (*StuckOnProcessor) Name() string       { return "stuck-on-processor" }
func (*StuckOnForeignVariable) Name() string { return "stuck-on-foreign-variable" }
func (*Done) Name() string                   { return "done" }

func (*StuckOnImport) isState()          {}
func (*StuckOnProcessor) isState()       {}
func (*StuckOnForeignVariable) isState() {}
func (*Done) isState()                   {}
