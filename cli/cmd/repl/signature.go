package repl

import (
	"iter"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
)

// builtinSignatures lists the parameters of the functions every expression
// may call.
var builtinSignatures = map[string][]string{
	"is_empty":           {"value"},
	"append":             {"list", "item"},
	"enable_dark_mode":   nil,
	"enable_light_mode":  nil,
	"enable_system_mode": nil,
	"len":                {"v"},
	"join":               {"list", "separator"},
	"split":              {"string", "separator"},
	"upper":              {"string"},
	"lower":              {"string"},
	"trim":               {"string"},
	"string":             {"v"},
	"int":                {"v"},
	"float":              {"v"},
}

// builtinNames returns the names of the functions every expression may call.
func builtinNames() iter.Seq[string] { return maps.Keys(builtinSignatures) }

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string
	argIndex int
	inCall   bool
}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall finds the innermost unclosed call before cursor and the
// index of the argument the cursor is in.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := strings.TrimPrefix(input[start:open], "ftd.")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// getSignature returns the signature of a function callable from the root
// document and its parameter names, or "" if name is not callable.
func getSignature(doc *interp.Document, name string) (signature string, params []string) {
	if doc != nil {
		q := types.Qualify(doc.Name, name, doc.Aliases)
		if f, ok := doc.Bag.Function(q); ok {
			params = make([]string, len(f.Arguments))
			for i, a := range f.Arguments {
				params[i] = a.Name
			}

			return formatSignature(name, params) + " " + f.ReturnKind.String(), params
		}
	}

	if params, ok := builtinSignatures[name]; ok {
		return formatSignature(name, params), params
	}

	return "", nil
}

func formatSignature(name string, params []string) string {
	return name + "(" + strings.Join(params, ", ") + ")"
}

// renderSignatureHint renders a signature with the parameter at argIdx
// highlighted.
func renderSignatureHint(signature string, params []string, argIdx int) string {
	open := strings.Index(signature, "(")
	if open < 0 {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(signature[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == argIdx {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(signature[strings.LastIndex(signature, ")"):]))

	return b.String()
}
