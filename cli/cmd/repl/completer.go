package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "show", "tree", "fire", "call",
	"reload", "edit", "clear", "quit",
}

// isWordBoundary reports whether r ends a word for completion. Hyphens are
// not boundaries because ftd names contain them (e.g. "dark-mode").
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '$',
		'(', ')', '[', ']', '{', '}',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';', '"':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets in input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain before the word starting at
// wordStart, without its "$". For "1 + $page.title.le" and the word "le" it
// is "page.title". It is empty for a word that is not a member.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// referenced reports whether the word starting at wordStart, or the chain it
// belongs to, follows a "$".
func referenced(input string, wordStart int) bool {
	pos := wordStart
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:pos])
		if r == '$' {
			return true
		}

		if r != '.' && isWordBoundary(r) {
			return false
		}

		pos -= size
	}

	return false
}

// rootCandidates returns the names a "$" reference may start with: the
// variables of the root document and those its imports expose, unqualified,
// and its import aliases.
func rootCandidates(doc *interp.Document) []string {
	var names []string

	for name, thing := range doc.Bag.All() {
		if _, ok := thing.(*types.Variable); !ok {
			continue
		}

		if d, n := types.SplitName(name); d == doc.Name {
			names = append(names, n)
		}
	}

	for _, eq := range doc.Equalities {
		if d, n := types.SplitName(eq.From); d == doc.Name {
			names = append(names, n)
		}
	}

	for alias := range doc.Aliases {
		names = append(names, alias)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// memberCandidates returns the names that may follow parent and a dot: the
// variables of an aliased module, or the fields of a record value.
func memberCandidates(doc *interp.Document, parent string) []string {
	if module, ok := doc.Aliases[parent]; ok {
		var names []string

		for name, thing := range doc.Bag.All() {
			if _, ok := thing.(*types.Variable); !ok {
				continue
			}

			if d, n := types.SplitName(name); d == module && !strings.Contains(n, ".") {
				names = append(names, n)
			}
		}

		slices.Sort(names)

		return names
	}

	t, path, ok := doc.Bag.Resolve(types.Qualify(doc.Name, parent, doc.Aliases))
	if !ok {
		return nil
	}

	v, ok := t.(*types.Variable)
	if !ok {
		return nil
	}

	k, ok := doc.Bag.FieldKind(v.Kind.Kind, path)
	if !ok {
		return nil
	}

	r, ok := doc.Bag.Record(k.Required().Name)
	if !ok {
		return nil
	}

	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}

	return names
}

// functionCandidates returns the functions an expression may call.
func functionCandidates(doc *interp.Document) []string {
	names := slices.Collect(builtinNames())

	for name, thing := range doc.Bag.All() {
		if _, ok := thing.(*types.Function); !ok {
			continue
		}

		if d, n := types.SplitName(name); d == doc.Name {
			names = append(names, n)
		}
	}

	slices.Sort(names)

	return names
}

// thingCandidates returns every definition name as written in the root
// document, used by the show and call commands.
func thingCandidates(doc *interp.Document, forms ...string) []string {
	var names []string

	for name, thing := range doc.Bag.All() {
		if len(forms) > 0 && !slices.Contains(forms, thing.Form()) {
			continue
		}

		if d, n := types.SplitName(name); d == doc.Name {
			names = append(names, n)
		} else {
			names = append(names, name)
		}
	}

	return names
}

// elementCandidates returns the ids of the elements in tree.
func elementCandidates(tree *exec.Tree) []string {
	var ids []string

	tree.Walk(func(el *exec.Element) bool {
		if el.ID != "" {
			ids = append(ids, el.ID)
		}

		return true
	})

	return ids
}

// ctrlCandidates returns completions for a word of a control command: the
// command itself, or its argument.
func ctrlCandidates(s *session, input string, wordStart int) []string {
	fields := strings.Fields(input[:wordStart])
	if len(fields) == 0 {
		return ctrlCommands
	}

	if s == nil || s.doc == nil {
		return nil
	}

	switch fields[0] {
	case "show", "list":
		if len(fields) == 1 {
			return thingCandidates(s.doc)
		}
	case "call":
		if len(fields) == 1 {
			return thingCandidates(s.doc, (&types.Function{}).Form())
		}
	case "fire":
		if len(fields) == 1 {
			return elementCandidates(s.tree)
		}
	}

	return nil
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best first. After a member dot, every member matches an
// empty word so the user can browse them.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var browse bool

	switch {
	case m.mode == modeCtrl:
		candidates = ctrlCandidates(m.session, input, wordStart)
	case m.session == nil || m.session.doc == nil:
		candidates = nil
	case parentPath(input, wordStart) != "" && referenced(input, wordStart):
		candidates = memberCandidates(m.session.doc, parentPath(input, wordStart))
		browse = true
	case referenced(input, wordStart):
		candidates = rootCandidates(m.session.doc)
		browse = wordStart > 0 && input[wordStart-1] == '$'
	default:
		candidates = functionCandidates(m.session.doc)
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if !browse {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	var (
		b        strings.Builder
		used     int
		ellipsis = hintStyle.Render("...")
		reserve  = lipgloss.Width(sep) + lipgloss.Width(ellipsis)
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)
		}

		if i > 0 && i < len(matches)-1 && used+w+reserve > width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Callable names get a "()" suffix that is not inserted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, highlight = selectedStyle, selectedStyle.Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if _, ok := builtinSignatures[match.Str]; ok {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
