package eval

import (
	"regexp"
	"strconv"
	"strings"
)

// refPrefix starts the identifiers substituted for "$name" references, which
// the expression grammar cannot spell.
const refPrefix = "__ref"

var (
	// refRegexp matches the name of a reference after its '$'.
	refRegexp = regexp.MustCompile(
		`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+(?:-[A-Za-z_][A-Za-z0-9_]*)*|-[A-Za-z_][A-Za-z0-9_]*)*`)

	// targetRegexp matches the name an assignment writes, possibly hyphenated.
	targetRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:-[A-Za-z_][A-Za-z0-9_]*)*`)
)

// rewriter replaces the "$name" references of a source text, which expr
// cannot lex, with placeholder identifiers. Hyphenated names are left to
// [hyphenPatcher].
type rewriter struct {
	refs   []string
	index  map[string]int
	idents map[string]string // replacement identifier to original name
}

func newRewriter() *rewriter {
	return &rewriter{
		index:  map[string]int{},
		idents: map[string]string{},
	}
}

func (r *rewriter) ref(name string) string {
	i, ok := r.index[name]
	if !ok {
		i = len(r.refs)
		r.index[name] = i
		r.refs = append(r.refs, name)
	}

	id := refPrefix + strconv.Itoa(i)
	r.idents[id] = "$" + name

	return id
}

// rewrite substitutes references outside string literals.
func (r *rewriter) rewrite(src string) string {
	var (
		b     strings.Builder
		quote byte
	)

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case quote != 0:
			b.WriteByte(c)

			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)

		case c == '$':
			m := refRegexp.FindString(src[i+1:])
			if m == "" {
				b.WriteByte(c)

				continue
			}

			b.WriteString(r.ref(m))
			i += len(m)

		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// original maps a rewritten identifier in an error message back to the name
// that was written.
func (r *rewriter) original(msg string) string {
	for id, name := range r.idents {
		msg = strings.ReplaceAll(msg, id, name)
	}

	return msg
}

// Split separates a function body into statements at top-level ';' and
// newlines. Empty statements are dropped.
func Split(src string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)

	flush := func(end int) {
		if s := strings.TrimSpace(src[start:end]); s != "" {
			out = append(out, s)
		}

		start = end + 1
	}

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'' || c == '`':
			quote = c

		case c == '(' || c == '[' || c == '{':
			depth++

		case c == ')' || c == ']' || c == '}':
			depth--

		case (c == ';' || c == '\n') && depth == 0:
			flush(i)
		}
	}

	flush(len(src))

	return out
}

// assignment splits "target op expr" where op is one of "=", "+=", "-=",
// "*=", "/=". Comparison operators are not assignments.
func assignment(stmt string) (target, op, rhs string, ok bool) {
	var (
		depth int
		quote byte
	)

	for i := 0; i < len(stmt); i++ {
		c := stmt[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'' || c == '`':
			quote = c

		case c == '(' || c == '[' || c == '{':
			depth++

		case c == ')' || c == ']' || c == '}':
			depth--

		case c == '=' && depth == 0:
			if i+1 < len(stmt) && stmt[i+1] == '=' {
				return "", "", "", false
			}

			lhs := stmt[:i]
			op = "="

			if n := len(lhs); n > 0 {
				switch lhs[n-1] {
				case '!', '<', '>', '=':
					return "", "", "", false
				case '+', '-', '*', '/':
					op = lhs[n-1:] + "="
					lhs = lhs[:n-1]
				}
			}

			target = strings.TrimSpace(lhs)
			if target == "" || targetRegexp.FindString(target) != target {
				return "", "", "", false
			}

			return target, op, strings.TrimSpace(stmt[i+1:]), true
		}
	}

	return "", "", "", false
}
