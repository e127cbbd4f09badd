package interp

import (
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/types"
)

// notFound reports that qualified names nothing, suggesting the closest
// name visible from fr.
func (x *Interpreter) notFound(fr *frame, qualified string) error {
	written := fr.written(qualified)

	if s, ok := suggest(written, x.visible(fr)); ok {
		return lang.Errorf(lang.ValueNotFound,
			"%q is not declared; did you mean %q?", written, s).
			With(slog.String("suggestion", s))
	}

	return lang.Errorf(lang.ValueNotFound, "%q is not declared", written)
}

// written returns qualified as it would be written in fr.
func (fr *frame) written(qualified string) string {
	doc, name := types.SplitName(qualified)

	switch {
	case doc == "", doc == fr.name:
		return name
	}

	for alias, module := range fr.aliases {
		if module == doc {
			return alias + "." + name
		}
	}

	return qualified
}

// visible lists the names fr can refer to, as written.
func (x *Interpreter) visible(fr *frame) []string {
	var out []string

	for _, q := range x.bag.Names() {
		doc, name := types.SplitName(q)
		if doc == fr.name {
			out = append(out, name)

			continue
		}

		for alias, module := range fr.aliases {
			if module == doc {
				out = append(out, alias+"."+name)
			}
		}
	}

	for name := range fr.exposed {
		out = append(out, name)
	}

	return out
}

// suggest returns the candidate that best matches word: the best candidate
// word abbreviates, or else the longest candidate that abbreviates word.
func suggest(word string, candidates []string) (string, bool) {
	if word == "" || len(candidates) == 0 {
		return "", false
	}

	if m := fuzzy.Find(word, candidates); len(m) > 0 {
		return m[0].Str, true
	}

	best := ""

	for _, c := range candidates {
		if len(c) < 2 || len(c) <= len(best) {
			continue
		}

		if m := fuzzy.Find(c, []string{word}); len(m) > 0 &&
			strings.HasPrefix(word, c[:1]) {
			best = c
		}
	}

	return best, best != ""
}
