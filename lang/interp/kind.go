package interp

import (
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/types"
)

// kindData reads kind text written in fr. self is the qualified name of a
// record being declared, which its own fields may name.
func (x *Interpreter) kindData(fr *frame, text, self string) (types.KindData, error) {
	d, err := types.ParseKindData(text, func(name string) (types.Kind, error) {
		q := fr.qualify(name)

		if q == self {
			return types.RecordKind(self), nil
		}

		t, ok := x.bag.Get(q)
		if !ok {
			return types.Kind{}, x.notFound(fr, q)
		}

		switch t.(type) {
		case *types.Record:
			return types.RecordKind(q), nil
		case *types.OrType:
			return types.OrTypeKind(q), nil
		}

		return types.Kind{}, lang.Errorf(lang.InvalidKind,
			"%q is a %q, not a kind", name, t.Form())
	})
	if err != nil {
		return d, err
	}

	d.Kind, err = x.qualifyKind(fr, d.Kind, self)

	return d, err
}

// valueKind reads kind text that cannot carry caption or body flags.
func (x *Interpreter) valueKind(fr *frame, text string) (types.KindData, error) {
	d, err := x.kindData(fr, text, "")
	if err != nil {
		return d, err
	}

	if d.Caption || d.Body {
		return d, lang.Errorf(lang.InvalidKind,
			"caption and body are only allowed on arguments: %q", text)
	}

	return d, nil
}

// qualifyKind qualifies the names written as "record <name>" and
// "or-type <name>" and checks that they exist.
func (x *Interpreter) qualifyKind(fr *frame, k types.Kind, self string) (types.Kind, error) {
	switch k.Tag {
	case types.TagList, types.TagOptional:
		inner, err := x.qualifyKind(fr, k.Elem(), self)
		if err != nil {
			return k, err
		}

		if k.Tag == types.TagList {
			return types.ListKind(inner), nil
		}

		return types.OptionalKind(inner), nil

	case types.TagRecord, types.TagOrType:
		if !strings.Contains(k.Name, types.Separator) {
			k.Name = fr.qualify(k.Name)
		}

		if k.Name == self {
			return k, nil
		}

		var ok bool

		if k.Tag == types.TagRecord {
			_, ok = x.bag.Record(k.Name)
		} else {
			_, ok = x.bag.OrType(k.Name)
		}

		if !ok {
			return k, x.notFound(fr, k.Name)
		}
	}

	return k, nil
}

// componentName returns the qualified name of the component the first word
// of kind text names, if it names one.
func (x *Interpreter) componentName(fr *frame, text string) (string, string, bool) {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")

	switch word {
	case "", "caption", "body", "optional", "list", "record", "or-type":
		return "", "", false
	}

	if _, err := types.ParseKind(word, nil); err == nil {
		return "", "", false
	}

	q := fr.qualify(word)
	if q == types.KernelName {
		return word, q, true
	}

	if _, ok := x.bag.Component(q); ok {
		return word, q, true
	}

	if _, ok := x.bag.WebComponent(q); ok {
		return word, q, true
	}

	return "", "", false
}
