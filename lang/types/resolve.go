package types

import (
	"strconv"
	"strings"
)

// Separator joins a document identifier and a name into a qualified name.
const Separator = "#"

// Join returns the qualified name of name in document doc.
func Join(doc, name string) string { return doc + Separator + name }

// SplitName splits a qualified name into its document and name. A name
// without a document returns an empty doc.
func SplitName(qualified string) (doc, name string) {
	if d, n, ok := strings.Cut(qualified, Separator); ok {
		return d, n
	}

	return "", qualified
}

// Qualify returns the fully qualified form of name as written in document
// doc. A leading segment that is an import alias ("ftd.text") selects the
// aliased module; any other name belongs to doc.
func Qualify(doc, name string, aliases map[string]string) string {
	if strings.Contains(name, Separator) {
		return name
	}

	if head, rest, ok := strings.Cut(name, "."); ok {
		if module, ok := aliases[head]; ok {
			return Join(module, rest)
		}
	}

	return Join(doc, name)
}

// Resolve finds the thing named by the longest prefix of a qualified name
// that exists in the bag, and returns the remaining field path.
//
// For "main#p.x.y" it tries "main#p.x.y", then "main#p.x", then "main#p".
func (b *Bag) Resolve(qualified string) (Thing, []string, bool) {
	name := qualified

	for {
		if t, ok := b.things[name]; ok {
			rest := strings.TrimPrefix(qualified[len(name):], ".")
			if rest == "" {
				return t, nil, true
			}

			return t, strings.Split(rest, "."), true
		}

		i := strings.LastIndexByte(name, '.')
		if i < 0 || i < strings.Index(name, Separator) {
			return nil, nil, false
		}

		name = name[:i]
	}
}

// FieldKind returns the kind reached by following path from kind k.
func (b *Bag) FieldKind(k Kind, path []string) (Kind, bool) {
	for _, seg := range path {
		k = k.Required()

		switch k.Tag {
		case TagRecord:
			r, ok := b.Record(k.Name)
			if !ok {
				return Kind{}, false
			}

			f, ok := r.Field(seg)
			if !ok {
				return Kind{}, false
			}

			k = f.Kind.Kind

		case TagList:
			if _, err := strconv.Atoi(seg); err != nil {
				return Kind{}, false
			}

			k = k.Elem()

		case TagObject:
			return ObjectKind, true

		default:
			return Kind{}, false
		}
	}

	return k, true
}

// FieldOf follows path into v through record fields, list indices, and
// optional wrappers.
func FieldOf(v Value, path []string) (PropertyValue, bool) {
	var pv PropertyValue

	for i, seg := range path {
		switch x := Unwrap(v).(type) {
		case RecordValue:
			f, ok := x.Field(seg)
			if !ok {
				return PropertyValue{}, false
			}

			pv = f

		case List:
			n, err := strconv.Atoi(seg)
			if err != nil || n < 0 || n >= len(x.Items) {
				return PropertyValue{}, false
			}

			pv = x.Items[n]

		case Object:
			m, ok := x.Native.(map[string]any)
			if !ok {
				return PropertyValue{}, false
			}

			o, ok := m[seg]
			if !ok {
				return PropertyValue{}, false
			}

			return NewValue(Object{Native: o}, 0), i == len(path)-1

		default:
			return PropertyValue{}, false
		}

		if i < len(path)-1 {
			if !pv.IsValue() {
				return PropertyValue{}, false
			}

			v = pv.Value
		}
	}

	return pv, true
}
