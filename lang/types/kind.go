package types

import (
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Tag identifies the variant of a [Kind].
type Tag int

const (
	TagVoid     Tag = iota // void
	TagBoolean             // boolean
	TagInteger             // integer
	TagDecimal             // decimal
	TagString              // string
	TagObject              // object
	TagRecord              // record
	TagOrType              // or-type
	TagList                // list
	TagOptional            // optional
	TagUI                  // ui
)

var tagNames = [...]string{
	TagVoid:     "void",
	TagBoolean:  "boolean",
	TagInteger:  "integer",
	TagDecimal:  "decimal",
	TagString:   "string",
	TagObject:   "object",
	TagRecord:   "record",
	TagOrType:   "or-type",
	TagList:     "list",
	TagOptional: "optional",
	TagUI:       "ui",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}

	return tagNames[t]
}

// Kind is a type of the language.
//
// Record and or-type kinds carry the fully qualified name of their
// declaration; list and optional kinds carry their element kind.
type Kind struct {
	Tag   Tag    `json:"tag"             yaml:"tag"`
	Name  string `json:"name,omitempty"  yaml:"name,omitempty"`
	Inner *Kind  `json:"inner,omitempty" yaml:"inner,omitempty"`
}

// Built-in kinds.
var (
	VoidKind    = Kind{Tag: TagVoid}
	BooleanKind = Kind{Tag: TagBoolean}
	IntegerKind = Kind{Tag: TagInteger}
	DecimalKind = Kind{Tag: TagDecimal}
	StringKind  = Kind{Tag: TagString}
	ObjectKind  = Kind{Tag: TagObject}
	UIKind      = Kind{Tag: TagUI}
)

// RecordKind returns the kind of values of the record declared as name.
func RecordKind(name string) Kind { return Kind{Tag: TagRecord, Name: name} }

// OrTypeKind returns the kind of values of the or-type declared as name.
func OrTypeKind(name string) Kind { return Kind{Tag: TagOrType, Name: name} }

// ListKind returns the kind of lists of item.
func ListKind(item Kind) Kind { return Kind{Tag: TagList, Inner: &item} }

// OptionalKind returns the kind of optional values of inner.
// An optional kind is never nested: OptionalKind(OptionalKind(k)) equals
// OptionalKind(k).
func OptionalKind(inner Kind) Kind {
	if inner.Tag == TagOptional {
		return inner
	}

	return Kind{Tag: TagOptional, Inner: &inner}
}

// String returns the canonical kind text, which [ParseKind] reads back to an
// equal kind.
func (k Kind) String() string {
	switch k.Tag {
	case TagRecord, TagOrType:
		return k.Tag.String() + " " + k.Name
	case TagList, TagOptional:
		return k.Tag.String() + " " + k.Elem().String()
	default:
		return k.Tag.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Elem returns the element kind of a list or optional kind, or void.
func (k Kind) Elem() Kind {
	if k.Inner == nil {
		return VoidKind
	}

	return *k.Inner
}

// Equal reports whether k and o denote the same kind.
func (k Kind) Equal(o Kind) bool {
	if k.Tag != o.Tag || k.Name != o.Name {
		return false
	}

	if k.Tag == TagList || k.Tag == TagOptional {
		return k.Elem().Equal(o.Elem())
	}

	return true
}

func (k Kind) IsOptional() bool { return k.Tag == TagOptional }
func (k Kind) IsList() bool     { return k.Tag == TagList }
func (k Kind) IsRecord() bool   { return k.Tag == TagRecord }
func (k Kind) IsOrType() bool   { return k.Tag == TagOrType }
func (k Kind) IsUI() bool       { return k.Tag == TagUI }
func (k Kind) IsVoid() bool     { return k.Tag == TagVoid }

// Required returns k without an optional wrapper.
func (k Kind) Required() Kind {
	if k.Tag == TagOptional {
		return k.Elem()
	}

	return k
}

// Accepts reports whether a value of kind v may be bound to k.
//
// A kind accepts itself. An optional kind also accepts its element kind,
// and object accepts everything. Numeric kinds never widen.
func (k Kind) Accepts(v Kind) bool {
	switch {
	case k.Tag == TagObject:
		return true
	case k.Equal(v):
		return true
	case k.Tag == TagOptional:
		return k.Elem().Accepts(v.Required())
	case k.Tag == TagList && v.Tag == TagList:
		return k.Elem().Accepts(v.Elem())
	}

	return false
}

// KindData is a kind in argument position, where it may also be flagged as
// accepting a section caption or body.
type KindData struct {
	Kind    Kind `json:"kind"              yaml:"kind"`
	Caption bool `json:"caption,omitempty" yaml:"caption,omitempty"`
	Body    bool `json:"body,omitempty"    yaml:"body,omitempty"`
}

// Data returns k in argument position without flags.
func (k Kind) Data() KindData { return KindData{Kind: k} }

// Nested returns the kind without position flags.
func (d KindData) Nested() KindData { return KindData{Kind: d.Kind} }

func (d KindData) String() string {
	switch {
	case d.Caption && d.Body:
		return "caption or body " + d.Kind.String()
	case d.Caption:
		return "caption " + d.Kind.String()
	case d.Body:
		return "body " + d.Kind.String()
	}

	return d.Kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (d KindData) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Equal reports whether d and o have equal kinds and flags.
func (d KindData) Equal(o KindData) bool {
	return d.Caption == o.Caption && d.Body == o.Body && d.Kind.Equal(o.Kind)
}

// KindResolver maps a user-defined kind name, as written, to a kind.
type KindResolver func(name string) (Kind, error)

var builtinKinds = map[string]Kind{
	"void":     VoidKind,
	"boolean":  BooleanKind,
	"integer":  IntegerKind,
	"decimal":  DecimalKind,
	"string":   StringKind,
	"object":   ObjectKind,
	"ui":       UIKind,
	"ftd.ui":   UIKind,
	"children": ListKind(UIKind),
}

// ParseKind reads kind text without position flags.
func ParseKind(text string, resolve KindResolver) (Kind, error) {
	d, err := ParseKindData(text, resolve)
	if err != nil {
		return Kind{}, err
	}

	if d.Caption || d.Body {
		return Kind{}, lang.Errorf(lang.InvalidKind,
			"caption and body are only allowed on arguments: %q", text)
	}

	return d.Kind, nil
}

// ParseKindData reads "[caption|body|caption or body] [optional] [list]
// <base>". A bare "caption" or "body" is a string.
//
// <base> is a built-in kind, "record <name>", "or-type <name>", or a name
// passed to resolve.
func ParseKindData(text string, resolve KindResolver) (KindData, error) {
	words := strings.Fields(text)

	var d KindData

	words = parseFlags(words, &d)

	if len(words) == 0 {
		if !d.Caption && !d.Body {
			return d, lang.NewError(lang.InvalidKind, "empty kind")
		}

		d.Kind = StringKind

		return d, nil
	}

	var wrap []Tag

	for len(words) > 1 && (words[0] == "optional" || words[0] == "list") {
		if words[0] == "optional" {
			wrap = append(wrap, TagOptional)
		} else {
			wrap = append(wrap, TagList)
		}

		words = words[1:]
	}

	base, err := parseBase(words, resolve)
	if err != nil {
		return d, lang.WrapError(err).With(log.Kind(text))
	}

	for i := len(wrap) - 1; i >= 0; i-- {
		if wrap[i] == TagOptional {
			base = OptionalKind(base)
		} else {
			base = ListKind(base)
		}
	}

	d.Kind = base

	return d, nil
}

func parseFlags(words []string, d *KindData) []string {
	switch {
	case len(words) >= 3 && words[1] == "or" &&
		(words[0] == "caption" && words[2] == "body" ||
			words[0] == "body" && words[2] == "caption"):
		d.Caption, d.Body = true, true

		return words[3:]

	case len(words) >= 1 && words[0] == "caption":
		d.Caption = true

		return words[1:]

	case len(words) >= 1 && words[0] == "body":
		d.Body = true

		return words[1:]
	}

	return words
}

func parseBase(words []string, resolve KindResolver) (Kind, error) {
	switch {
	case len(words) == 2 && words[0] == "record":
		return RecordKind(words[1]), nil

	case len(words) == 2 && words[0] == "or-type":
		return OrTypeKind(words[1]), nil

	case len(words) != 1:
		return Kind{}, lang.Errorf(lang.InvalidKind,
			"unexpected words in kind %q", strings.Join(words, " "))
	}

	if k, ok := builtinKinds[words[0]]; ok {
		return k, nil
	}

	if resolve == nil {
		return Kind{}, lang.Errorf(lang.InvalidKind, "unknown kind %q", words[0])
	}

	return resolve(words[0])
}
