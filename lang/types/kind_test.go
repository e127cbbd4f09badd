package types

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ftd/lang"
)

func resolver(names map[string]Kind) KindResolver {
	return func(name string) (Kind, error) {
		if k, ok := names[name]; ok {
			return k, nil
		}

		return Kind{}, lang.Errorf(lang.InvalidKind, "unknown kind %q", name)
	}
}

func TestParseKindData(t *testing.T) {
	resolve := resolver(map[string]Kind{
		"point":     RecordKind("main#point"),
		"ftd.color": RecordKind("ftd#color"),
		"status":    OrTypeKind("main#status"),
	})

	tests := []struct {
		text string
		want KindData
	}{
		{"string", KindData{Kind: StringKind}},
		{"integer", KindData{Kind: IntegerKind}},
		{"caption", KindData{Kind: StringKind, Caption: true}},
		{"body", KindData{Kind: StringKind, Body: true}},
		{"caption or body string", KindData{Kind: StringKind, Caption: true, Body: true}},
		{"body or caption", KindData{Kind: StringKind, Caption: true, Body: true}},
		{"caption integer", KindData{Kind: IntegerKind, Caption: true}},
		{"list string", KindData{Kind: ListKind(StringKind)}},
		{"optional list string", KindData{Kind: OptionalKind(ListKind(StringKind))}},
		{"optional optional decimal", KindData{Kind: OptionalKind(DecimalKind)}},
		{"optional ftd.color", KindData{Kind: OptionalKind(RecordKind("ftd#color"))}},
		{"optional record ftd#color", KindData{Kind: OptionalKind(RecordKind("ftd#color"))}},
		{"point", KindData{Kind: RecordKind("main#point")}},
		{"or-type main#status", KindData{Kind: OrTypeKind("main#status")}},
		{"children", KindData{Kind: ListKind(UIKind)}},
		{"ftd.ui", KindData{Kind: UIKind}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseKindData(tt.text, resolve)
			if err != nil {
				t.Fatalf("ParseKindData() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseKindData() mismatch (-want +got):\n%s", diff)
			}

			// the canonical text reads back to an equal kind
			again, err := ParseKindData(got.String(), nil)
			if err != nil {
				t.Fatalf("ParseKindData(%q) error = %v", got.String(), err)
			}

			if !again.Equal(got) {
				t.Errorf("round trip %q: got %v, want %v", got.String(), again, got)
			}
		})
	}
}

func TestParseKind_Errors(t *testing.T) {
	tests := []struct {
		text string
	}{
		{""},
		{"caption string"},
		{"widget"},
		{"list"},
		{"string integer"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := ParseKind(tt.text, nil)
			if !errors.Is(err, lang.ErrInvalidKind) {
				t.Errorf("ParseKind(%q) error = %v, want invalid kind", tt.text, err)
			}
		})
	}
}

func TestKind_Accepts(t *testing.T) {
	tests := []struct {
		name string
		k, v Kind
		want bool
	}{
		{"same", IntegerKind, IntegerKind, true},
		{"no widening", DecimalKind, IntegerKind, false},
		{"no narrowing", IntegerKind, DecimalKind, false},
		{"optional accepts inner", OptionalKind(StringKind), StringKind, true},
		{"optional accepts optional", OptionalKind(StringKind), OptionalKind(StringKind), true},
		{"required rejects optional", StringKind, OptionalKind(StringKind), false},
		{"list items", ListKind(IntegerKind), ListKind(IntegerKind), true},
		{"list mismatch", ListKind(IntegerKind), ListKind(StringKind), false},
		{"object", ObjectKind, RecordKind("main#p"), true},
		{"record names", RecordKind("main#p"), RecordKind("lib#p"), false},
		{"or-type", OrTypeKind("main#s"), OrTypeKind("main#s"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.k.Accepts(tt.v); got != tt.want {
				t.Errorf("%v.Accepts(%v) = %v, want %v", tt.k, tt.v, got, tt.want)
			}
		})
	}
}
