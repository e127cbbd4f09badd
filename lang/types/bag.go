package types

import (
	"iter"
	"slices"

	"github.com/goccy/go-yaml"
)

// Bag is an ordered table of things keyed by fully qualified name.
//
// Insertion order is kept for deterministic listings and diagnostics.
// The zero value is not usable; call [NewBag].
type Bag struct {
	names  []string
	things map[string]Thing
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{things: map[string]Thing{}}
}

// Len returns the number of things in the bag.
func (b *Bag) Len() int { return len(b.names) }

// Get returns the thing named name.
func (b *Bag) Get(name string) (Thing, bool) {
	t, ok := b.things[name]

	return t, ok
}

// Has reports whether a thing named name exists.
func (b *Bag) Has(name string) bool {
	_, ok := b.things[name]

	return ok
}

// Set inserts t, replacing any thing of the same name in place.
func (b *Bag) Set(t Thing) {
	name := t.Key()
	if _, ok := b.things[name]; !ok {
		b.names = append(b.names, name)
	}

	b.things[name] = t
}

// Names returns the names of all things in insertion order.
func (b *Bag) Names() []string { return slices.Clone(b.names) }

// All iterates over the bag in insertion order.
func (b *Bag) All() iter.Seq2[string, Thing] {
	return func(yield func(string, Thing) bool) {
		for _, name := range b.names {
			if !yield(name, b.things[name]) {
				return
			}
		}
	}
}

// Clone returns a copy of the bag that can be mutated independently.
func (b *Bag) Clone() *Bag {
	c := &Bag{
		names:  slices.Clone(b.names),
		things: make(map[string]Thing, len(b.things)),
	}

	for name, t := range b.things {
		c.things[name] = t.clone()
	}

	return c
}

// Variable returns the variable named name.
func (b *Bag) Variable(name string) (*Variable, bool) {
	v, ok := b.things[name].(*Variable)

	return v, ok
}

// Function returns the function named name.
func (b *Bag) Function(name string) (*Function, bool) {
	f, ok := b.things[name].(*Function)

	return f, ok
}

// Record returns the record named name.
func (b *Bag) Record(name string) (*Record, bool) {
	r, ok := b.things[name].(*Record)

	return r, ok
}

// OrType returns the or-type named name.
func (b *Bag) OrType(name string) (*OrType, bool) {
	o, ok := b.things[name].(*OrType)

	return o, ok
}

// Component returns the component definition named name.
func (b *Bag) Component(name string) (*ComponentDefinition, bool) {
	c, ok := b.things[name].(*ComponentDefinition)

	return c, ok
}

// WebComponent returns the web-component definition named name.
func (b *Bag) WebComponent(name string) (*WebComponentDefinition, bool) {
	c, ok := b.things[name].(*WebComponentDefinition)

	return c, ok
}

// MarshalYAML implements yaml.InterfaceMarshaler, keeping insertion order.
func (b *Bag) MarshalYAML() (any, error) {
	out := make(yaml.MapSlice, 0, len(b.names))

	for name, t := range b.All() {
		out = append(out, yaml.MapItem{Key: name, Value: Describe(t)})
	}

	return out, nil
}

// MarshalJSON implements json.Marshaler, keeping insertion order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	v, err := b.MarshalYAML()
	if err != nil {
		return nil, err
	}

	return yaml.MarshalWithOptions(v, yaml.JSON())
}
