package p1

import (
	"slices"
	"strings"
)

// Value is a single line or multi-line text with the line it starts on.
type Value struct {
	Text string `json:"text" yaml:"text"`
	Line int    `json:"line" yaml:"line"`
}

// Section is the unit of structure of a document.
//
// A section starts with a line "-- [kind ]name[: caption]", continues with a
// header block, and optionally a body that begins after the first blank line.
type Section struct {
	Name      string     `json:"name"                yaml:"name"`
	Kind      string     `json:"kind,omitempty"      yaml:"kind,omitempty"`
	Caption   *Value     `json:"caption,omitempty"   yaml:"caption,omitempty"`
	Condition *Value     `json:"condition,omitempty" yaml:"condition,omitempty"`
	Headers   Headers    `json:"headers,omitempty"   yaml:"headers,omitempty"`
	Body      *Value     `json:"body,omitempty"      yaml:"body,omitempty"`
	Sub       []*Section `json:"sub,omitempty"       yaml:"sub,omitempty"`
	Line      int        `json:"line"                yaml:"line"`

	// Commented sections are parsed for error reporting and then dropped.
	commented bool
	// closed sections cannot adopt children or be targeted by "end".
	closed bool
	// owner is the section a header section contributes a header to.
	owner *Section
	// key is the header key of a header section.
	key string
}

// Header is a "key: value" line of a section, or a header section
// "-- name.key:" contributing one.
//
// A header holds a plain string value, a nested section (record literal), or
// a list of sections collected up to "-- end: name.key". A header with a Kind
// is a typed declaration, such as a record field or component argument.
type Header struct {
	Key       string     `json:"key"                 yaml:"key"`
	Kind      string     `json:"kind,omitempty"      yaml:"kind,omitempty"`
	Condition string     `json:"condition,omitempty" yaml:"condition,omitempty"`
	Value     string     `json:"value,omitempty"     yaml:"value,omitempty"`
	Section   *Section   `json:"section,omitempty"   yaml:"section,omitempty"`
	Sections  []*Section `json:"sections,omitempty"  yaml:"sections,omitempty"`
	Line      int        `json:"line"                yaml:"line"`

	// block is set when the value came from a header section body.
	block bool
}

// Headers is an ordered list of headers. Keys may repeat.
type Headers []*Header

// Get returns the first unconditional header with the given key.
func (h Headers) Get(key string) (*Header, bool) {
	for _, hdr := range h {
		if hdr.Key == key && hdr.Condition == "" {
			return hdr, true
		}
	}

	return nil, false
}

// All returns every header with the given key, in order.
func (h Headers) All(key string) Headers {
	var out Headers

	for _, hdr := range h {
		if hdr.Key == key {
			out = append(out, hdr)
		}
	}

	return out
}

// Without returns the headers whose key is not one of keys.
func (h Headers) Without(keys ...string) Headers {
	out := make(Headers, 0, len(h))

	for _, hdr := range h {
		if !slices.Contains(keys, hdr.Key) {
			out = append(out, hdr)
		}
	}

	return out
}

// IsMutable reports whether the header declares a mutable name ("$name").
func (hdr *Header) IsMutable() bool {
	return strings.HasPrefix(hdr.Key, "$") && !strings.HasSuffix(hdr.Key, "$")
}

// Name returns the header key without a mutability marker.
func (hdr *Header) Name() string {
	if hdr.IsMutable() {
		return hdr.Key[1:]
	}

	return hdr.Key
}

// IsMutable reports whether the section declares a mutable name ("$name").
func (s *Section) IsMutable() bool {
	return strings.HasPrefix(s.Name, "$")
}

// Ident returns the section name without a mutability marker.
func (s *Section) Ident() string {
	return strings.TrimPrefix(s.Name, "$")
}

// CaptionText returns the caption, or the empty string.
func (s *Section) CaptionText() string {
	if s.Caption == nil {
		return ""
	}

	return s.Caption.Text
}

// BodyText returns the body, or the empty string.
func (s *Section) BodyText() string {
	if s.Body == nil {
		return ""
	}

	return s.Body.Text
}

// IsEmpty reports whether the section carries no value at all.
func (s *Section) IsEmpty() bool {
	return s.Caption == nil && s.Body == nil && len(s.Headers) == 0 &&
		len(s.Sub) == 0
}

// Walk calls fn for s and each of its descendants in depth-first order,
// including sections held by headers. Walk stops when fn returns false.
func (s *Section) Walk(fn func(*Section) bool) bool {
	if !fn(s) {
		return false
	}

	for _, hdr := range s.Headers {
		if hdr.Section != nil && !hdr.Section.Walk(fn) {
			return false
		}

		for _, sub := range hdr.Sections {
			if !sub.Walk(fn) {
				return false
			}
		}
	}

	for _, sub := range s.Sub {
		if !sub.Walk(fn) {
			return false
		}
	}

	return true
}
