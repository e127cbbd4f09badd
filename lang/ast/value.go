package ast

import (
	"github.com/ardnew/ftd/lang/p1"
)

// ValueForm distinguishes the shapes a written value can take.
type ValueForm int

const (
	FormNone   ValueForm = iota // none
	FormString                  // string
	FormRecord                  // record
	FormList                    // list
)

func (f ValueForm) String() string {
	switch f {
	case FormString:
		return "string"
	case FormRecord:
		return "record"
	case FormList:
		return "list"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f ValueForm) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Value is a value as written in a document, before any kind is known.
//
// A string value is a caption, body, or header text. A record value has the
// caption, body, and headers of a section. A list value has one item per
// child section.
type Value struct {
	Form    ValueForm      `json:"form"              yaml:"form"`
	Text    string         `json:"text,omitempty"    yaml:"text,omitempty"`
	Source  PropertySource `json:"source"            yaml:"source"`
	Caption *Value         `json:"caption,omitempty" yaml:"caption,omitempty"`
	Body    *Value         `json:"body,omitempty"    yaml:"body,omitempty"`
	Headers []*HeaderValue `json:"headers,omitempty" yaml:"headers,omitempty"`
	Items   []*ListItem    `json:"items,omitempty"   yaml:"items,omitempty"`
	LineNum int            `json:"line"              yaml:"line"`
}

// HeaderValue is one field of a record value.
type HeaderValue struct {
	Key       string `json:"key"                 yaml:"key"`
	Kind      string `json:"kind,omitempty"      yaml:"kind,omitempty"`
	Mutable   bool   `json:"mutable,omitempty"   yaml:"mutable,omitempty"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Value     *Value `json:"value"               yaml:"value"`
	LineNum   int    `json:"line"                yaml:"line"`
}

// ListItem is one element of a list value.
//
// Name is the section name of the item, typically its kind ("string") or a
// component name. Invocation is the item read as a component invocation,
// used when the list holds UI values.
type ListItem struct {
	Name       string               `json:"name"  yaml:"name"`
	Value      *Value               `json:"value" yaml:"value"`
	Invocation *ComponentInvocation `json:"-"     yaml:"-"`
}

// IsNone reports whether no value was written.
func (v *Value) IsNone() bool { return v == nil || v.Form == FormNone }

// Header returns the first unconditional header value called key.
func (v *Value) Header(key string) (*HeaderValue, bool) {
	if v == nil {
		return nil, false
	}

	for _, h := range v.Headers {
		if h.Key == key && h.Condition == "" {
			return h, true
		}
	}

	return nil, false
}

// StringValue returns a string value with the given source.
func StringValue(text string, source PropertySource, line int) *Value {
	return &Value{Form: FormString, Text: text, Source: source, LineNum: line}
}

// sectionValue reads the value written by a section, ignoring the headers
// listed in skip.
func sectionValue(s *p1.Section, skip ...string) (*Value, error) {
	headers := s.Headers.Without(skip...)

	switch {
	case len(s.Sub) > 0:
		if len(headers) > 0 || s.Caption != nil || s.Body != nil {
			return recordValue(s, headers)
		}

		return listValue(s.Sub, s.Line)

	case len(headers) == 0 && s.Body == nil && s.Caption != nil:
		return StringValue(s.Caption.Text, SourceCaption, s.Caption.Line), nil

	case len(headers) == 0 && s.Caption == nil && s.Body != nil:
		return StringValue(s.Body.Text, SourceBody, s.Body.Line), nil

	case len(headers) == 0 && s.Caption == nil && s.Body == nil:
		return &Value{Form: FormNone, LineNum: s.Line}, nil
	}

	return recordValue(s, headers)
}

func recordValue(s *p1.Section, headers p1.Headers) (*Value, error) {
	v := &Value{Form: FormRecord, LineNum: s.Line}

	if s.Caption != nil {
		v.Caption = StringValue(s.Caption.Text, SourceCaption, s.Caption.Line)
	}

	if s.Body != nil {
		v.Body = StringValue(s.Body.Text, SourceBody, s.Body.Line)
	}

	for _, h := range headers {
		hv, err := headerValue(h)
		if err != nil {
			return nil, err
		}

		v.Headers = append(v.Headers, hv)
	}

	if len(s.Sub) > 0 {
		items, err := listValue(s.Sub, s.Line)
		if err != nil {
			return nil, err
		}

		v.Items = items.Items
	}

	return v, nil
}

func headerValue(h *p1.Header) (*HeaderValue, error) {
	hv := &HeaderValue{
		Key:       h.Name(),
		Kind:      h.Kind,
		Mutable:   h.IsMutable(),
		Condition: h.Condition,
		LineNum:   h.Line,
	}

	switch {
	case h.Section != nil:
		v, err := sectionValue(h.Section)
		if err != nil {
			return nil, err
		}

		hv.Value = v

	case h.Sections != nil:
		v, err := listValue(h.Sections, h.Line)
		if err != nil {
			return nil, err
		}

		hv.Value = v

	case h.Value == "" && h.Kind != "":
		hv.Value = &Value{Form: FormNone, LineNum: h.Line}

	default:
		hv.Value = StringValue(h.Value, SourceHeader, h.Line)
	}

	return hv, nil
}

func listValue(sections []*p1.Section, line int) (*Value, error) {
	v := &Value{Form: FormList, LineNum: line, Items: []*ListItem{}}

	for _, s := range sections {
		item, err := sectionValue(s)
		if err != nil {
			return nil, err
		}

		inv, err := invocation(s)
		if err != nil {
			return nil, err
		}

		name := s.Name
		if s.Kind != "" {
			name = s.Kind + " " + s.Name
		}

		v.Items = append(v.Items, &ListItem{
			Name:       name,
			Value:      item,
			Invocation: inv,
		})
	}

	return v, nil
}
