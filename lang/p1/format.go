package p1

import (
	"strings"
)

// Format renders sections back to source text in canonical layout.
//
// Parsing the result yields sections equal to the input.
func Format(sections []*Section) string {
	var b strings.Builder

	for i, s := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}

		writeSection(&b, s, s.Name)
	}

	return b.String()
}

// String renders the section as source text.
func (s *Section) String() string {
	var b strings.Builder

	writeSection(&b, s, s.Name)

	return b.String()
}

func writeHead(b *strings.Builder, kind, name string, caption *Value) {
	b.WriteString("-- ")

	if kind != "" {
		b.WriteString(kind)
		b.WriteByte(' ')
	}

	b.WriteString(name)
	b.WriteByte(':')

	if caption != nil && caption.Text != "" {
		b.WriteByte(' ')
		b.WriteString(caption.Text)
	}

	b.WriteByte('\n')
}

func writeSection(b *strings.Builder, s *Section, name string) {
	writeHead(b, s.Kind, name, s.Caption)

	if s.Condition != nil {
		b.WriteString("if: ")
		b.WriteString(s.Condition.Text)
		b.WriteByte('\n')
	}

	var nested Headers

	for _, hdr := range s.Headers {
		if hdr.Section != nil || hdr.Sections != nil || hdr.block ||
			strings.Contains(hdr.Value, "\n") {
			nested = append(nested, hdr)

			continue
		}

		writeHeader(b, hdr)
	}

	if s.Body != nil {
		writeBody(b, s.Body.Text)
	}

	for _, hdr := range nested {
		key := strings.TrimPrefix(name, "$") + "." + hdr.Key

		switch {
		case hdr.Section != nil:
			writeSection(b, hdr.Section, key)

		case hdr.Sections != nil:
			writeHead(b, hdr.Kind, key, nil)
			writeCondition(b, hdr.Condition)

			for _, sub := range hdr.Sections {
				writeSection(b, sub, sub.Name)
			}

			b.WriteString("-- end: ")
			b.WriteString(key)
			b.WriteByte('\n')

		default:
			writeHead(b, hdr.Kind, key, nil)
			writeCondition(b, hdr.Condition)
			writeBody(b, hdr.Value)
		}
	}

	if len(s.Sub) > 0 {
		for _, sub := range s.Sub {
			writeSection(b, sub, sub.Name)
		}

		b.WriteString("-- end: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
}

func writeCondition(b *strings.Builder, cond string) {
	if cond == "" {
		return
	}

	b.WriteString("if: ")
	b.WriteString(cond)
	b.WriteByte('\n')
}

func writeHeader(b *strings.Builder, hdr *Header) {
	if hdr.Kind != "" {
		b.WriteString(hdr.Kind)
		b.WriteByte(' ')
	}

	b.WriteString(hdr.Key)

	if hdr.Condition != "" {
		b.WriteString(" if { ")
		b.WriteString(hdr.Condition)
		b.WriteString(" }")
	}

	b.WriteByte(':')

	if hdr.Value != "" {
		b.WriteByte(' ')
		b.WriteString(hdr.Value)
	}

	b.WriteByte('\n')
}

func writeBody(b *strings.Builder, body string) {
	b.WriteByte('\n')

	for line := range strings.SplitSeq(body, "\n") {
		if needsEscape(line) {
			b.WriteByte('\\')
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func needsEscape(line string) bool {
	for _, lead := range []string{"--", ";;", "/"} {
		if strings.HasPrefix(line, lead) {
			return true
		}
	}

	return false
}
