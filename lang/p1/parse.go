package p1

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Option configures a parse.
type Option func(*parser)

// WithLogger sets the logger used to trace parsing.
func WithLogger(logger log.Logger) Option {
	return func(p *parser) { p.logger = logger }
}

// ParseReader parses the sections of document doc read from r.
func ParseReader(
	ctx context.Context,
	doc string,
	r io.Reader,
	opts ...Option,
) ([]*Section, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lang.NewError(lang.OtherError, "failed to read input").
			WithDoc(doc).
			Wrap(err)
	}

	return ParseString(ctx, doc, string(data), opts...)
}

// ParseString parses the sections of document doc.
//
// The result lists the top-level sections in source order. Sections opened
// after a section that is later closed with "-- end: name" are its children.
func ParseString(
	ctx context.Context,
	doc string,
	s string,
	opts ...Option,
) ([]*Section, error) {
	p := &parser{doc: doc}

	for _, opt := range opts {
		opt(p)
	}

	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), len(s)+1)

	for n := 1; sc.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, lang.WrapError(err).WithDoc(doc)
		}

		if err := p.line(n, strings.TrimRight(sc.Text(), "\r")); err != nil {
			return nil, err
		}
	}

	sections, err := p.finish()
	if err != nil {
		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		log.Doc(doc),
		log.Line(p.lines),
	)

	return sections, nil
}

type readState int

const (
	stateHeader readState = iota
	stateBody
)

// headerAfterBody matches body lines that can only be meant as headers.
var headerAfterBody = regexp.MustCompile(
	`^(if|\$loop\$|\$on-[A-Za-z0-9_-]+\$|\$processor\$)\s*:`,
)

type parser struct {
	doc     string
	logger  log.Logger
	pending []*Section // sections at the current outermost level
	cur     *Section   // section being read
	sub     *Section   // sub-section of cur being read
	state   readState
	body    []string
	bodyAt  int
	lines   int
}

func (p *parser) errorf(line int, msg string, names ...string) *lang.Error {
	return lang.Errorf(lang.ParseError, msg, names...).At(p.doc, line)
}

// target returns the section that header and body lines belong to.
func (p *parser) target() *Section {
	if p.sub != nil {
		return p.sub
	}

	return p.cur
}

func (p *parser) line(n int, line string) error {
	p.lines = n

	switch {
	case strings.HasPrefix(line, ";;"):
		return nil

	case line == "---" || strings.HasPrefix(line, "--- "):
		return p.seal(n, strings.TrimSpace(line[3:]))

	case line == "--" || strings.HasPrefix(line, "-- "):
		return p.startSection(n, line[2:], false)

	case strings.HasPrefix(line, "/-- "):
		return p.startSection(n, line[3:], true)

	case p.state == stateHeader && strings.HasPrefix(line, "- "):
		return p.startSub(n, line[1:], false)

	case p.state == stateHeader && strings.HasPrefix(line, "/- "):
		return p.startSub(n, line[2:], true)
	}

	return p.content(n, line)
}

// splitHead splits "[kind ]name[: caption]" into its parts.
func (p *parser) splitHead(n int, rest string) (*Section, error) {
	head, caption, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, p.errorf(n, "section line %q must contain ':'",
			strings.TrimSpace(rest))
	}

	kind, name := splitKind(head)
	if name == "" {
		return nil, p.errorf(n, "section name is missing")
	}

	s := &Section{Name: name, Kind: kind, Line: n}

	if c := strings.TrimSpace(caption); c != "" {
		s.Caption = &Value{Text: c, Line: n}
	}

	return s, nil
}

func (p *parser) startSection(n int, rest string, commented bool) error {
	if err := p.commit(); err != nil {
		return err
	}

	s, err := p.splitHead(n, rest)
	if err != nil {
		return err
	}

	s.commented = commented

	if s.Name == "end" && s.Kind == "" {
		if commented {
			// a commented end still consumes the lines that follow it
			p.cur = s
			p.state = stateHeader

			return nil
		}

		return p.end(n, s.CaptionText())
	}

	p.cur = s
	p.state = stateHeader

	return nil
}

func (p *parser) startSub(n int, rest string, commented bool) error {
	if p.cur == nil {
		return p.errorf(n, "sub-section outside of a section")
	}

	p.flushBody()

	s, err := p.splitHead(n, rest)
	if err != nil {
		return err
	}

	s.commented = commented || p.cur.commented
	if !s.commented {
		p.cur.Sub = append(p.cur.Sub, s)
	}

	p.sub = s
	p.state = stateHeader

	return nil
}

func (p *parser) content(n int, line string) error {
	t := p.target()

	if t == nil {
		switch trimmed := strings.TrimSpace(line); {
		case trimmed == "":
			return nil
		case strings.HasPrefix(trimmed, "--"):
			return p.errorf(n, "unexpected indent")
		default:
			return p.errorf(n, "expected a section start, found %q", trimmed)
		}
	}

	if p.state == stateHeader {
		return p.header(n, t, line)
	}

	if t.commented {
		return nil
	}

	if m := headerAfterBody.FindStringSubmatch(line); m != nil {
		return p.errorf(n, "header %q after body", m[1])
	}

	if len(p.body) == 0 && strings.TrimSpace(line) == "" {
		return nil
	}

	if len(p.body) == 0 {
		p.bodyAt = n
	}

	p.body = append(p.body, unescape(line))

	return nil
}

func (p *parser) header(n int, t *Section, line string) error {
	if strings.TrimSpace(line) == "" {
		p.state = stateBody

		return nil
	}

	if line[0] == ' ' || line[0] == '\t' {
		return p.errorf(n, "unexpected indent")
	}

	if line[0] == '/' || t.commented {
		return nil
	}

	if t.Name == "end" {
		return p.errorf(n, "end section cannot have headers")
	}

	left, value, ok := cutHeader(line)
	if !ok {
		return p.errorf(n,
			"expected header %q to be 'key: value'; start the body after a blank line",
			line)
	}

	var cond string

	if i := strings.Index(left, " if "); i >= 0 {
		cond = trimCondition(left[i+4:])
		left = left[:i]
	}

	kind, key := splitKind(left)
	if key == "" {
		return p.errorf(n, "header key is missing")
	}

	hdr := &Header{
		Key:       key,
		Kind:      kind,
		Condition: cond,
		Value:     strings.TrimSpace(value),
		Line:      n,
	}

	if hdr.Key == "if" && hdr.Kind == "" && cond == "" {
		if t.Condition != nil {
			return p.errorf(n, "duplicate 'if' header")
		}

		t.Condition = &Value{Text: trimCondition(hdr.Value), Line: n}

		return nil
	}

	t.Headers = append(t.Headers, hdr)

	return nil
}

// cutHeader splits a header line at the colon that ends its key. Colons
// inside an "if { ... }" condition belong to the condition.
func cutHeader(line string) (left, value string, ok bool) {
	from := 0

	if i := strings.Index(line, " if {"); i >= 0 {
		if c := strings.IndexByte(line, ':'); c > i {
			depth := 0

		scan:
			for j := i + 4; j < len(line); j++ {
				switch line[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						from = j + 1

						break scan
					}
				}
			}
		}
	}

	c := strings.IndexByte(line[from:], ':')
	if c < 0 {
		return "", "", false
	}

	return line[:from+c], line[from+c+1:], true
}

// splitKind splits "[kind ]name" at the last word. A name with a parameter
// list, such as "sum(a, b)", is kept whole.
func splitKind(head string) (kind, name string) {
	head = strings.TrimSpace(head)

	if i := strings.IndexByte(head, '('); i >= 0 {
		j := strings.LastIndexAny(head[:i], " \t")

		return strings.Join(strings.Fields(head[:j+1]), " "),
			strings.Join(strings.Fields(head[j+1:]), " ")
	}

	fields := strings.Fields(head)
	if len(fields) == 0 {
		return "", ""
	}

	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

// trimCondition removes optional braces around a condition.
func trimCondition(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	return s
}

// unescape removes the backslash protecting a line start inside a body.
func unescape(line string) string {
	if strings.HasPrefix(line, `\`) {
		rest := line[1:]
		for _, lead := range []string{"--", ";;", "/", "- "} {
			if strings.HasPrefix(rest, lead) {
				return rest
			}
		}
	}

	return line
}

// flushBody attaches collected body lines to the current target.
func (p *parser) flushBody() {
	t := p.target()
	lines := p.body
	p.body = nil
	p.state = stateHeader

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if t == nil || t.commented || len(lines) == 0 {
		return
	}

	t.Body = &Value{Text: strings.Join(lines, "\n"), Line: p.bodyAt}
}

// last returns the most recent section at the outermost level.
func (p *parser) last() *Section {
	if len(p.pending) == 0 {
		return nil
	}

	return p.pending[len(p.pending)-1]
}

// commit finishes the section being read and places it.
func (p *parser) commit() error {
	p.flushBody()

	s := p.cur
	p.cur, p.sub = nil, nil

	if s == nil || s.commented {
		return nil
	}

	p.logger.Trace("section",
		log.Doc(p.doc),
		log.Line(s.Line),
		log.Name(s.Name),
	)

	if last := p.last(); last != nil && strings.HasPrefix(s.Name, last.Ident()+".") {
		key := s.Name[len(last.Ident())+1:]
		hdr := &Header{Key: key, Kind: s.Kind, Line: s.Line}

		if s.Condition != nil {
			hdr.Condition = s.Condition.Text
		}

		switch {
		case len(s.Headers) > 0 || len(s.Sub) > 0 ||
			(s.Caption != nil && s.Body != nil):
			hdr.Section = s
		case s.Caption != nil:
			hdr.Value = s.Caption.Text
		case s.Body != nil:
			hdr.Value, hdr.block = s.Body.Text, true
		default:
			// collects sections up to "-- end: <name>.<key>"
			s.owner, s.key = last, key
			p.pending = append(p.pending, s)

			return nil
		}

		last.Headers = append(last.Headers, hdr)

		return nil
	}

	p.pending = append(p.pending, s)

	return nil
}

// end closes the most recent open section named name, adopting every section
// that follows it.
func (p *parser) end(n int, name string) error {
	if err := p.commit(); err != nil {
		return err
	}

	if name == "" {
		return p.errorf(n, "end requires the name of the section to close")
	}

	i := len(p.pending) - 1
	for ; i >= 0; i-- {
		if s := p.pending[i]; s.Name == name && !s.closed {
			break
		}
	}

	if i < 0 {
		return p.errorf(n, "unmatched end %q: no open section with that name",
			name)
	}

	s := p.pending[i]
	children := slices.Clone(p.pending[i+1:])

	for _, c := range children {
		c.closed = true
	}

	if s.owner != nil {
		p.pending = p.pending[:i]

		hdr := &Header{Key: s.key, Kind: s.Kind, Sections: children, Line: s.Line}
		if s.Condition != nil {
			hdr.Condition = s.Condition.Text
		}

		s.owner.Headers = append(s.owner.Headers, hdr)

		return nil
	}

	p.pending = p.pending[:i+1]
	s.Sub = append(s.Sub, children...)
	s.closed = true

	return nil
}

// seal finishes the current section and prevents it from adopting children.
func (p *parser) seal(n int, name string) error {
	s := p.cur
	if s == nil {
		return p.errorf(n, "no open section to close")
	}

	if name != "" && name != s.Name {
		return p.errorf(n, "cannot close %q: the open section is %q",
			name, s.Name)
	}

	if err := p.commit(); err != nil {
		return err
	}

	if s.owner != nil {
		return p.errorf(n, "header section %q must be closed with end", s.Name)
	}

	s.closed = true

	return nil
}

func (p *parser) finish() ([]*Section, error) {
	if err := p.commit(); err != nil {
		return nil, err
	}

	for _, s := range p.pending {
		if s.owner != nil {
			return nil, p.errorf(s.Line,
				"unterminated header section %q: missing '-- end: %q'",
				s.Name, s.Name)
		}
	}

	return p.pending, nil
}
