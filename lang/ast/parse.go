package ast

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/p1"
	"github.com/ardnew/ftd/log"
)

// Reserved header keys of component invocations and variable definitions.
const (
	HeaderLoop      = "$loop$"
	HeaderProcessor = "$processor$"
	HeaderJS        = "js"
	HeaderCSS       = "css"
	HeaderExposing  = "exposing"
	HeaderExport    = "export"
)

// Declaration kinds that select a form other than a variable definition.
const (
	KindRecord       = "record"
	KindOrType       = "or-type"
	KindFunction     = "function"
	KindComponent    = "component"
	KindWebComponent = "web-component"
	KindConstant     = "constant"
)

// Option configures the classifier.
type Option func(*classifier)

// WithLogger sets the logger used to trace classification.
func WithLogger(logger log.Logger) Option {
	return func(c *classifier) { c.logger = logger }
}

// ParseString parses and classifies the declarations of document doc.
func ParseString(
	ctx context.Context,
	doc string,
	src string,
	opts ...Option,
) ([]Ast, error) {
	c := newClassifier(doc, opts...)

	sections, err := p1.ParseString(ctx, doc, src, p1.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	return c.classify(ctx, sections)
}

// FromSections classifies parsed sections of document doc.
func FromSections(
	ctx context.Context,
	doc string,
	sections []*p1.Section,
	opts ...Option,
) ([]Ast, error) {
	return newClassifier(doc, opts...).classify(ctx, sections)
}

type classifier struct {
	doc       string
	logger    log.Logger
	variables map[string]bool
}

func newClassifier(doc string, opts ...Option) *classifier {
	c := &classifier{doc: doc, variables: map[string]bool{}}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *classifier) classify(ctx context.Context, sections []*p1.Section) ([]Ast, error) {
	out := make([]Ast, 0, len(sections))

	for i := 0; i < len(sections); i++ {
		if err := ctx.Err(); err != nil {
			return nil, lang.WrapError(err).WithDoc(c.doc)
		}

		s := sections[i]

		var (
			item Ast
			err  error
		)

		if s.Kind == KindComponent && len(s.Sub) == 0 {
			// the following section is the definition body
			if i+1 >= len(sections) {
				return nil, errorf(s.Line, "component %q has no definition",
					s.Ident()).WithDoc(c.doc)
			}

			i++
			item, err = componentDefinition(s, sections[i])
		} else {
			item, err = c.section(s)
		}

		if err != nil {
			return nil, lang.WrapError(err).WithDoc(c.doc)
		}

		c.logger.TraceContext(ctx, "declaration",
			log.Doc(c.doc),
			log.Line(item.Line()),
			log.Kind(item.Form()),
		)

		out = append(out, item)
	}

	return out, nil
}

// section classifies one top-level section.
func (c *classifier) section(s *p1.Section) (Ast, error) {
	kind := s.Kind

	switch {
	case s.Name == "import" && kind == "":
		return importDeclaration(s)

	case kind == KindRecord:
		return record(s)

	case kind == KindOrType:
		return orType(s)

	case kind == KindComponent:
		return componentDefinition(s, nil)

	case kind == KindWebComponent:
		return webComponent(s)

	case kind == KindFunction || strings.Contains(s.Name, "("):
		return function(s)

	case kind != "":
		d, err := variableDefinition(s)
		if err != nil {
			return nil, err
		}

		c.variables[d.Name] = true

		return d, nil

	case c.variables[s.Ident()] || s.IsMutable():
		return variableInvocation(s)
	}

	return invocation(s)
}

var identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func checkIdent(name string, line int) error {
	if !identRegexp.MatchString(name) {
		return errorf(line, "invalid name %q", name)
	}

	return nil
}

func errorf(line int, msg string, names ...string) *lang.Error {
	return lang.Errorf(lang.ParseError, msg, names...).WithLine(line)
}

func importDeclaration(s *p1.Section) (*Import, error) {
	fields := strings.Fields(s.CaptionText())

	d := &Import{LineNum: s.Line}

	switch {
	case len(fields) == 1:
		d.Module = fields[0]
		d.Alias = d.Module[strings.LastIndex(d.Module, "/")+1:]

	case len(fields) == 3 && fields[1] == "as":
		d.Module, d.Alias = fields[0], fields[2]

	default:
		return nil, errorf(s.Line,
			"import expects 'module' or 'module as alias', found %q",
			s.CaptionText())
	}

	if err := checkIdent(d.Alias, s.Line); err != nil {
		return nil, err
	}

	for _, h := range s.Headers {
		switch h.Key {
		case HeaderExposing:
			d.Exposing = append(d.Exposing, splitList(h.Value)...)
		case HeaderExport:
			d.Export = append(d.Export, splitList(h.Value)...)
		default:
			return nil, errorf(h.Line, "unknown import header %q", h.Key)
		}
	}

	return d, nil
}

func splitList(s string) []string {
	var out []string

	for f := range strings.SplitSeq(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}

	return out
}

// arguments reads typed headers as argument declarations.
// Headers listed in allow may appear without a kind and are skipped.
func arguments(headers p1.Headers, allow ...string) ([]*Argument, error) {
	var args []*Argument

	for _, h := range headers {
		if h.Kind == "" {
			if slices.Contains(allow, h.Key) {
				continue
			}

			return nil, errorf(h.Line, "argument %q needs a kind", h.Key)
		}

		if h.Condition != "" {
			return nil, errorf(h.Line,
				"argument %q cannot have a condition", h.Key)
		}

		if err := checkIdent(h.Name(), h.Line); err != nil {
			return nil, err
		}

		if _, dup := findArgument(args, h.Name()); dup {
			return nil, errorf(h.Line, "duplicate argument %q", h.Name())
		}

		hv, err := headerValue(h)
		if err != nil {
			return nil, err
		}

		a := &Argument{
			Name:    h.Name(),
			Kind:    h.Kind,
			Mutable: h.IsMutable(),
			LineNum: h.Line,
		}

		if !hv.Value.IsNone() {
			a.Value = hv.Value
		}

		args = append(args, a)
	}

	return args, nil
}

func record(s *p1.Section) (*Record, error) {
	if err := checkIdent(s.Name, s.Line); err != nil {
		return nil, err
	}

	fields, err := arguments(s.Headers)
	if err != nil {
		return nil, err
	}

	for _, f := range fields {
		if f.Mutable {
			return nil, errorf(f.LineNum, "record field %q cannot be mutable",
				f.Name)
		}
	}

	return &Record{Name: s.Name, Fields: fields, LineNum: s.Line}, nil
}

func orType(s *p1.Section) (*OrType, error) {
	if err := checkIdent(s.Name, s.Line); err != nil {
		return nil, err
	}

	if len(s.Sub) == 0 {
		return nil, errorf(s.Line, "or-type %q has no variants", s.Name)
	}

	d := &OrType{Name: s.Name, LineNum: s.Line}

	for _, sub := range s.Sub {
		if err := checkIdent(sub.Name, sub.Line); err != nil {
			return nil, err
		}

		v := &OrTypeVariant{Name: sub.Name, Kind: sub.Kind, LineNum: sub.Line}

		if rest, ok := strings.CutPrefix(sub.Kind, KindConstant+" "); ok {
			v.Kind, v.Constant = rest, true
		}

		if v.Kind == "" {
			return nil, errorf(sub.Line, "variant %q needs a kind", sub.Name)
		}

		value, err := sectionValue(sub)
		if err != nil {
			return nil, err
		}

		if !value.IsNone() {
			v.Value = value
		}

		if v.Constant && v.Value == nil {
			return nil, errorf(sub.Line, "constant variant %q needs a value",
				sub.Name)
		}

		d.Variants = append(d.Variants, v)
	}

	return d, nil
}

func function(s *p1.Section) (*Function, error) {
	name, params, hasParams := strings.Cut(s.Name, "(")
	if hasParams {
		var ok bool

		params, ok = strings.CutSuffix(params, ")")
		if !ok {
			return nil, errorf(s.Line, "function %q is missing ')'", s.Name)
		}
	}

	if err := checkIdent(name, s.Line); err != nil {
		return nil, err
	}

	ret := s.Kind
	if ret == "" || ret == KindFunction {
		ret = "void"
	}

	args, err := arguments(s.Headers, HeaderJS)
	if err != nil {
		return nil, err
	}

	if hasParams {
		want := splitList(params)
		for _, p := range want {
			if _, ok := findArgument(args, strings.TrimPrefix(p, "$")); !ok {
				return nil, errorf(s.Line,
					"parameter %q of function %q has no declaration", p, name)
			}
		}

		if len(want) != len(args) {
			return nil, errorf(s.Line,
				"function %q declares arguments missing from its parameter list",
				name)
		}
	}

	d := &Function{
		Name:       name,
		ReturnKind: ret,
		Arguments:  args,
		Definition: s.BodyText(),
		LineNum:    s.Line,
	}

	if s.Body != nil {
		d.DefLine = s.Body.Line
	}

	if js, ok := s.Headers.Get(HeaderJS); ok {
		d.JS = js.Value
	}

	if d.Definition == "" && d.JS == "" {
		return nil, errorf(s.Line, "function %q has no body", name)
	}

	return d, nil
}

func componentDefinition(s, def *p1.Section) (*ComponentDefinition, error) {
	if err := checkIdent(s.Name, s.Line); err != nil {
		return nil, err
	}

	args, err := arguments(s.Headers, HeaderCSS, HeaderJS)
	if err != nil {
		return nil, err
	}

	if def == nil {
		if len(s.Sub) != 1 {
			return nil, errorf(s.Line,
				"component %q must have exactly one root", s.Name).
				With(slog.Int("roots", len(s.Sub)))
		}

		def = s.Sub[0]
	}

	root, err := invocation(def)
	if err != nil {
		return nil, err
	}

	d := &ComponentDefinition{
		Name:       s.Name,
		Arguments:  args,
		Definition: root,
		LineNum:    s.Line,
	}

	if css, ok := s.Headers.Get(HeaderCSS); ok {
		d.CSS = css.Value
	}

	return d, nil
}

func webComponent(s *p1.Section) (*WebComponentDefinition, error) {
	if err := checkIdent(s.Name, s.Line); err != nil {
		return nil, err
	}

	args, err := arguments(s.Headers, HeaderJS)
	if err != nil {
		return nil, err
	}

	js, ok := s.Headers.Get(HeaderJS)
	if !ok || js.Value == "" {
		return nil, errorf(s.Line, "web-component %q needs a 'js' header",
			s.Name)
	}

	return &WebComponentDefinition{
		Name:      s.Name,
		Arguments: args,
		JS:        js.Value,
		LineNum:   s.Line,
	}, nil
}

func variableDefinition(s *p1.Section) (*VariableDefinition, error) {
	name := s.Ident()

	d := &VariableDefinition{
		Name:    name,
		Kind:    s.Kind,
		Mutable: s.IsMutable(),
		LineNum: s.Line,
		section: s,
	}

	if s.Condition != nil {
		return nil, errorf(s.Condition.Line,
			"variable %q cannot have a condition; add a conditional override instead",
			name)
	}

	skip := []string{}

	if p, ok := s.Headers.Get(HeaderProcessor); ok {
		d.Processor = p.Value
		d.Meta = s.Headers.Without(HeaderProcessor)
		skip = append(skip, HeaderProcessor)

		// every other header is processor metadata
		for _, h := range d.Meta {
			skip = append(skip, h.Key)
		}
	}

	v, err := sectionValue(s, skip...)
	if err != nil {
		return nil, err
	}

	d.Value = v

	return d, nil
}

func variableInvocation(s *p1.Section) (*VariableInvocation, error) {
	v, err := sectionValue(s)
	if err != nil {
		return nil, err
	}

	d := &VariableInvocation{Name: s.Ident(), Value: v, LineNum: s.Line}

	if s.Condition != nil {
		d.Condition = &Condition{
			Expression: s.Condition.Text,
			LineNum:    s.Condition.Line,
		}
	}

	return d, nil
}

// invocation reads a section as a component invocation.
func invocation(s *p1.Section) (*ComponentInvocation, error) {
	d := &ComponentInvocation{Name: s.Name, LineNum: s.Line}

	if s.Condition != nil {
		d.Condition = &Condition{
			Expression: s.Condition.Text,
			LineNum:    s.Condition.Line,
		}
	}

	if s.Caption != nil {
		d.Properties = append(d.Properties, &Property{
			Source:  SourceCaption,
			Value:   StringValue(s.Caption.Text, SourceCaption, s.Caption.Line),
			LineNum: s.Caption.Line,
		})
	}

	for _, h := range s.Headers {
		switch {
		case h.Key == HeaderLoop:
			if d.Loop != nil {
				return nil, errorf(h.Line, "duplicate %q header", HeaderLoop)
			}

			loop, err := parseLoop(h)
			if err != nil {
				return nil, err
			}

			d.Loop = loop

		case strings.HasPrefix(h.Key, "$on-") && strings.HasSuffix(h.Key, "$"):
			d.Events = append(d.Events, &Event{
				Name:    strings.TrimSuffix(strings.TrimPrefix(h.Key, "$on-"), "$"),
				Actions: splitActions(h.Value),
				LineNum: h.Line,
			})

		default:
			if h.Kind != "" {
				return nil, errorf(h.Line,
					"property %q of an invocation cannot declare a kind", h.Key)
			}

			hv, err := headerValue(h)
			if err != nil {
				return nil, err
			}

			d.Properties = append(d.Properties, &Property{
				Key:       hv.Key,
				Source:    SourceHeader,
				Mutable:   hv.Mutable,
				Value:     hv.Value,
				Condition: hv.Condition,
				LineNum:   h.Line,
			})
		}
	}

	if s.Body != nil {
		d.Properties = append(d.Properties, &Property{
			Source:  SourceBody,
			Value:   StringValue(s.Body.Text, SourceBody, s.Body.Line),
			LineNum: s.Body.Line,
		})
	}

	for _, sub := range s.Sub {
		child, err := invocation(sub)
		if err != nil {
			return nil, err
		}

		d.Children = append(d.Children, child)
	}

	return d, nil
}

// parseLoop reads "<on> as $<alias>[, $<index>]".
func parseLoop(h *p1.Header) (*Loop, error) {
	on, rest, ok := strings.Cut(h.Value, " as ")
	if !ok {
		return nil, errorf(h.Line,
			"loop %q must have the form '<list> as $<item>'", h.Value)
	}

	alias, index, _ := strings.Cut(rest, ",")

	l := &Loop{
		On:      strings.TrimSpace(on),
		Alias:   strings.TrimPrefix(strings.TrimSpace(alias), "$"),
		Index:   strings.TrimPrefix(strings.TrimSpace(index), "$"),
		LineNum: h.Line,
	}

	if err := checkIdent(l.Alias, h.Line); err != nil {
		return nil, err
	}

	if l.Index != "" {
		if err := checkIdent(l.Index, h.Line); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// splitActions splits "f($a=$x); g()" at top-level semicolons.
func splitActions(s string) []string {
	var (
		out   []string
		depth int
		start int
	)

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			if depth == 0 {
				if a := strings.TrimSpace(s[start:i]); a != "" {
					out = append(out, a)
				}

				start = i + 1
			}
		}
	}

	if a := strings.TrimSpace(s[start:]); a != "" {
		out = append(out, a)
	}

	return out
}
