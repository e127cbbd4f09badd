package interp

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/lang/types"
)

// refRegexp matches a reference name following '$'.
var refRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z_0-9][A-Za-z0-9_-]*)*`)

// value converts a written value to a property value of kind k.
func (x *Interpreter) value(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	k types.Kind,
	sc *scope,
) (types.PropertyValue, error) {
	if v.IsNone() {
		line := 0
		if v != nil {
			line = v.LineNum
		}

		switch {
		case k.IsOptional():
			return types.NewValue(types.Optional{Inner: k.Elem()}, line), nil
		case k.IsList():
			return types.NewValue(types.List{Item: k.Elem()}, line), nil
		}

		return types.PropertyValue{}, lang.Errorf(lang.ValueNotFound,
			"a value of kind %q is required", k.String()).WithLine(line)
	}

	switch v.Form {
	case ast.FormString:
		return x.text(ctx, fr, v, k, sc)
	case ast.FormRecord:
		return x.section(ctx, fr, v, k, sc)
	case ast.FormList:
		return x.list(ctx, fr, v, k, sc)
	}

	return types.PropertyValue{}, lang.Errorf(lang.OtherError,
		"unknown value form %q", v.Form.String())
}

// text converts a string value: a reference, a clone, or a literal.
func (x *Interpreter) text(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	k types.Kind,
	sc *scope,
) (types.PropertyValue, error) {
	text := strings.TrimSpace(v.Text)

	clone := strings.HasPrefix(text, "*$")
	if name := strings.TrimPrefix(strings.TrimPrefix(text, "*"), "$"); strings.HasPrefix(text, "$") || clone {
		if m := refRegexp.FindString(name); m != "" && m == name {
			pv, err := x.reference(fr, name, sc, v.LineNum)
			if err != nil {
				return types.PropertyValue{}, lang.WrapError(err).WithLine(v.LineNum)
			}

			if !k.Accepts(pv.Kind) {
				return types.PropertyValue{}, lang.Errorf(lang.InvalidKind,
					"%q has kind %q, expected %q", text, pv.Kind.String(), k.String()).
					WithLine(v.LineNum)
			}

			if clone {
				pv.Case = types.CaseClone
				pv.Mutable = false
			}

			return pv, nil
		}
	}

	val, err := x.literal(ctx, fr, v, k.Required(), sc)
	if err != nil {
		return types.PropertyValue{}, lang.WrapError(err).WithLine(v.LineNum)
	}

	return types.NewValue(wrap(val, k), v.LineNum), nil
}

// wrap makes val a value of k when k is optional.
func wrap(val types.Value, k types.Kind) types.Value {
	if k.IsOptional() {
		if _, ok := val.(types.Optional); !ok {
			return types.Optional{Inner: k.Elem(), Value: val}
		}
	}

	return val
}

// literal converts text to a value of the non-optional kind k.
func (x *Interpreter) literal(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	k types.Kind,
	sc *scope,
) (types.Value, error) {
	text := v.Text
	trimmed := strings.TrimSpace(text)

	switch k.Tag {
	case types.TagString:
		return x.template(fr, text, sc, v.LineNum)

	case types.TagInteger:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, invalidLiteral(trimmed, k)
		}

		return types.Integer{Int: i}, nil

	case types.TagDecimal:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, invalidLiteral(trimmed, k)
		}

		return types.Decimal{Float: f}, nil

	case types.TagBoolean:
		switch trimmed {
		case "true":
			return types.Boolean{Bool: true}, nil
		case "false":
			return types.Boolean{Bool: false}, nil
		}

		return nil, invalidLiteral(trimmed, k)

	case types.TagObject:
		return types.Object{Native: text}, nil

	case types.TagRecord:
		r, ok := x.bag.Record(k.Name)
		if !ok {
			return nil, x.notFound(fr, k.Name)
		}

		return x.recordValue(ctx, fr, &ast.Value{
			Form:    ast.FormRecord,
			Caption: ast.StringValue(text, v.Source, v.LineNum),
			LineNum: v.LineNum,
		}, r, sc)

	case types.TagOrType:
		return x.variant(ctx, fr, trimmed, k, sc, v.LineNum)

	case types.TagList:
		if trimmed == "" {
			return types.List{Item: k.Elem()}, nil
		}
	}

	return nil, invalidLiteral(trimmed, k)
}

func invalidLiteral(text string, k types.Kind) error {
	return lang.Errorf(lang.InvalidKind, "%q is not a literal of kind %q",
		text, k.String())
}

// variant converts "<variant>[ <payload>]" to a value of the or-type k.
func (x *Interpreter) variant(
	ctx context.Context,
	fr *frame,
	text string,
	k types.Kind,
	sc *scope,
	line int,
) (types.Value, error) {
	o, ok := x.bag.OrType(k.Name)
	if !ok {
		return nil, x.notFound(fr, k.Name)
	}

	variant, payload, ok := o.Match(text)
	if !ok {
		return nil, lang.Errorf(lang.InvalidKind, "%q is not a variant of %q",
			text, fr.written(o.Name))
	}

	if variant.Constant || payload == "" {
		return types.MakeOrTypeValue(x.bag, o, variant, "")
	}

	pv, err := x.value(ctx, fr,
		ast.StringValue(payload, ast.SourceHeader, line), variant.Kind.Kind, sc)
	if err != nil {
		return nil, err
	}

	return types.OrTypeValue{Name: o.Name, Variant: variant.Name, Value: pv}, nil
}

// template converts string text, interpolating "$name" references. "\$"
// writes a literal '$'.
func (x *Interpreter) template(fr *frame, text string, sc *scope, line int) (types.Value, error) {
	var (
		parts []types.TemplatePart
		b     strings.Builder
	)

	flush := func() {
		if b.Len() > 0 {
			parts = append(parts, types.TemplatePart{Text: b.String()})
			b.Reset()
		}
	}

	for i := 0; i < len(text); {
		switch {
		case text[i] == '\\' && i+1 < len(text) && text[i+1] == '$':
			b.WriteByte('$')
			i += 2

			continue

		case text[i] == '$':
			if m := refRegexp.FindString(text[i+1:]); m != "" {
				pv, err := x.reference(fr, m, sc, line)
				if err != nil {
					return nil, err
				}

				flush()
				parts = append(parts, types.TemplatePart{Ref: &pv})
				i += 1 + len(m)

				continue
			}
		}

		b.WriteByte(text[i])
		i++
	}

	flush()

	for _, p := range parts {
		if p.Ref != nil {
			return types.Template{Parts: parts}, nil
		}
	}

	s := ""
	if len(parts) == 1 {
		s = parts[0].Text
	}

	return types.String{Text: s}, nil
}

// section converts a value written with headers, caption, body, or
// sub-sections.
func (x *Interpreter) section(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	k types.Kind,
	sc *scope,
) (types.PropertyValue, error) {
	req := k.Required()

	var (
		val types.Value
		err error
	)

	switch req.Tag {
	case types.TagRecord:
		r, ok := x.bag.Record(req.Name)
		if !ok {
			return types.PropertyValue{}, x.notFound(fr, req.Name)
		}

		val, err = x.recordValue(ctx, fr, v, r, sc)

	case types.TagObject:
		val = types.Object{Native: native(v)}

	case types.TagList, types.TagUI:
		if len(v.Headers) > 0 || v.Caption != nil || v.Body != nil {
			return types.PropertyValue{}, lang.Errorf(lang.InvalidKind,
				"a value of kind %q cannot have headers, caption or body",
				k.String()).WithLine(v.LineNum)
		}

		return x.list(ctx, fr, v, k, sc)

	default:
		return types.PropertyValue{}, lang.Errorf(lang.InvalidKind,
			"a value of kind %q cannot have headers", k.String()).WithLine(v.LineNum)
	}

	if err != nil {
		return types.PropertyValue{}, lang.WrapError(err).WithLine(v.LineNum)
	}

	return types.NewValue(wrap(val, k), v.LineNum), nil
}

// recordValue builds a value of r from the headers, caption, and body of v.
// Fields not written take their default, which may read a sibling field.
func (x *Interpreter) recordValue(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	r *types.Record,
	sc *scope,
) (types.Value, error) {
	set := map[string]types.PropertyValue{}

	put := func(f *types.Argument, pv types.PropertyValue, line int) error {
		if _, dup := set[f.Name]; dup {
			return lang.Errorf(lang.ForbiddenUsage, "field %q is written twice",
				f.Name).WithLine(line)
		}

		set[f.Name] = pv

		return nil
	}

	for _, h := range v.Headers {
		if h.Condition != "" {
			return nil, lang.Errorf(lang.ForbiddenUsage,
				"field %q of a record value cannot have a condition", h.Key).
				WithLine(h.LineNum)
		}

		key, variant, _ := strings.Cut(h.Key, ".")

		f, ok := r.Field(key)
		if !ok {
			return nil, lang.Errorf(lang.ForbiddenUsage, "record %q has no field %q",
				fr.written(r.Name), key).WithLine(h.LineNum)
		}

		hv := h.Value
		if variant != "" {
			hv = variantValue(variant, hv, h.LineNum)
		}

		pv, err := x.value(ctx, fr, hv, f.Kind.Kind, sc)
		if err != nil {
			return nil, lang.WrapError(err).WithLine(h.LineNum)
		}

		if err := put(f, pv, h.LineNum); err != nil {
			return nil, err
		}
	}

	for _, part := range []struct {
		v    *ast.Value
		find func([]types.Argument) (*types.Argument, bool)
		what string
	}{
		{v.Caption, types.CaptionArgument, "caption"},
		{v.Body, types.BodyArgument, "body"},
	} {
		if part.v == nil {
			continue
		}

		f, ok := part.find(r.Fields)
		if !ok {
			return nil, lang.Errorf(lang.ForbiddenUsage, "record %q takes no %q",
				fr.written(r.Name), part.what).WithLine(part.v.LineNum)
		}

		pv, err := x.value(ctx, fr, part.v, f.Kind.Kind, sc)
		if err != nil {
			return nil, err
		}

		if err := put(f, pv, part.v.LineNum); err != nil {
			return nil, err
		}
	}

	out := types.RecordValue{Name: r.Name}

	for i := range r.Fields {
		f := &r.Fields[i]

		pv, ok := set[f.Name]
		if !ok {
			var err error

			pv, err = defaultField(r, f, set, v.LineNum)
			if err != nil {
				return nil, err
			}

			set[f.Name] = pv
		}

		out.Fields = append(out.Fields, types.Field{Name: f.Name, Value: pv})
	}

	return out, nil
}

// variantValue rewrites the header "key.variant: payload" as the or-type
// literal "variant payload".
func variantValue(variant string, v *ast.Value, line int) *ast.Value {
	text := variant

	if !v.IsNone() && v.Form == ast.FormString && strings.TrimSpace(v.Text) != "" {
		text += " " + strings.TrimSpace(v.Text)
	}

	return ast.StringValue(text, ast.SourceHeader, line)
}

// defaultField returns the value of a field that was not written.
func defaultField(
	r *types.Record,
	f *types.Argument,
	set map[string]types.PropertyValue,
	line int,
) (types.PropertyValue, error) {
	switch d := f.Default; {
	case d != nil && d.IsReference() && d.Source.Tag == types.SourceLocal &&
		d.Source.Container == r.Name:
		head, rest, _ := strings.Cut(d.Name, ".")

		sibling, ok := set[head]
		if !ok {
			return types.PropertyValue{}, lang.Errorf(lang.ValueNotFound,
				"field %q defaults to field %q, which has no value", f.Name, head).
				WithLine(line)
		}

		if rest == "" || sibling.IsReference() {
			if rest != "" {
				sibling.Name += "." + rest
				sibling.Kind = d.Kind
			}

			return sibling, nil
		}

		field, ok := types.FieldOf(sibling.Value, strings.Split(rest, "."))
		if !ok {
			return types.PropertyValue{}, fieldError(head, strings.Split(rest, "."))
		}

		return field, nil

	case d != nil:
		return *d, nil

	case f.Kind.Kind.IsOptional():
		return types.NewValue(types.Optional{Inner: f.Kind.Kind.Elem()}, line), nil

	case f.Kind.Kind.IsList():
		return types.NewValue(types.List{Item: f.Kind.Kind.Elem()}, line), nil
	}

	return types.PropertyValue{}, lang.Errorf(lang.ValueNotFound,
		"record %q requires field %q", r.Name, f.Name).WithLine(line)
}

// list converts the sub-sections of v to a list of k, or to a single UI
// value when k is a UI kind.
func (x *Interpreter) list(
	ctx context.Context,
	fr *frame,
	v *ast.Value,
	k types.Kind,
	sc *scope,
) (types.PropertyValue, error) {
	req := k.Required()

	if req.IsUI() {
		if len(v.Items) != 1 {
			return types.PropertyValue{}, lang.Errorf(lang.InvalidKind,
				"a value of kind %q needs exactly one component", k.String()).
				WithLine(v.LineNum)
		}

		val, err := x.ui(ctx, fr, v.Items[0], sc)
		if err != nil {
			return types.PropertyValue{}, err
		}

		return types.NewValue(wrap(val, k), v.LineNum), nil
	}

	if req.Tag == types.TagObject {
		return types.NewValue(types.Object{Native: native(v)}, v.LineNum), nil
	}

	if !req.IsList() {
		return types.PropertyValue{}, lang.Errorf(lang.InvalidKind,
			"a list is not a value of kind %q", k.String()).WithLine(v.LineNum)
	}

	item := req.Elem()
	out := types.List{Item: item, Items: make([]types.PropertyValue, 0, len(v.Items))}

	for _, it := range v.Items {
		var (
			pv  types.PropertyValue
			err error
		)

		if item.Required().IsUI() {
			var val types.Value

			val, err = x.ui(ctx, fr, it, sc)
			pv = types.NewValue(wrap(val, item), v.LineNum)
		} else {
			pv, err = x.value(ctx, fr, it.Value, item, sc)
		}

		if err != nil {
			return types.PropertyValue{}, err
		}

		out.Items = append(out.Items, pv)
	}

	return types.NewValue(wrap(out, k), v.LineNum), nil
}

func (x *Interpreter) ui(ctx context.Context, fr *frame, it *ast.ListItem, sc *scope) (types.Value, error) {
	if it.Invocation == nil {
		return nil, lang.Errorf(lang.InvalidKind, "%q is not a component", it.Name)
	}

	c, err := x.component(ctx, fr, it.Invocation, sc)
	if err != nil {
		return nil, err
	}

	return types.UI{Component: c}, nil
}

// native returns the written value as plain Go data.
func native(v *ast.Value) any {
	switch {
	case v.IsNone():
		return nil

	case v.Form == ast.FormString:
		return v.Text

	case v.Form == ast.FormList:
		out := make([]any, 0, len(v.Items))
		for _, it := range v.Items {
			out = append(out, native(it.Value))
		}

		return out
	}

	out := map[string]any{}

	if v.Caption != nil {
		out["caption"] = v.Caption.Text
	}

	if v.Body != nil {
		out["body"] = v.Body.Text
	}

	for _, h := range v.Headers {
		out[h.Key] = native(h.Value)
	}

	if len(v.Items) > 0 {
		items := make([]any, 0, len(v.Items))
		for _, it := range v.Items {
			items = append(items, native(it.Value))
		}

		out["items"] = items
	}

	return out
}
