package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/types"
)

// Output formats.
const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatTree = "tree"
)

// encode writes v to the output of ctx as YAML or JSON.
func encode(ctx context.Context, format string, v any) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case formatYAML:
		data, err = yaml.Marshal(v)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

	case formatJSON:
		data, err = yaml.MarshalWithOptions(v, yaml.JSON())
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		data = append(data, '\n')

	default:
		return ErrInvalidFormat.With(slog.String("format", format))
	}

	return write(ctx, string(data))
}

// write writes text to the output of ctx.
func write(ctx context.Context, text string) error {
	if _, err := io.WriteString(outputFrom(ctx), text); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

var (
	elementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// renderTree draws the elements of t as a tree, one node per element with
// its attributes, conditional attributes, and events as leaves.
func renderTree(t *exec.Tree) string {
	root := tree.New().Enumerator(tree.RoundedEnumerator)

	for _, el := range t.Elements {
		root.Child(elementNode(el))
	}

	return root.String() + "\n"
}

func elementNode(el *exec.Element) *tree.Tree {
	label := elementStyle.Render(el.Kind.String())

	if el.Name != "ftd#"+el.Kind.String() {
		label += " " + nameStyle.Render(el.Name)
	}

	if el.ID != "" {
		label += " #" + el.ID
	}

	label += nameStyle.Render(" " + containerPath(el.Container))

	node := tree.Root(label).Enumerator(tree.RoundedEnumerator)

	if el.IsNull {
		return node.Child(nameStyle.Render("(hidden)"))
	}

	if el.Condition != nil {
		node.Child(keyStyle.Render("if") + " " + el.Condition.Source +
			" = " + strconv.FormatBool(el.Condition.Holds))
	}

	for _, a := range el.Attributes {
		node.Child(keyStyle.Render(a.Name) + ": " + valueText(a.Value))
	}

	for _, ca := range el.ConditionalAttributes {
		for _, c := range ca.Conditions {
			node.Child(keyStyle.Render(ca.Name) + " if " + c.Condition + ": " + c.Value)
		}
	}

	for _, ev := range el.Events {
		calls := make([]string, len(ev.Actions))
		for i, a := range ev.Actions {
			calls[i] = actionText(a)
		}

		node.Child(eventStyle.Render("on-"+ev.Name) + ": " + strings.Join(calls, "; "))
	}

	for _, child := range el.Children {
		node.Child(elementNode(child))
	}

	return node
}

func containerPath(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ".")
}

func actionText(a exec.Action) string {
	args := make([]string, len(a.Arguments))
	for i, f := range a.Arguments {
		args[i] = f.Name + "=" + fmt.Sprint(types.Native(f.Value))
	}

	return a.Function + "(" + strings.Join(args, ", ") + ")"
}

// valueText renders v on one line: scalars as written, composites as flow
// YAML.
func valueText(v types.Value) string {
	switch types.Unwrap(v).(type) {
	case types.RecordValue, types.List, types.OrTypeValue, types.Object:
		data, err := yaml.MarshalWithOptions(types.NativeValue(v), yaml.Flow(true))
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return types.Text(v)
}

// renderBag draws a table of the things in bag whose names pass keep.
func renderBag(bag *types.Bag, keep func(name string) bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("NAME", "FORM", "KIND", "LINE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	for name, thing := range bag.All() {
		if !keep(name) {
			continue
		}

		t.Row(name, thing.Form(), thingKind(thing), strconv.Itoa(thing.Line()))
	}

	return t.String() + "\n"
}

// thingKind describes the kind a thing declares, if any.
func thingKind(t types.Thing) string {
	switch t := t.(type) {
	case *types.Variable:
		if t.Mutable {
			return "mutable " + t.Kind.String()
		}

		return t.Kind.String()
	case *types.Function:
		args := make([]string, len(t.Arguments))
		for i, a := range t.Arguments {
			args[i] = a.Name
		}

		return "(" + strings.Join(args, ", ") + ") " + t.ReturnKind.String()
	case *types.Record:
		return strconv.Itoa(len(t.Fields)) + " fields"
	case *types.OrType:
		return strconv.Itoa(len(t.Variants)) + " variants"
	case *types.ComponentDefinition:
		return strconv.Itoa(len(t.Arguments)) + " arguments"
	case *types.WebComponentDefinition:
		return strconv.Itoa(len(t.Arguments)) + " arguments"
	}

	return ""
}
