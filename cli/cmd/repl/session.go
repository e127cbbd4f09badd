package repl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/exec"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/lang/types"
	"github.com/ardnew/ftd/log"
)

// session holds the interpreted document the REPL inspects and the runtime
// that fires its events.
type session struct {
	load   func(context.Context) (*interp.Document, error)
	render func(*exec.Tree) string
	logger log.Logger

	doc  *interp.Document
	rt   *exec.Runtime
	tree *exec.Tree
}

// reload interprets the document again, discarding every change events made.
func (s *session) reload(ctx context.Context) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.doc = doc
	s.rt = doc.Runtime(exec.WithRuntimeLogger(s.logger))
	s.tree = doc.Tree

	s.logger.DebugContext(ctx, "repl document loaded",
		log.Doc(doc.Name),
		slog.Int("definitions", doc.Bag.Len()),
		slog.Int("elements", len(doc.Tree.Elements)),
	)

	return nil
}

// evaluate runs an expression over the current state of the bag.
func (s *session) evaluate(ctx context.Context, source string) (string, error) {
	v, err := s.doc.Evaluate(ctx, source)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

// display returns the name of a definition as written in the root document:
// unqualified for its own definitions, qualified otherwise.
func (s *session) display(qualified string) string {
	doc, name := types.SplitName(qualified)
	if doc == s.doc.Name {
		return name
	}

	return qualified
}

// list describes the definitions whose displayed names start with prefix.
func (s *session) list(prefix string) string {
	var b strings.Builder

	for name, thing := range s.doc.Bag.All() {
		shown := s.display(name)
		if !strings.HasPrefix(shown, prefix) {
			continue
		}

		fmt.Fprintf(&b, "  %s %s\n", shown, hintStyle.Render(thing.Form()))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// lookup finds the definition a name written in the root document refers to.
func (s *session) lookup(name string) (types.Thing, string, bool) {
	q := types.Qualify(s.doc.Name, name, s.doc.Aliases)

	t, ok := s.doc.Bag.Get(q)

	return t, q, ok
}

// show describes one definition as YAML.
func (s *session) show(name string) (string, error) {
	t, q, ok := s.lookup(name)
	if !ok {
		return "", lang.Errorf(lang.ValueNotFound, "%q is not defined", name)
	}

	data, err := yaml.Marshal(yaml.MapSlice{{Key: q, Value: types.Describe(t)}})
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(string(data), "\n"), nil
}

// fire runs the actions bound to event on the element ref addresses, by id
// or container path, and renders the document again.
func (s *session) fire(ctx context.Context, ref, event string) error {
	el, ok := s.tree.Lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoElement, ref)
	}

	if err := s.rt.Fire(ctx, el, event); err != nil {
		return err
	}

	return s.rerender(ctx)
}

// call runs a function with arguments written as name=value, where value is
// an expression or a "$" reference to a variable, and renders the document
// again.
func (s *session) call(ctx context.Context, name string, args []string) error {
	_, q, ok := s.lookup(name)
	if !ok {
		return lang.Errorf(lang.ValueNotFound, "%q is not defined", name)
	}

	f, ok := s.doc.Bag.Function(q)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFunction, name)
	}

	action := exec.Action{Function: q}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: argument %q is not name=value", ErrUsage, arg)
		}

		i := slices.IndexFunc(f.Arguments, func(a types.Argument) bool { return a.Name == key })
		if i < 0 {
			return lang.Errorf(lang.ValueNotFound, "%q has no argument %q", name, key)
		}

		pv, err := s.argument(ctx, f.Arguments[i], value)
		if err != nil {
			return lang.WrapError(err).With(log.Name(key))
		}

		action.Arguments = append(action.Arguments, types.Field{Name: key, Value: pv})
	}

	if err := s.rt.Call(ctx, action); err != nil {
		return err
	}

	return s.rerender(ctx)
}

// argument converts the text of a call argument to a property value of the
// argument's kind.
func (s *session) argument(ctx context.Context, arg types.Argument, text string) (types.PropertyValue, error) {
	if ref, ok := strings.CutPrefix(text, "$"); ok {
		e, err := s.doc.Expression(text)
		if err != nil {
			return types.PropertyValue{}, err
		}

		if pv, ok := e.References[ref]; ok {
			return pv, nil
		}
	}

	ev, err := s.doc.Evaluate(ctx, text)
	if err != nil {
		return types.PropertyValue{}, err
	}

	v, err := exec.FromEval(s.doc.Bag, arg.Kind.Kind, ev)
	if err != nil {
		return types.PropertyValue{}, err
	}

	return types.NewValue(v, 0), nil
}

func (s *session) rerender(ctx context.Context) error {
	tree, err := s.rt.Render(ctx)
	if err != nil {
		return err
	}

	s.tree = tree

	return nil
}

// showTree draws the current element tree.
func (s *session) showTree() string {
	if s.render == nil {
		data, err := yaml.Marshal(s.tree)
		if err != nil {
			return err.Error()
		}

		return strings.TrimSuffix(string(data), "\n")
	}

	return strings.TrimSuffix(s.render(s.tree), "\n")
}
