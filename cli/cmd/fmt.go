package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/ftd/lang/p1"
	"github.com/ardnew/ftd/log"
)

// Fmt prints the sections of a document in canonical form.
type Fmt struct {
	Write bool `help:"Write the result to the source file instead of stdout" short:"w"`

	Source string `arg:"" default:"-" help:"Document file, module name, or '-' for stdin." name:"source"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if f.Write && f.Source == stdinSource {
		return ErrWriteStdin
	}

	h := newHost(ctx, f.Source)

	module, source, err := load(ctx, h, f.Source)
	if err != nil {
		return err
	}

	sections, err := p1.ParseString(ctx, module, source, p1.WithLogger(log.Default()))
	if err != nil {
		return err
	}

	text := p1.Format(sections)

	if !f.Write {
		return write(ctx, text)
	}

	path := f.Source
	if !isFile(path) {
		if _, path, err = h.Load(ctx, module); err != nil {
			return err
		}
	}

	if text == source {
		log.DebugContext(ctx, "already formatted", log.Path(path))

		return nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	if err := os.WriteFile(path, []byte(text), fi.Mode().Perm()); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	log.DebugContext(ctx, "formatted", log.Path(path), slog.Int("bytes", len(text)))

	return nil
}
