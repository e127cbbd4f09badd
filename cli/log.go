package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ftd/log"
)

// logFormat configures the default logger's format while kong parses
// --log-format, so that parse errors are already written in that format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(text))))

	return nil
}

// logLevel configures the default logger's level while kong parses
// --log-level.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(text))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"  enum:"${logLevelEnum}"  help:"Minimum level of diagnostics written to stderr"`
	Format     logFormat `default:"${logFormat}" enum:"${logFormatEnum}" help:"Diagnostic output format"`
	TimeLayout string    `default:"RFC3339"                               help:"Timestamp layout (Go layout or constant name)" name:"time"`
	Caller     bool      `default:"false"                                 help:"Include the source location of each message"   negatable:""`
	Pretty     bool      `default:"true"                                  help:"Colorize diagnostics on a terminal"             negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":      log.DefaultLevel.String(),
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":     log.DefaultFormat.String(),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Diagnostics"}
}

// options returns the logger options selected by f.
func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(f.options()...)

	log.DebugContext(ctx, "diagnostics configured",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// logFlag applies one logger flag found by [logConfig.scan]. Boolean flags
// only take a value after "=".
type logFlag struct {
	boolean bool
	apply   func(f *logConfig, value string, set bool)
}

var logFlags = map[string]logFlag{
	"level": {apply: func(f *logConfig, value string, _ bool) {
		_ = f.Level.UnmarshalText([]byte(value))
	}},
	"format": {apply: func(f *logConfig, value string, _ bool) {
		_ = f.Format.UnmarshalText([]byte(value))
	}},
	"pretty": {boolean: true, apply: func(f *logConfig, _ string, set bool) {
		f.Pretty = set
		log.Config(log.WithPretty(set))
	}},
	"caller": {boolean: true, apply: func(f *logConfig, _ string, set bool) {
		f.Caller = set
		log.Config(log.WithCaller(set))
	}},
}

// scan applies logger flags in args before kong parses them, so that the
// configuration file loader and early errors see the requested logger
// wherever the flags appear. Boolean flags have no TextUnmarshaler hook, so
// this pass is the only way they take effect early.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, negated := strings.CutPrefix(args[i], "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(args[i], "--log-"); !ok {
				continue
			}
		}

		name, value, assigned := strings.Cut(name, "=")

		flag, ok := logFlags[name]
		switch {
		case !ok:
			continue

		case flag.boolean:
			set := true
			if assigned {
				v, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				set = v
			}

			flag.apply(f, value, set != negated)

		case negated:
			continue

		default:
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			flag.apply(f, value, true)
		}
	}
}
