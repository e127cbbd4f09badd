package log

import (
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Level is the severity of a message. It extends [slog.Level] with
// [LevelTrace], used for per-section interpreter progress.
type Level slog.Level

const (
	LevelTrace = Level(slog.LevelDebug - 4)
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// Format selects the handler that renders messages.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Defaults of a [Logger] made without options.
const (
	DefaultLevel      = LevelWarn
	DefaultFormat     = FormatText
	DefaultTimeLayout = time.RFC3339
	DefaultCaller     = false
	DefaultPretty     = true
)

// levels and formats are listed in the order [Levels] and [Formats] yield
// them.
var (
	levels  = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}
	formats = []Format{FormatText, FormatJSON}
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return strings.ToLower(slog.Level(l).String())
	}

	return "Level(" + strconv.Itoa(int(l)) + ")"
}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	}

	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Levels yields the names of the defined levels, least severe first.
func Levels() iter.Seq[string] { return names(levels) }

// Formats yields the names of the defined formats.
func Formats() iter.Seq[string] { return names(formats) }

func names[T interface{ String() string }](list []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range list {
			if !yield(v.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a level name, case-insensitively. Besides "trace", any
// text accepted by [slog.Level.UnmarshalText] is valid, such as "info+2".
// Invalid text yields [DefaultLevel].
func ParseLevel(s string) Level {
	if strings.EqualFold(s, "trace") {
		return LevelTrace
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// ParseFormat parses a format name. Invalid text yields [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)

	for _, f := range formats {
		if strings.EqualFold(s, f.String()) {
			return f
		}
	}

	return DefaultFormat
}

// FormatTime renders a record's timestamp. An empty result omits it.
type FormatTime func(time.Time) string

// config is the configuration of a [Logger]. Options return modified copies,
// so a config is never shared between loggers that differ.
type config struct {
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option modifies a copy of a Logger's configuration.
type Option func(config) config

func makeConfig(w io.Writer, opts ...Option) config {
	return config{}.with(append([]Option{WithDefaults(w)}, opts...)...)
}

// with returns a copy of c with the non-nil opts applied in order.
func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func (c config) handlerOptions() *slog.HandlerOptions {
	formatTime := c.formatTime
	if formatTime == nil {
		formatTime = makeFormatTimeFunc(DefaultTimeLayout)
	}

	return &slog.HandlerOptions{
		AddSource: c.caller,
		Level:     slog.Level(c.level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch v := a.Value.Any().(type) {
			case time.Time:
				if a.Key != slog.TimeKey {
					break
				}

				s := formatTime(v)
				if s == "" {
					return slog.Attr{}
				}

				a.Value = slog.StringValue(s)

			case slog.Level:
				if a.Key == slog.LevelKey {
					a.Value = slog.StringValue(strings.ToUpper(Level(v).String()))
				}
			}

			return a
		},
	}
}

func (c config) handler() slog.Handler {
	if c.output == nil {
		return slog.DiscardHandler
	}

	switch c.format {
	case FormatJSON:
		return slog.NewJSONHandler(c.output, c.handlerOptions())
	case FormatText:
		if c.pretty {
			return newPrettyHandler(c.output, c.handlerOptions())
		}

		return slog.NewTextHandler(c.output, c.handlerOptions())
	}

	return slog.DiscardHandler
}

// WithDefaults resets every setting to its default and writes to w, or
// discards output if w is nil.
func WithDefaults(w io.Writer) Option {
	if w == nil {
		w = io.Discard
	}

	return func(config) config {
		return config{
			output:     w,
			formatTime: makeFormatTimeFunc(DefaultTimeLayout),
			level:      DefaultLevel,
			format:     DefaultFormat,
			caller:     DefaultCaller,
			pretty:     DefaultPretty,
		}
	}
}

// WithOutput writes messages to w, or discards them if w is nil.
func WithOutput(w io.Writer) Option {
	if w == nil {
		w = io.Discard
	}

	return func(c config) config {
		c.output = w

		return c
	}
}

// WithLevel discards messages below level.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

// WithFormat selects the output format.
func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout sets the timestamp layout: a name from [time] such as
// "RFC3339Nano" or "Kitchen" (case and punctuation ignored), a short alias
// ("ms", "us", "ns"), or a layout passed to [time.Time.Format] verbatim.
// An empty layout or "none" omits timestamps.
func WithTimeLayout(layout string) Option {
	format := makeFormatTimeFunc(layout)

	return func(c config) config {
		c.formatTime = format

		return c
	}
}

// WithCaller includes the source location of each message.
func WithCaller(enable bool) Option {
	return func(c config) config {
		c.caller = enable

		return c
	}
}

// WithPretty styles text output for a terminal.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}

// timeLayouts maps normalized layout names to layouts.
var timeLayouts = map[string]string{
	"none":        "",
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"rfc1123":     time.RFC1123,
	"rfc1123z":    time.RFC1123Z,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"dateonly":    time.DateOnly,
	"timeonly":    time.TimeOnly,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"stampnano":   time.StampNano,
	"ms":          time.StampMilli,
	"us":          time.StampMicro,
	"ns":          time.StampNano,
}

// normalizeLayout lower-cases name and drops everything but letters and
// digits, so "RFC-3339" and "rfc3339" name the same layout.
func normalizeLayout(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}

		return -1
	}, strings.ToLower(name))
}

func makeFormatTimeFunc(layout string) FormatTime {
	key := normalizeLayout(layout)
	if std, ok := timeLayouts[key]; ok {
		layout = std
	}

	if key == "" || layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
