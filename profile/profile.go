package profile

import (
	"path/filepath"
	"slices"
)

// Profiler is a running profile. Stop flushes its output.
type Profiler interface{ Stop() }

// Config selects what to profile and where the output is written.
type Config struct {
	Mode  string
	Dir   string
	Quiet bool
	// Label names a subdirectory of Dir, so that profiles of different
	// commands do not overwrite each other.
	Label string
}

// Option configures a [Config].
type Option func(*Config)

// WithMode sets the profiling mode, one of [Modes].
func WithMode(mode string) Option { return func(c *Config) { c.Mode = mode } }

// WithDir sets the base output directory.
func WithDir(dir string) Option { return func(c *Config) { c.Dir = dir } }

// WithQuiet suppresses the profiler's own log output.
func WithQuiet(quiet bool) Option { return func(c *Config) { c.Quiet = quiet } }

// WithLabel sets the output subdirectory.
func WithLabel(label string) Option { return func(c *Config) { c.Label = label } }

// New returns a Config with opts applied.
func New(opts ...Option) Config {
	var c Config

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Output returns the directory the profile is written to, or "" for the
// profiler's default.
func (c Config) Output() string {
	if c.Dir == "" || c.Label == "" {
		return c.Dir
	}

	return filepath.Join(c.Dir, c.Label)
}

// Start begins profiling. The returned Profiler does nothing when the mode
// is empty or unsupported, which is every mode in builds without the pprof
// tag.
func (c Config) Start() Profiler {
	if !Supported(c.Mode) {
		return ignore{}
	}

	return start(c)
}

// Supported reports whether mode is one of [Modes].
func Supported(mode string) bool {
	return mode != "" && slices.Contains(Modes(), mode)
}

type ignore struct{}

func (ignore) Stop() {}
