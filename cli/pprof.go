//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ftd/log"
	"github.com/ardnew/ftd/pkg"
	"github.com/ardnew/ftd/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Profile the selected command" placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory, one subdirectory per command" type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      pkg.CachePath(profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: profile.Tag, Title: "Profiling (pprof)"}
}

// start profiles the command named label and returns the function that
// writes the profile.
func (f pprofConfig) start(ctx context.Context, label string) (stop func()) {
	cfg := profile.New(
		profile.WithMode(f.Mode),
		profile.WithDir(f.Dir),
		profile.WithLabel(label),
		profile.WithQuiet(true),
	)

	if !profile.Supported(cfg.Mode) {
		return func() {}
	}

	attrs := []slog.Attr{slog.String("mode", cfg.Mode), log.Path(cfg.Output())}

	log.DebugContext(ctx, "profiling "+label, attrs...)

	profiler := cfg.Start()

	return func() {
		profiler.Stop()
		log.DebugContext(ctx, "profile written", attrs...)
	}
}
