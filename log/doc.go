// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// The package offers configurable time formatting, caller information,
// and output formats that are applied at logger creation time using
// functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("document loaded", log.Doc("index"))
//	logger.Error("import failed", log.Module("lib"), log.Err(err))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// The zero [Logger] discards everything, which is what library packages use
// unless a caller injects a configured one.
//
// # Package Logger
//
// Package-level functions such as [Info] and [Trace] write to a process-wide
// logger that the command line configures with [Config].
//
// # Levels
//
// Five levels are supported: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Trace is used by the interpreter for
// per-section and per-declaration progress.
//
// # Output Formats
//
// [FormatText] (default) and [FormatJSON]. Text output is styled with
// lipgloss when pretty printing is enabled.
package log
