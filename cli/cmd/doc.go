// Package cmd implements the commands of the ftd command line: parse, ast,
// run, check, fmt, repl, init, and version.
//
// Commands read their settings from the [context.Context] kong binds to
// them. The cli package stores the kong context, the module search path, and
// the name of the environment module there before running a command.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
