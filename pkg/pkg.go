// Package pkg holds the identity of the ftd command and the per-user
// directories it keeps its configuration and cache in.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version printed by "ftd version".
var Version = strings.TrimSpace(version)

const (
	// Name is the command name, used in help output and as the fallback
	// [Prefix].
	Name = "ftd"
	// Description summarizes the command in help output.
	Description = "Interpreter for ftd documents"
)
