package cmd

import (
	"context"

	"github.com/ardnew/ftd/pkg"
)

// Version prints the program version.
type Version struct{}

// Run executes the version command.
func (Version) Run(ctx context.Context) error {
	return write(ctx, pkg.Name+" "+pkg.Version+"\n")
}
