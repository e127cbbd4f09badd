package cli

import (
	"os"

	"github.com/ardnew/ftd/pkg"
)

// baseConfig is the base name of the configuration file written by init.
const baseConfig = "config.yaml"

// defaultDirMode is the permission mode of created directories.
var defaultDirMode os.FileMode = 0o700

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// pathEnv returns the environment variable listing module directories
// searched after --include.
func pathEnv() string { return pkg.EnvPrefix() + "PATH" }
