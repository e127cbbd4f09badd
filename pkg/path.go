package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// prefixRules rewrite the executable's base name into [Prefix].
var prefixRules = []struct {
	match   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`^__debug_bin\d+$`), Name}, // dlv output
	{regexp.MustCompile(`^\.+`), ""},
}

// Prefix returns the name used for the configuration and cache directories
// and, upper-cased, for environment variables. It is the base name of the
// executable without extension, so a renamed binary keeps its own settings.
var Prefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))

	for _, rule := range prefixRules {
		id = rule.match.ReplaceAllString(id, rule.replace)
	}

	if id == "" {
		return Name
	}

	return id
})

// userDir returns the [Prefix] directory below the directory named by user,
// falling back to hidden below $HOME and finally the working directory.
func userDir(user func() (string, error), hidden string) string {
	dir, err := user()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir returns the directory holding the configuration file.
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the directory holding transient files: repl history,
// the module cache, and profiles.
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// ConfigPath returns the path formed by joining [ConfigDir] with elem.
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{ConfigDir()}, elem...)...)
}

// CachePath returns the path formed by joining [CacheDir] with elem.
func CachePath(elem ...string) string {
	return filepath.Join(append([]string{CacheDir()}, elem...)...)
}

// EnvPrefix returns the prefix of environment variables that configure the
// command, such as FTD_PATH.
func EnvPrefix() string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(Prefix())) + "_"
}
