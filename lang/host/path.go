package host

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"

	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/log"
)

// Ext is the file extension of ftd documents.
const Ext = ".ftd"

// IndexFile is the document read when a module names a directory.
const IndexFile = "index" + Ext

// SearchPath merges the include directories with the list-separated
// directories in env, such as the value of FTD_PATH. Include directories
// come first. Entries that are not directories are dropped, as are repeats.
func SearchPath(include []string, env string) []string {
	merged := mung.Make(
		mung.WithSubjectItems(filepath.SplitList(env)...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(include...),
		mung.WithFilter(isDir),
	).String()

	seen := map[string]bool{}

	var out []string

	for _, dir := range filepath.SplitList(merged) {
		if dir == "" {
			continue
		}

		dir = filepath.Clean(dir)
		if seen[dir] || !isDir(dir) {
			continue
		}

		seen[dir] = true
		out = append(out, dir)
	}

	return out
}

func isDir(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.IsDir()
}

// ModuleName returns the module name of the document at path, relative to
// the first directory of the search path containing it. A document outside
// every search directory is named by its base name.
func ModuleName(path string, paths []string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	name := filepath.Base(abs)

	for _, dir := range paths {
		d, err := filepath.Abs(dir)
		if err != nil {
			continue
		}

		rel, err := filepath.Rel(d, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		name = rel

		break
	}

	name = strings.TrimSuffix(filepath.ToSlash(name), Ext)

	if dir, ok := strings.CutSuffix(name, "/index"); ok {
		return dir
	}

	return name
}

// resolve returns the path of the document defining module.
func (h *Host) resolve(module string) (string, error) {
	if module == "" || filepath.IsAbs(module) ||
		strings.Contains("/"+module+"/", "/../") {
		return "", lang.Errorf(lang.ForbiddenUsage, "invalid module name %q", module)
	}

	rel := filepath.FromSlash(module)

	for _, dir := range h.paths {
		for _, path := range []string{
			filepath.Join(dir, rel+Ext),
			filepath.Join(dir, rel, IndexFile),
		} {
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				return path, nil
			}
		}
	}

	return "", lang.Errorf(lang.ValueNotFound,
		"module %q not found in search path", module).
		With(slog.Any("path", h.paths))
}

// ReadFile returns the contents of the file at path.
func (h *Host) ReadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", lang.WrapError(err).With(log.Path(path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", lang.WrapError(err).With(log.Path(path))
	}

	h.logger.TraceContext(ctx, "read file",
		log.Path(path),
		slog.Int("bytes", len(data)))

	return string(data), nil
}
