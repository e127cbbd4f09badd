package eval

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
)

// compiled is a cache entry, compiled at most once.
type compiled struct {
	once    sync.Once
	program *Program
	err     error
}

// cacheKey hashes source and locals into a compact key.
func cacheKey(source string, locals []string) string {
	h := xxh3.New()
	_, _ = h.WriteString(source)

	for _, l := range locals {
		_, _ = h.WriteString("\x00" + l)
	}

	return strconv.FormatUint(h.Sum64(), 36)
}

// Cached returns the program compiled from source and locals, compiling it
// on first use. Failures are cached too.
func (e *Evaluator) Cached(source string, locals ...string) (*Program, error) {
	key := cacheKey(source, locals)

	v, hit := e.programs.LoadOrStore(key, new(compiled))
	entry := v.(*compiled)

	e.logger.Trace("program cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
		slog.String("locals", strings.Join(locals, ",")))

	entry.once.Do(func() {
		entry.program, entry.err = e.Compile(source, locals...)
	})

	return entry.program, entry.err
}
