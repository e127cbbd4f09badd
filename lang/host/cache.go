package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/ftd/lang/ast"
	"github.com/ardnew/ftd/log"
)

// Cache holds the declarations of parsed modules. It is safe for
// concurrent use; the zero value is ready to use.
//
// Declarations are shared by every interpretation reading them and must
// not be modified.
type Cache struct {
	entries sync.Map
}

type entry struct {
	once  sync.Once
	items []ast.Ast
	err   error
}

// Parse returns the declarations of module, parsing source only when the
// same module and source were not parsed before. Parse errors are cached
// too, unless parsing was interrupted by ctx.
func (c *Cache) Parse(
	ctx context.Context,
	module, source string,
	logger log.Logger,
) ([]ast.Ast, error) {
	key := cacheKey(module, source)

	v, hit := c.entries.LoadOrStore(key, new(entry))
	e := v.(*entry)

	logger.TraceContext(ctx, "cache lookup",
		log.Module(module),
		slog.String("key", fmt.Sprintf("%016x%016x", key.Hi, key.Lo)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.items, e.err = ast.ParseString(ctx, module, source, ast.WithLogger(logger))
	})

	if errors.Is(e.err, context.Canceled) || errors.Is(e.err, context.DeadlineExceeded) {
		c.entries.CompareAndDelete(key, e)
	}

	return e.items, e.err
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear drops every cached module.
func (c *Cache) Clear() { c.entries.Clear() }

// cacheKey separates module from source with a byte no module name holds.
func cacheKey(module, source string) xxh3.Uint128 {
	return xxh3.HashString128(module + "\x00" + source)
}
