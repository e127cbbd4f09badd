package repl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/ftd/lang/host"
	"github.com/ardnew/ftd/lang/interp"
	"github.com/ardnew/ftd/log"
)

const testLib = "-- integer base: 10\n\n-- integer limit: 99\n"

const testMain = `-- import: lib
exposing: base

-- record point:
integer x:
integer y:

-- point p:
x: 3
y: 4

-- integer $n: 1

-- ftd.integer: $n
id: counter
$on-click$: $ftd.increment($a=$n)

-- ftd.text: Done
`

// newSession interprets testMain with testLib on the search path.
func newSession(t *testing.T) *session {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.ftd"), []byte(testLib), 0o600); err != nil {
		t.Fatal(err)
	}

	h := host.New(host.WithSearchPath(dir))

	s := &session{
		load: func(ctx context.Context) (*interp.Document, error) {
			return h.Interpret(ctx, "main", testMain)
		},
		logger: log.Discard(),
	}

	if err := s.reload(t.Context()); err != nil {
		t.Fatalf("load error: %v", err)
	}

	return s
}
