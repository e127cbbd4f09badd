package log

import "log/slog"

// Attribute keys shared by the interpreter packages.
const (
	KeyDoc     = "doc"
	KeyLine    = "line"
	KeyName    = "name"
	KeyKind    = "kind"
	KeyModule  = "module"
	KeyState   = "state"
	KeyPath    = "path"
	KeyElapsed = "elapsed"
)

// Doc returns an attribute naming a document.
func Doc(id string) slog.Attr { return slog.String(KeyDoc, id) }

// Line returns an attribute holding a 1-based source line number.
func Line(n int) slog.Attr { return slog.Int(KeyLine, n) }

// Name returns an attribute holding a (possibly qualified) thing name.
func Name(s string) slog.Attr { return slog.String(KeyName, s) }

// Kind returns an attribute describing a kind or declaration form.
func Kind(s string) slog.Attr { return slog.String(KeyKind, s) }

// Module returns an attribute naming a module.
func Module(s string) slog.Attr { return slog.String(KeyModule, s) }

// State returns an attribute naming an interpreter state.
func State(s string) slog.Attr { return slog.String(KeyState, s) }

// Path returns an attribute holding a filesystem path.
func Path(s string) slog.Attr { return slog.String(KeyPath, s) }

// Err returns an attribute holding err, using its slog.LogValuer
// implementation when it has one.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	if lv, ok := err.(slog.LogValuer); ok {
		return slog.Any("error", lv)
	}

	return slog.String("error", err.Error())
}
