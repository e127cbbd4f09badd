package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func load(t *testing.T, text string) config {
	t.Helper()

	r, err := resolve(t.Context())(strings.NewReader(text))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	c, ok := r.(config)
	if !ok {
		t.Fatalf("resolver is %T, want config", r)
	}

	return c
}

func TestResolve_Flatten(t *testing.T) {
	c := load(t, `
log:
  level: debug
  pretty: false
log_format: json
include:
  - lib
  - vendor
env: ""
pprof-mode: ~
timeout: 30
`)

	want := config{
		"log-level":  "debug",
		"log-pretty": "false",
		"log-format": "json",
		"include":    "lib,vendor",
		"env":        "",
		"timeout":    "30",
	}

	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Invalid(t *testing.T) {
	if c := load(t, "log: [unterminated"); len(c) != 0 {
		t.Errorf("invalid configuration produced %v", c)
	}
}

func TestResolve_Kong(t *testing.T) {
	var cli struct {
		Level   string   `default:"warn" name:"log-level"`
		Include []string `default:"."`
		Pretty  bool     `default:"true" name:"log-pretty" negatable:""`
	}

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Resolvers(load(t, "log:\n  level: debug\n  pretty: false\ninclude: [a, b]\n")),
	)
	if err != nil {
		t.Fatalf("kong error: %v", err)
	}

	if _, err := parser.Parse([]string{"--include", "c"}); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if cli.Level != "debug" {
		t.Errorf("level = %q, want debug", cli.Level)
	}

	if cli.Pretty {
		t.Errorf("pretty = true, want false from configuration")
	}

	if diff := cmp.Diff([]string{"c"}, cli.Include); diff != "" {
		t.Errorf("command line did not override configuration (-want +got):\n%s", diff)
	}
}
