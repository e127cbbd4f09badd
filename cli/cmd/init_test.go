package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

type initCLI struct {
	Level   string   `default:"warn" help:"Minimum log level" name:"log-level"`
	Pretty  bool     `default:"true" help:"Colorize output"   name:"log-pretty" negatable:""`
	Include []string `default:"."    help:"Module directory"`
	Mode    string   `help:"Profiling mode" name:"pprof-mode"`
	Secret  string   `hidden:""`

	Init Init `cmd:""`
}

func initContext(t *testing.T, confPath string, args ...string) *kong.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{ConfigIdentifier: confPath},
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append(args, "init"))
	if err != nil {
		t.Fatal(err)
	}

	return ktx
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create"},
		{name: "overwrite with force", force: true, exists: true},
		{name: "exists", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "ftd", "config.yaml")

			if tt.exists {
				if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
					t.Fatal(err)
				}

				if err := os.WriteFile(confPath, []byte("old: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ktx := initContext(t, confPath, "--log-level", "debug", "--include", "lib", "--include", "vendor")

			err := (&Init{Force: tt.force}).Run(WithContext(t.Context(), ktx))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("init error: %v", err)
			}

			data, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			text := string(data)

			for _, want := range []string{"# ftd configuration", "# Minimum log level\n"} {
				if !strings.Contains(text, want) {
					t.Errorf("config missing %q:\n%s", want, text)
				}
			}

			var got map[string]any
			if err := yaml.Unmarshal(data, &got); err != nil {
				t.Fatalf("config is not yaml: %v\n%s", err, text)
			}

			want := map[string]any{
				"log-level":  "debug",
				"log-pretty": true,
				"include":    []any{"lib", "vendor"},
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlagValue(t *testing.T) {
	ktx := initContext(t, filepath.Join(t.TempDir(), "config.yaml"))

	for _, flag := range ktx.Model.Flags {
		got := flagValue(ktx, flag)

		switch flag.Name {
		case "log-level":
			if got != "warn" {
				t.Errorf("log-level = %v, want warn", got)
			}
		case "log-pretty":
			if got != true {
				t.Errorf("log-pretty = %v, want true", got)
			}
		case "include":
			if diff := cmp.Diff([]string{"."}, got); diff != "" {
				t.Errorf("include mismatch (-want +got):\n%s", diff)
			}
		}
	}
}
