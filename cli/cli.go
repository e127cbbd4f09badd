package cli

import (
	"context"
	"errors"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ftd/cli/cmd"
	"github.com/ardnew/ftd/lang"
	"github.com/ardnew/ftd/lang/host"
	"github.com/ardnew/ftd/pkg"
)

// CLI is the top-level command-line interface for ftd.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Include []string `default:"."   help:"Directory searched for imported modules, before those in ${pathEnv}" placeholder:"DIR" short:"I" type:"path"`
	Env     string   `default:"env" help:"Foreign module answering variables from the environment (empty disables)"`

	Parse cmd.Parse `cmd:"" help:"Print the section tree of a document"`
	AST   cmd.AST   `cmd:"" help:"Print the declarations of a document"`
	Run   cmd.Run   `cmd:"" help:"Interpret a document and print its elements" default:"withargs"`
	Check cmd.Check `cmd:"" help:"Interpret a document and report diagnostics"`
	Eval  cmd.Eval  `cmd:"" help:"Evaluate an expression against a document"`
	Fmt   cmd.Fmt   `cmd:"" help:"Format the sections of a document"`
	Repl  cmd.Repl  `cmd:"" help:"Inspect an interpreted document interactively"`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Version cmd.Version `cmd:"" help:"Print version information"`
}

// Run executes the ftd CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return pkg.MakeError(err)
	}

	configFilePath := pkg.ConfigPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"pathEnv":            pathEnv(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that loading the configuration file is
	// logged the way the command line asks for.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.DefaultEnvars(pkg.Prefix()),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx, commandName(ktx))()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, host.SearchPath(cli.Include, os.Getenv(pathEnv())))
	ctx = cmd.WithEnvModule(ctx, cli.Env)

	return pkg.MakeError(ktx.Run(ctx, &cli)).OrNil()
}

// commandName returns the name of the selected subcommand.
func commandName(ktx *kong.Context) string {
	if node := ktx.Selected(); node != nil {
		return node.Name
	}

	return ""
}

// ExitCode returns the process exit status for an error returned by [Run].
// Document diagnostics exit with 2, any other failure with 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.As(err, new(*lang.Error)):
		return 2
	default:
		return 1
	}
}
