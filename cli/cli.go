package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/htmpl/cli/cmd"
	"github.com/ardnew/htmpl/pkg"
)

// CLI is the top-level command-line interface for htmpl.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Input cmd.Input `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
	Check  cmd.Check  `cmd:""                    help:"Compile templates and report errors"`
	Watch  cmd.Watch  `cmd:""                    help:"Render a template again whenever its sources change"`
	Repl   cmd.Repl   `cmd:""                    help:"Start the interactive template playground"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the htmpl CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, pkg.ConfigFile(), exit, nil, args...)
}

// run is Run with an explicit configuration file and extra kong options.
func run(
	ctx context.Context,
	configFile string,
	exit func(code int),
	opts []kong.Option,
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	vars := kong.Vars{
		"version":             pkg.Version(),
		cmd.ConfigIdentifier:  configFile,
		cmd.HistoryIdentifier: pkg.HistoryFile(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that the logger is configured before
	// kong reports anything, regardless of flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, append([]kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.Bind(&cli.Input),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(load, configFile),
		vars,
	}, opts...)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
