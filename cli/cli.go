// Package cli defines the command-line interface for the hxl transpiler.
package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/hxl-lang/hxl/cli/cmd"
	"github.com/hxl-lang/hxl/pkg"
)

// CLI is the top-level command-line interface for hxl.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Convert cmd.Convert `cmd:"" default:"withargs" help:"Convert source to standard HCL"`
	Check   cmd.Check   `cmd:""                    help:"Parse and validate source without emitting"`
	Inspect cmd.Inspect `cmd:""                    help:"Dump the parsed syntax tree"`
	Repl    cmd.Repl    `cmd:""                    help:"Evaluate expressions interactively"`
}

// Run executes the hxl CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vars := kong.Vars{
		"version": pkg.Name + " " + strings.TrimSpace(pkg.Version),
	}.CloneWith(cli.Pprof.vars())

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := cli.Log.logger()
	ctx = cmd.WithLogger(ctx, logger)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ktx.BindTo(ctx, (*context.Context)(nil))

	return ktx.Run()
}
