package cmd

import (
	"context"
	"log/slog"

	"github.com/hxl-lang/hxl/lang"
)

// Convert transpiles a source file to standard HCL.
type Convert struct {
	Source string `arg:"" default:"-" help:"Input file or '-' for stdin" optional:""`
	Output string `       help:"Output file (default stdout)"            short:"o" type:"path"`

	NoBuiltins bool `help:"Skip the builtin type catalog"`
}

// Run executes the convert command.
func (c *Convert) Run(ctx context.Context) error {
	logger := LoggerFrom(ctx)

	opts := []lang.Option{lang.WithLogger(logger)}
	if c.NoBuiltins {
		opts = append(opts, lang.WithoutBuiltins())
	}

	var (
		out string
		err error
	)

	if c.Source == stdinSource {
		src, rerr := readSource(c.Source)
		if rerr != nil {
			return rerr
		}

		out, err = lang.Convert(ctx, src, opts...)
	} else {
		out, err = lang.ConvertFile(ctx, c.Source, opts...)
	}

	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "conversion complete",
		slog.String("source", c.Source),
		slog.Int("bytes", len(out)),
	)

	return writeOutput(c.Output, out)
}
