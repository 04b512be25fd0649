package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hxl-lang/hxl/lang"
)

// Check parses and validates a source file without emitting output.
type Check struct {
	Source string `arg:"" default:"-" help:"Input file or '-' for stdin" optional:""`

	NoBuiltins bool `help:"Skip the builtin type catalog"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	logger := LoggerFrom(ctx)

	src, err := readSource(c.Source)
	if err != nil {
		return err
	}

	opts := []lang.Option{lang.WithLogger(logger)}
	if c.NoBuiltins {
		opts = append(opts, lang.WithoutBuiltins())
	}

	root, reg, err := lang.ParseDocument(src, opts...)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "check passed",
		slog.String("source", c.Source),
		slog.Int("statements", len(root.Stmts)),
	)

	fmt.Printf("%s: ok (%d statements, %d types)\n",
		c.Source, len(root.Stmts), len(reg.Names()))

	return nil
}
