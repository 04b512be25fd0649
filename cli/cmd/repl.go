package cmd

import (
	"context"

	"github.com/hxl-lang/hxl/cli/cmd/repl"
	"github.com/hxl-lang/hxl/lang"
)

// Repl starts an interactive expression evaluator.
type Repl struct {
	Source string `help:"Source file to preload types and functions from" optional:"" short:"f"`

	NoBuiltins bool `help:"Skip the builtin type catalog"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	logger := LoggerFrom(ctx)

	opts := []lang.Option{lang.WithLogger(logger)}
	if r.NoBuiltins {
		opts = append(opts, lang.WithoutBuiltins())
	}

	eval := lang.NewEvaluator()

	var reg *lang.Registry

	if r.Source != "" {
		src, err := readSource(r.Source)
		if err != nil {
			return err
		}

		root, parsed, err := lang.ParseDocument(src, opts...)
		if err != nil {
			return err
		}

		// Transforming the preloaded document registers its functions
		// with the evaluator.
		if _, err := lang.NewTransformer(parsed, eval).Transform(root); err != nil {
			return err
		}

		reg = parsed
	} else {
		reg = lang.NewRegistry()

		if !r.NoBuiltins {
			if err := lang.LoadBuiltins(reg); err != nil {
				return err
			}
		}
	}

	return repl.Run(ctx, reg, eval, logger)
}
