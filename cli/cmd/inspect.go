package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/hxl-lang/hxl/lang"
	"github.com/hxl-lang/hxl/lang/lexer"
)

// Inspect parses a source file and dumps the token stream or syntax
// tree.
type Inspect struct {
	Source string `arg:"" default:"-"    help:"Input file or '-' for stdin" optional:""`
	Format string `       default:"json" enum:"json,yaml,tokens"            help:"Output encoding"`
	Output string `       help:"Output file (default stdout)"               short:"o" type:"path"`

	NoBuiltins bool `help:"Skip the builtin type catalog"`
}

// Run executes the inspect command.
func (c *Inspect) Run(ctx context.Context) error {
	src, err := readSource(c.Source)
	if err != nil {
		return err
	}

	if c.Format == "tokens" {
		return c.dumpTokens(src)
	}

	opts := []lang.Option{lang.WithLogger(LoggerFrom(ctx))}
	if c.NoBuiltins {
		opts = append(opts, lang.WithoutBuiltins())
	}

	root, _, err := lang.ParseDocument(src, opts...)
	if err != nil {
		return err
	}

	tree := lang.ToMap(root)

	var out []byte

	if c.Format == "yaml" {
		out, err = yaml.Marshal(tree)
	} else {
		out, err = json.MarshalIndent(tree, "", "  ")
	}

	if err != nil {
		return err
	}

	if c.Format != "yaml" {
		out = append(out, '\n')
	}

	return writeOutput(c.Output, string(out))
}

// dumpTokens writes one token per line as position, kind, and text.
func (c *Inspect) dumpTokens(src string) error {
	toks, err := lexer.Scan(src)
	if err != nil {
		return err
	}

	var b strings.Builder

	for _, t := range toks {
		fmt.Fprintf(&b, "%d:%d\t%s\t%q\n", t.Line, t.Column, t.Kind, t.Text)
	}

	return writeOutput(c.Output, b.String())
}
