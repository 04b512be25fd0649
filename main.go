package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hxl-lang/hxl/cli"
	"github.com/hxl-lang/hxl/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Make(os.Stderr, log.WithFormat(log.FormatPretty)).Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
