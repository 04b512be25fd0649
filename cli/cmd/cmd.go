// Package cmd implements the hxl subcommands.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/hxl-lang/hxl/log"
)

type loggerKey struct{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom retrieves the logger stored in ctx by [WithLogger]. The
// zero Logger is returned when none is stored, which discards silently.
func LoggerFrom(ctx context.Context) log.Logger {
	logger, _ := ctx.Value(loggerKey{}).(log.Logger)

	return logger
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource reads the named file, or stdin when path is "-".
func readSource(path string) (string, error) {
	if path == stdinSource {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// writeOutput writes text to the named file, or stdout when path is
// empty.
func writeOutput(path, text string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, text)

		return err
	}

	return os.WriteFile(path, []byte(text), 0o644)
}
