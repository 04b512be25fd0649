// Package log provides a small structured logging facade over log/slog
// with an additional trace level, selectable output formats, and a
// colorized pretty handler for interactive use.
package log

import (
	"context"
	"io"
	"log/slog"
)

// Logger is a leveled structured logger. The zero value is valid and
// discards everything, so library code can accept a Logger without
// forcing callers to configure one.
type Logger struct {
	slog *slog.Logger
	cfg  config
}

// Make creates a Logger writing to w. The default configuration is
// [DefaultLevel] and [DefaultFormat]; functional options such as
// [WithLevel], [WithFormat], and [WithTimeLayout] override it.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{
		slog: slog.New(cfg.handler()),
		cfg:  cfg,
	}
}

// Wrap returns a Logger with the receiver's configuration overridden by
// the given options.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg := l.cfg.clone(opts...)

	return Logger{
		slog: slog.New(cfg.handler()),
		cfg:  cfg,
	}
}

// With returns a Logger that includes the given attributes in every
// record it emits.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.slog == nil {
		return l
	}

	return Logger{
		slog: slog.New(l.slog.Handler().WithAttrs(attrs)),
		cfg:  l.cfg,
	}
}

// Level returns the configured minimum level.
func (l Logger) Level() Level {
	if l.slog == nil {
		return DefaultLevel
	}

	return l.cfg.level
}

// Format returns the configured output format.
func (l Logger) Format() Format {
	if l.slog == nil {
		return DefaultFormat
	}

	return l.cfg.format
}

func (l Logger) log(
	ctx context.Context,
	level Level,
	msg string,
	attrs ...slog.Attr,
) {
	// The zero value discards silently.
	if l.slog == nil {
		return
	}

	l.slog.LogAttrs(ctx, slog.Level(level), msg, attrs...)
}

// TraceContext logs at trace level with the provided context.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelTrace, msg, attrs...)
}

// Trace logs at trace level.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.TraceContext(context.Background(), msg, attrs...)
}

// DebugContext logs at debug level with the provided context.
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelDebug, msg, attrs...)
}

// Debug logs at debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.DebugContext(context.Background(), msg, attrs...)
}

// InfoContext logs at info level with the provided context.
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelInfo, msg, attrs...)
}

// Info logs at info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.InfoContext(context.Background(), msg, attrs...)
}

// WarnContext logs at warn level with the provided context.
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelWarn, msg, attrs...)
}

// Warn logs at warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.WarnContext(context.Background(), msg, attrs...)
}

// ErrorContext logs at error level with the provided context.
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelError, msg, attrs...)
}

// Error logs at error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.ErrorContext(context.Background(), msg, attrs...)
}
