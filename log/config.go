package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Level is the minimum severity a Logger emits. It extends the slog
// levels with a trace level below debug.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug) - 4
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// DefaultLevel is used when no level option is given.
const DefaultLevel = LevelInfo

// levelNames maps spellings accepted by [ParseLevel].
var levelNames = map[string]Level{
	"trace": LevelTrace,
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// Levels returns the accepted level spellings, lowest first.
func Levels() []string {
	return []string{"trace", "debug", "info", "warn", "error"}
}

// ParseLevel maps a spelling onto its Level, defaulting on no match.
func ParseLevel(s string) Level {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level
	}

	return DefaultLevel
}

// String returns the spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return slog.Level(l).String()
	}
}

// Format selects the output encoding.
type Format int

const (
	// FormatJSON emits one JSON object per record.
	FormatJSON Format = iota
	// FormatText emits logfmt-style key=value records.
	FormatText
	// FormatPretty emits colorized human-readable records.
	FormatPretty
)

// DefaultFormat is used when no format option is given.
const DefaultFormat = FormatJSON

// Formats returns the accepted format spellings.
func Formats() []string {
	return []string{"json", "text", "pretty"}
}

// ParseFormat maps a spelling onto its Format, defaulting on no match.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText
	case "pretty":
		return FormatPretty
	default:
		return DefaultFormat
	}
}

// String returns the spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPretty:
		return "pretty"
	default:
		return "json"
	}
}

// DefaultTimeLayout formats record timestamps unless overridden.
const DefaultTimeLayout = time.RFC3339

// timeLayouts maps layout names accepted by [WithTimeLayout] onto their
// reference layouts.
var timeLayouts = map[string]string{
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"RFC1123":     time.RFC1123,
	"Kitchen":     time.Kitchen,
	"Stamp":       time.Stamp,
	"StampMilli":  time.StampMilli,
	"DateTime":    time.DateTime,
	"DateOnly":    time.DateOnly,
	"TimeOnly":    time.TimeOnly,
}

type config struct {
	writer     io.Writer
	level      Level
	format     Format
	timeLayout string
	caller     bool
}

// Option overrides one configuration value.
type Option func(*config)

func makeConfig(w io.Writer, opts ...Option) config {
	cfg := config{
		writer:     w,
		level:      DefaultLevel,
		format:     DefaultFormat,
		timeLayout: DefaultTimeLayout,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func (c config) clone(opts ...Option) config {
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// handler builds the slog handler for the configured format.
func (c config) handler() slog.Handler {
	if c.format == FormatPretty {
		return newPrettyHandler(c)
	}

	hopts := &slog.HandlerOptions{
		Level:       slog.Level(c.level),
		AddSource:   c.caller,
		ReplaceAttr: c.replaceAttr,
	}

	if c.format == FormatText {
		return slog.NewTextHandler(c.writer, hopts)
	}

	return slog.NewJSONHandler(c.writer, hopts)
}

// replaceAttr renames the trace level and applies the time layout.
func (c config) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(Level(level).String())
		}

	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(c.timeLayout))
		}
	}

	return a
}

// WithLevel sets the minimum level.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

// WithTimeLayout sets the timestamp layout. Named layouts like "RFC3339"
// resolve through the layout table; anything else is used verbatim.
func WithTimeLayout(layout string) Option {
	return func(c *config) {
		if ref, ok := timeLayouts[layout]; ok {
			layout = ref
		}

		c.timeLayout = layout
	}
}

// WithCaller includes source position in each record.
func WithCaller(enable bool) Option {
	return func(c *config) { c.caller = enable }
}

// WithOutput redirects the log output.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// WithPretty toggles the colorized pretty format. Disabling it falls
// back to [DefaultFormat].
func WithPretty(enable bool) Option {
	return func(c *config) {
		if enable {
			c.format = FormatPretty
		} else if c.format == FormatPretty {
			c.format = DefaultFormat
		}
	}
}
