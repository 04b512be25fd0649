package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the pretty handler.
var (
	styleKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleString = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleTrue   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFalse  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	levelStyles = map[Level]lipgloss.Style{
		LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}

	styleMessage = lipgloss.NewStyle().Bold(true)
)

// prettyHandler renders records as colorized key=value lines for
// interactive terminals.
type prettyHandler struct {
	cfg   config
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

func newPrettyHandler(cfg config) *prettyHandler {
	return &prettyHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   cfg.writer,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		buf.WriteString(styleTime.Render(r.Time.Format(h.cfg.timeLayout)))
	}

	h.sep(buf)
	buf.WriteString(levelStyle(Level(r.Level)).Render(Level(r.Level).String()))

	if h.cfg.caller {
		if src := r.Source(); src != nil {
			h.sep(buf)
			buf.WriteString(styleSource.Render(
				fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.sep(buf)
	buf.WriteString(styleMessage.Render(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	dup := *h
	dup.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)

	return &dup
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	dup := *h

	if dup.group != "" {
		name = dup.group + "." + name
	}

	dup.group = name

	return &dup
}

func (h *prettyHandler) sep(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	h.sep(buf)
	buf.WriteString(styleKey.Render(key))
	buf.WriteByte('=')
	buf.WriteString(renderValue(a.Value))
}

func levelStyle(level Level) lipgloss.Style {
	if style, ok := levelStyles[level]; ok {
		return style
	}

	if level >= LevelError {
		return levelStyles[LevelError]
	}

	return levelStyles[LevelTrace]
}

func renderValue(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return styleString.Render(v.String())

	case slog.KindInt64:
		return styleNumber.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return styleNumber.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return styleNumber.Render(
			strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return styleTrue.Render("true")
		}

		return styleFalse.Render("false")

	case slog.KindDuration:
		return styleNumber.Render(v.Duration().String())

	case slog.KindTime:
		return styleTime.Render(v.Time().String())

	default:
		return styleString.Render(v.String())
	}
}
