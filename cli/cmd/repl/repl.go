// Package repl implements an interactive expression evaluator over the
// hxl language runtime.
package repl

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hxl-lang/hxl/lang"
	"github.com/hxl-lang/hxl/log"
)

const prompt = "hxl> "

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func helpMessage() string {
	return `
Commands:

  :help     Print this cruft
  :types    List registered type names
  :funcs    List defined function names
  :quit     Exit REPL

Usage:
  Type an expression to evaluate it
  Type a statement snippet (resource, type, for, ...) to transpile it
  Assign with 'name = expression' to bind a variable
  Press Tab to complete type, function, and variable names
  Press Ctrl+C on an empty line or Ctrl+D to exit
`
}

// assignRe matches a top-level 'name = expr' binding. A double equals
// is a comparison, not an assignment.
var assignRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)$`)

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc  func() context.Context
	input    textinput.Model
	reg      *lang.Registry
	eval     *lang.Evaluator
	logger   log.Logger
	vars     map[string]struct{}
	history  []string
	histIdx  int
	quitting bool
}

// Run starts the REPL against the given registry and evaluator.
func Run(
	ctx context.Context,
	reg *lang.Registry,
	eval *lang.Evaluator,
	logger log.Logger,
) error {
	logger.TraceContext(ctx, "repl start",
		slog.Int("type_count", len(reg.Names())),
		slog.Int("func_count", len(eval.Functions())),
	)

	m := newModel(ctx, reg, eval, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	reg *lang.Registry,
	eval *lang.Evaluator,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc: func() context.Context { return ctx },
		input:   ti,
		reg:     reg,
		eval:    eval,
		logger:  logger,
		vars:    make(map[string]struct{}),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	if strings.TrimSpace(m.input.Value()) == "" {
		b.WriteString(hintStyle.Render(
			"Type an expression, or :help for commands"))
	} else if bar := completionBar(m.candidates(), m.input.Value()); bar != "" {
		b.WriteString(bar)
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		return m.executeInput()

	case tea.KeyTab:
		value, cursor := complete(
			m.candidates(), m.input.Value(), m.input.Position())
		m.input.SetValue(value)
		m.input.SetCursor(cursor)

		return m, nil

	case tea.KeyUp:
		if m.histIdx > 0 {
			m.histIdx--
			m.input.SetValue(m.history[m.histIdx])
			m.input.CursorEnd()
		}

		return m, nil

	case tea.KeyDown:
		if m.histIdx < len(m.history) {
			m.histIdx++

			if m.histIdx == len(m.history) {
				m.input.SetValue("")
			} else {
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
		}

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.history = append(m.history, input)
	m.histIdx = len(m.history)
	m.input.SetValue("")

	echo := promptStyle.Render(prompt) + input

	if strings.HasPrefix(input, ":") {
		return m.runCommand(input, echo)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", input),
	)

	if match := assignRe.FindStringSubmatch(input); match != nil {
		if v, err := m.evaluate(match[2]); err == nil {
			m.eval.Define(match[1], v)
			m.vars[match[1]] = struct{}{}

			return m, tea.Println(echo + "\n" +
				resultStyle.Render(match[1]+" = "+formatResult(v)))
		}
		// Non-evaluable right-hand sides fall through to transpilation.
	}

	if v, err := m.evaluate(input); err == nil {
		return m, tea.Println(echo + "\n" + resultStyle.Render(formatResult(v)))
	}

	// Anything that is not a lone expression transpiles as a statement
	// snippet, so types and functions it declares persist in the session.
	out, err := m.transpile(input)
	if err != nil {
		return m, tea.Println(echo + "\n" + errorStyle.Render(err.Error()))
	}

	return m, tea.Println(
		echo + "\n" + resultStyle.Render(strings.TrimRight(out, "\n")))
}

func (m model) runCommand(input, echo string) (model, tea.Cmd) {
	switch strings.TrimSpace(input) {
	case ":help":
		return m, tea.Println(echo + "\n" + hintStyle.Render(helpMessage()))

	case ":types":
		return m, tea.Println(
			echo + "\n" + resultStyle.Render(strings.Join(m.reg.Names(), "\n")))

	case ":funcs":
		return m, tea.Println(
			echo + "\n" +
				resultStyle.Render(strings.Join(m.eval.Functions(), "\n")))

	case ":quit", ":q", ":exit":
		m.quitting = true

		return m, tea.Quit

	default:
		return m, tea.Println(
			echo + "\n" + errorStyle.Render("unknown command; try :help"))
	}
}

func (m model) evaluate(src string) (any, error) {
	expr, err := lang.ParseExpression(src, m.reg)
	if err != nil {
		return nil, err
	}

	return m.eval.Eval(expr)
}

// transpile converts a statement snippet against the session registry
// and evaluator, keeping declared types and functions for later lines.
func (m model) transpile(src string) (string, error) {
	root, _, err := lang.ParseDocument(src,
		lang.WithRegistry(m.reg),
		lang.WithoutBuiltins(),
		lang.WithLogger(m.logger),
	)
	if err != nil {
		return "", err
	}

	out, err := lang.NewTransformer(m.reg, m.eval).Transform(root)
	if err != nil {
		return "", err
	}

	return lang.NewEmitter(m.eval).Emit(out.(*lang.Block)), nil
}

// candidates returns the completion vocabulary: registered type names,
// defined functions, and bound variables.
func (m model) candidates() []string {
	names := m.reg.Names()
	names = append(names, m.eval.Functions()...)

	for v := range m.vars {
		names = append(names, v)
	}

	sort.Strings(names)

	return names
}

// formatResult renders an evaluation result in hxl literal syntax.
func formatResult(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"

	case string:
		return strconv.Quote(val)

	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatResult(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"

	case *lang.Object:
		parts := make([]string, 0, len(val.Keys()))

		for _, key := range val.Keys() {
			item, _ := val.Get(key)
			parts = append(parts, key+" = "+formatResult(item))
		}

		return "{ " + strings.Join(parts, ", ") + " }"

	default:
		return fmt.Sprintf("%v", val)
	}
}
