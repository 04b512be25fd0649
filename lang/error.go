package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hxl-lang/hxl/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrFileNotFound     = NewError("source file not found")
	ErrReadInput        = NewError("failed to read input")
	ErrUnknownType      = NewError("unknown type")
	ErrUnknownBaseType  = NewError("unknown base type")
	ErrTypeValidation   = NewError("type validation failed")
	ErrNoEvaluator      = NewError("no evaluator provided")
	ErrInvalidValue     = NewError("invalid value in expansion")
	ErrNotEvaluable     = NewError("expression is not statically evaluable")
	ErrUnknownFunction  = NewError("unknown function")
	ErrArgCountMismatch = NewError("argument count mismatch")
	ErrMissingReturn    = NewError("function body has no return statement")
	ErrMaxDepth         = NewError("maximum block nesting depth exceeded")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // wrapped error (for errors.Unwrap)
	attrs []slog.Attr // attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2+len(e.attrs))

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	for _, a := range e.attrs {
		part = append(part, a.Key+"="+a.Value.String())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches against the sentinel the error was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// SyntaxError is a fatal parse error carrying expected-vs-actual token
// information and the source position. Parsing stops at the first one;
// there is no recovery or resynchronization.
type SyntaxError struct {
	Expected string // description of what the parser wanted
	Actual   token.Token
	Source   string // original source text, for snippet rendering
}

// Error implements the error interface, rendering a caret-marked snippet
// of the offending line when the source is available.
func (e *SyntaxError) Error() string {
	var buf strings.Builder

	buf.WriteString("syntax error at line ")
	buf.WriteString(strconv.Itoa(e.Actual.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Actual.Column))
	buf.WriteString(": expected ")
	buf.WriteString(e.Expected)
	buf.WriteString(", found ")
	buf.WriteString(e.Actual.Kind.String())

	if e.Actual.Text != "" && !e.Actual.Kind.IsKeyword() {
		buf.WriteString(" ")
		buf.WriteString(strconv.Quote(e.Actual.Text))
	}

	if snippet := e.snippet(); snippet != "" {
		buf.WriteString("\n")
		buf.WriteString(snippet)
	}

	return buf.String()
}

// snippet renders the offending source line with a caret marker.
func (e *SyntaxError) snippet() string {
	if e.Source == "" {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Actual.Line < 1 || e.Actual.Line > len(lines) {
		return ""
	}

	var buf strings.Builder

	lineText := lines[e.Actual.Line-1]
	lineNum := strconv.Itoa(e.Actual.Line)

	buf.WriteString("  ")
	buf.WriteString(lineNum)
	buf.WriteString(" | ")
	buf.WriteString(lineText)
	buf.WriteString("\n")

	// 2 leading spaces + line number + " | "
	padding := strings.Repeat(" ", len(lineNum)+5)
	if e.Actual.Column > 0 {
		padding += strings.Repeat(" ", e.Actual.Column-1)
	}

	buf.WriteString(padding + "^")

	return buf.String()
}

// ValidationError aggregates the field-level violations found when a
// resource block's declared type is checked against its literal values.
// One line per violation, tagged with the resource's source line.
type ValidationError struct {
	TypeName string
	Line     int
	Errors   []error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "type validation failed for %q at line %d:",
		e.TypeName, e.Line)

	for _, err := range e.Errors {
		buf.WriteString("\n  - ")
		buf.WriteString(err.Error())
	}

	return buf.String()
}

// Unwrap exposes the individual violations for errors.Is/As.
func (e *ValidationError) Unwrap() []error { return e.Errors }

// asSyntaxError attaches source text to a SyntaxError if err is one.
func asSyntaxError(err error, source string) error {
	se := &SyntaxError{}
	if errors.As(err, &se) {
		se.Source = source
	}

	return err
}
