// Package lexer converts HXL source text into a flat token stream.
package lexer

import (
	"fmt"
	"strings"

	"github.com/hxl-lang/hxl/lang/token"
)

// Error is a fatal lexical error with its source position.
type Error struct {
	Msg    string
	Line   int
	Column int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("lexical error at line %d, column %d: %s",
		e.Line, e.Column, e.Msg)
}

// Lexer scans a source string into tokens. The scan is total: it either
// consumes the entire input or fails with a positioned *Error.
type Lexer struct {
	src    string
	cur    int // byte index of the next unread character
	line   int // 1-based
	column int // 1-based
}

// New creates a lexer for the given source text.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1}
}

// Scan tokenizes the entire source, terminating the stream with a single
// EOF token. Any character that matches no lexical rule, and any string
// left unterminated at EOF, aborts the scan.
func Scan(src string) ([]token.Token, error) {
	return New(src).All()
}

// All scans every remaining token up to and including EOF.
func (l *Lexer) All() ([]token.Token, error) {
	var toks []token.Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)

		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Next scans and returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipBlanks()

	if l.cur >= len(l.src) {
		return l.make(token.EOF, "", l.cur), nil
	}

	start := l.cur
	c := l.src[l.cur]

	switch {
	case isIdentStart(c):
		return l.scanIdentifier(start), nil

	case isDigit(c):
		return l.scanNumber(start), nil

	case c == '"' || c == '\'':
		return l.scanString(start)
	}

	// Operators and delimiters by longest prefix.
	for _, op := range token.Operators {
		if strings.HasPrefix(l.src[l.cur:], op.Text) {
			tok := l.make(op.Kind, op.Text, start)
			l.advance(len(op.Text))

			return tok, nil
		}
	}

	return token.Token{}, &Error{
		Msg:    fmt.Sprintf("unexpected character %q", rune(c)),
		Line:   l.line,
		Column: l.column,
	}
}

// skipBlanks consumes whitespace and '#' and '//' line comments.
func (l *Lexer) skipBlanks() {
	for l.cur < len(l.src) {
		c := l.src[l.cur]

		switch {
		case c == '\n':
			l.cur++
			l.line++
			l.column = 1

		case c == ' ' || c == '\t' || c == '\r':
			l.advance(1)

		case c == '#':
			l.skipLine()

		case c == '/' && l.cur+1 < len(l.src) && l.src[l.cur+1] == '/':
			l.skipLine()

		default:
			return
		}
	}
}

// skipLine consumes up to, but not including, the next newline.
func (l *Lexer) skipLine() {
	for l.cur < len(l.src) && l.src[l.cur] != '\n' {
		l.advance(1)
	}
}

// scanIdentifier consumes an identifier or keyword.
func (l *Lexer) scanIdentifier(start int) token.Token {
	for l.cur < len(l.src) && isIdentPart(l.src[l.cur]) {
		l.cur++
	}

	text := l.src[start:l.cur]
	tok := l.make(token.Identifier, text, start)

	if kind, ok := token.Keywords[text]; ok {
		tok.Kind = kind
	}

	l.column += len(text)

	return tok
}

// scanNumber consumes a maximal run of digits with at most one '.'.
// A second '.' terminates the number early and is left for the next token.
func (l *Lexer) scanNumber(start int) token.Token {
	sawDot := false

	for l.cur < len(l.src) {
		c := l.src[l.cur]

		if isDigit(c) {
			l.cur++

			continue
		}

		if c == '.' && !sawDot {
			sawDot = true
			l.cur++

			continue
		}

		break
	}

	text := l.src[start:l.cur]
	tok := l.make(token.Number, text, start)
	l.column += len(text)

	return tok
}

// scanString consumes a string delimited by matching '"' or '\''.
// Escapes for n, r, t, backslash, and both quote characters decode to
// their character; any other escaped character is copied literally.
func (l *Lexer) scanString(start int) (token.Token, error) {
	quote := l.src[l.cur]
	startLine, startColumn := l.line, l.column
	l.advance(1)

	var sb strings.Builder

	for l.cur < len(l.src) {
		c := l.src[l.cur]

		switch c {
		case quote:
			tok := token.Token{
				Kind:   token.String,
				Text:   sb.String(),
				Line:   startLine,
				Column: startColumn,
				Offset: start,
			}
			l.advance(1)

			return tok, nil

		case '\\':
			if l.cur+1 >= len(l.src) {
				// Trailing backslash runs into EOF; report as unterminated.
				l.advance(1)

				continue
			}

			esc := l.src[l.cur+1]

			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				sb.WriteByte(esc)
			}

			l.advance(2)

		case '\n':
			sb.WriteByte(c)
			l.cur++
			l.line++
			l.column = 1

		default:
			sb.WriteByte(c)
			l.advance(1)
		}
	}

	return token.Token{}, &Error{
		Msg:    "unterminated string",
		Line:   startLine,
		Column: startColumn,
	}
}

// make builds a token at the current position without consuming input.
func (l *Lexer) make(kind token.Kind, text string, offset int) token.Token {
	return token.Token{
		Kind:   kind,
		Text:   text,
		Line:   l.line,
		Column: l.column,
		Offset: offset,
	}
}

// advance consumes n bytes on the current line.
func (l *Lexer) advance(n int) {
	l.cur += n
	l.column += n
}

func isIdentStart(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
