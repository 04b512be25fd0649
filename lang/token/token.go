// Package token defines the lexical tokens of the HXL language.
package token

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	// EOF marks the end of the token stream. Every successful scan of a
	// source document terminates with exactly one EOF token.
	EOF Kind = iota

	// Identifier is a name token: [A-Za-z_][A-Za-z0-9_$]*.
	Identifier
	// Number is an integer or float literal. Whether the literal is a
	// float is decided later by the presence of '.' in its text.
	Number
	// String is a quoted string literal with escapes already decoded.
	String

	// Keywords.
	For
	In
	If
	Else
	Switch
	Case
	Default
	Resource
	Variable
	Output
	Function
	Return
	Null
	True
	False
	Calc
	MapsTo

	// Operators and delimiters.
	Assign       // =
	Equal        // ==
	NotEqual     // !=
	Less         // <
	LessEqual    // <=
	Greater      // >
	GreaterEqual // >=
	And          // &&
	Or           // ||
	Not          // !
	Plus         // +
	Minus        // -
	Star         // *
	Slash        // /
	Percent      // %
	Question     // ?
	Colon        // :
	Comma        // ,
	Dot          // .
	Pipe         // |
	LBrace       // {
	RBrace       // }
	LBracket     // [
	RBracket     // ]
	LParen       // (
	RParen       // )
)

// Token is a single lexical unit with its source position.
// Tokens are immutable once produced by the lexer.
type Token struct {
	Kind   Kind
	Text   string
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset of the token's first character in the source
}

// Keywords maps reserved identifier spellings to their token kinds.
// Any identifier not present here lexes as a generic [Identifier].
var Keywords = map[string]Kind{
	"for":      For,
	"in":       In,
	"if":       If,
	"else":     Else,
	"switch":   Switch,
	"case":     Case,
	"default":  Default,
	"resource": Resource,
	"variable": Variable,
	"output":   Output,
	"function": Function,
	"return":   Return,
	"null":     Null,
	"true":     True,
	"false":    False,
	"calc":     Calc,
	"maps_to":  MapsTo,
}

// Operators lists operator and delimiter spellings in match order:
// two-character operators precede the one-character operators that
// share their prefix, so longest-prefix matching can scan in order.
var Operators = []struct {
	Text string
	Kind Kind
}{
	{"==", Equal},
	{"!=", NotEqual},
	{"<=", LessEqual},
	{">=", GreaterEqual},
	{"&&", And},
	{"||", Or},
	{"=", Assign},
	{"<", Less},
	{">", Greater},
	{"!", Not},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"%", Percent},
	{"?", Question},
	{":", Colon},
	{",", Comma},
	{".", Dot},
	{"|", Pipe},
	{"{", LBrace},
	{"}", RBrace},
	{"[", LBracket},
	{"]", RBracket},
	{"(", LParen},
	{")", RParen},
}

// kindNames holds display names for diagnostics.
var kindNames = map[Kind]string{
	EOF:          "EOF",
	Identifier:   "identifier",
	Number:       "number",
	String:       "string",
	For:          "'for'",
	In:           "'in'",
	If:           "'if'",
	Else:         "'else'",
	Switch:       "'switch'",
	Case:         "'case'",
	Default:      "'default'",
	Resource:     "'resource'",
	Variable:     "'variable'",
	Output:       "'output'",
	Function:     "'function'",
	Return:       "'return'",
	Null:         "'null'",
	True:         "'true'",
	False:        "'false'",
	Calc:         "'calc'",
	MapsTo:       "'maps_to'",
	Assign:       "'='",
	Equal:        "'=='",
	NotEqual:     "'!='",
	Less:         "'<'",
	LessEqual:    "'<='",
	Greater:      "'>'",
	GreaterEqual: "'>='",
	And:          "'&&'",
	Or:           "'||'",
	Not:          "'!'",
	Plus:         "'+'",
	Minus:        "'-'",
	Star:         "'*'",
	Slash:        "'/'",
	Percent:      "'%'",
	Question:     "'?'",
	Colon:        "':'",
	Comma:        "','",
	Dot:          "'.'",
	Pipe:         "'|'",
	LBrace:       "'{'",
	RBrace:       "'}'",
	LBracket:     "'['",
	RBracket:     "']'",
	LParen:       "'('",
	RParen:       "')'",
}

// String returns a display name for the kind, suitable for diagnostics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether the kind is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k >= For && k <= MapsTo
}

// String renders the token for diagnostics as kind(text)@line:col.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Column)
}
