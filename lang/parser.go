package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/hxl-lang/hxl/lang/lexer"
	"github.com/hxl-lang/hxl/lang/token"
)

// scanTokens tokenizes a standalone fragment.
func scanTokens(src string) ([]token.Token, error) {
	return lexer.Scan(src)
}

// rawBlockNames are block names whose bodies are not parsed structurally:
// they are captured as raw balanced-brace text and re-emitted verbatim.
// This is the escape hatch for payloads whose internal syntax the
// language does not model (embedded scripts, templates).
var rawBlockNames = map[string]bool{
	"configuration": true,
	"containers":    true,
}

// Parser is a recursive-descent parser over the token stream. Expression
// parsing is precedence-climbing. The parser shares a type registry with
// the later stages: type declarations register immediately so later
// statements in the same parse can reference them, and resource blocks
// that carry a type tag are shallow-validated against it.
type Parser struct {
	toks   []token.Token
	pos    int
	source string
	reg    *Registry

	// blockLevel disambiguates the top-level 'type' keyword: a type
	// declaration is only recognized at level zero; inside nested blocks
	// 'type' is an ordinary identifier.
	blockLevel int

	// maxDepth bounds blockLevel; exceeding it fails with ErrMaxDepth.
	maxDepth int

	// noBlock suppresses trailing-block attachment while parsing
	// control-flow headers (for/if/switch), where the '{' belongs to the
	// statement.
	noBlock bool
}

// NewParser creates a parser over a scanned token stream. The source
// text is retained for raw-block capture and error snippets.
// DefaultMaxDepth bounds block nesting to keep pathological inputs from
// exhausting the stack.
const DefaultMaxDepth = 256

func NewParser(toks []token.Token, source string, reg *Registry) *Parser {
	return &Parser{toks: toks, source: source, reg: reg, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth overrides the block nesting limit. Zero or negative
// restores [DefaultMaxDepth].
func (p *Parser) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}

	p.maxDepth = n
}

// Parse consumes the full token stream up to EOF and returns the
// whole-program root block.
func (p *Parser) Parse() (*Block, error) {
	block, err := p.parseStatements(token.EOF)
	if err != nil {
		return nil, asSyntaxError(err, p.source)
	}

	if _, err := p.expect(token.EOF, "end of input"); err != nil {
		return nil, asSyntaxError(err, p.source)
	}

	return block, nil
}

// ParseExpression parses a standalone expression string, as used by the
// builtin catalog's calculated-field definitions and interactive input.
// The whole input must form one expression.
func ParseExpression(src string, reg *Registry) (Node, error) {
	toks, err := scanTokens(src)
	if err != nil {
		return nil, err
	}

	p := NewParser(toks, src, reg)

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, asSyntaxError(err, src)
	}

	if _, err := p.expect(token.EOF, "end of expression"); err != nil {
		return nil, asSyntaxError(err, src)
	}

	return expr, nil
}

// ParseTypeRef parses a standalone type annotation string, for example
// "string?" or `"t2.micro" | "t3.micro"`.
func ParseTypeRef(src string) (*CustomType, error) {
	toks, err := scanTokens(src)
	if err != nil {
		return nil, err
	}

	p := NewParser(toks, src, NewRegistry())

	annot, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, asSyntaxError(err, src)
	}

	if _, err := p.expect(token.EOF, "end of type annotation"); err != nil {
		return nil, asSyntaxError(err, src)
	}

	return annot, nil
}

// cur returns the current token without consuming it.
func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}

	return p.toks[p.pos]
}

// peek returns the token at the given lookahead offset.
func (p *Parser) peek(offset int) token.Token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}

	return p.toks[p.pos+offset]
}

// next consumes and returns the current token.
func (p *Parser) next() token.Token {
	tok := p.cur()

	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return tok
}

// expect consumes a token of the given kind or fails with a syntax error
// describing what was wanted.
func (p *Parser) expect(kind token.Kind, what string) (token.Token, error) {
	if p.cur().Kind != kind {
		return token.Token{}, p.errExpected(what)
	}

	return p.next(), nil
}

// errExpected builds a syntax error at the current token.
func (p *Parser) errExpected(what string) error {
	return &SyntaxError{Expected: what, Actual: p.cur()}
}

// parseStatements parses statements until the given closing kind.
func (p *Parser) parseStatements(until token.Kind) (*Block, error) {
	block := &Block{}

	for p.cur().Kind != until && p.cur().Kind != token.EOF {
		// Tolerate stray commas between block statements.
		if p.cur().Kind == token.Comma {
			p.next()

			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		block.Stmts = append(block.Stmts, stmt)
	}

	return block, nil
}

// parseBraceBlock parses '{' statements '}' at one deeper block level.
func (p *Parser) parseBraceBlock() (*Block, error) {
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}

	if p.blockLevel >= p.maxDepth {
		return nil, ErrMaxDepth.With(slog.Int("depth", p.maxDepth))
	}

	p.blockLevel++
	defer func() { p.blockLevel-- }()

	block, err := p.parseStatements(token.RBrace)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}

	return block, nil
}

// parseStatement dispatches on the first token (plus peek for two-token
// decisions).
func (p *Parser) parseStatement() (Node, error) {
	switch p.cur().Kind {
	case token.Return:
		p.next()

		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		return &Return{Value: expr}, nil

	case token.Resource:
		return p.parseResource()

	case token.For:
		return p.parseFor()

	case token.If:
		return p.parseIf()

	case token.Switch:
		return p.parseSwitch()

	case token.Function:
		return p.parseFunction()

	case token.Variable, token.Output:
		return p.parseLabeledBlock()

	case token.Identifier, token.String:
		return p.parseNamedStatement()

	default:
		return p.parseExprStatement()
	}
}

// parseNamedStatement handles statements that begin with an identifier
// or string token: type declarations (top level only), raw blocks,
// mappings, assignments, named blocks, or bare expressions.
func (p *Parser) parseNamedStatement() (Node, error) {
	name := p.cur()

	// Top-level 'type IDENT { ... }' declaration. Inside nested blocks,
	// 'type' used as a field name or key is just an identifier.
	if name.Kind == token.Identifier && name.Text == "type" &&
		p.blockLevel == 0 && p.peek(1).Kind == token.Identifier {
		return p.parseTypeDecl()
	}

	// Raw balanced-brace capture for configuration/containers.
	if name.Kind == token.Identifier && rawBlockNames[name.Text] &&
		p.peek(1).Kind == token.LBrace {
		return p.parseRawBlock()
	}

	switch p.peek(1).Kind {
	case token.MapsTo:
		p.next() // name
		p.next() // maps_to

		target, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		return &Mapping{From: nameNode(name), To: target}, nil

	case token.Assign:
		p.next() // name
		p.next() // =

		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		return &KeyValue{Key: name.Text, Value: value}, nil

	case token.LBrace:
		p.next() // name

		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}

		return &NamedBlock{Name: name.Text, Body: body}, nil

	case token.String:
		// Two-token lookahead: name "label" { ... } is a labeled named
		// block (service, deployment, and friends).
		if p.peek(2).Kind == token.LBrace {
			p.next() // name
			label := p.next()

			body, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}

			return &NamedBlock{
				Name:  name.Text,
				Label: label.Text,
				Body:  body,
			}, nil
		}
	}

	return p.parseExprStatement()
}

// nameNode wraps a statement-leading name token as an expression node.
func nameNode(tok token.Token) Node {
	if tok.Kind == token.String {
		return &StringLit{Value: tok.Text}
	}

	return &Identifier{Name: tok.Text}
}

// parseExprStatement parses a bare expression in statement position.
func (p *Parser) parseExprStatement() (Node, error) {
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	return &ExprStmt{Expr: expr}, nil
}

// parseLabeledBlock parses variable/output "label" { ... } statements.
func (p *Parser) parseLabeledBlock() (Node, error) {
	keyword := p.next()

	label, err := p.expect(token.String, "block label string")
	if err != nil {
		return nil, err
	}

	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	return &NamedBlock{
		Name:  keyword.Text,
		Label: label.Text,
		Body:  body,
	}, nil
}

// parseResource parses resource "<kind>" "<name>" { ... } and shallow-
// validates the body against its declared type, when one is named and
// registered. Defaults are intentionally not substituted here: parse
// time validates structure early, transform time completes values.
func (p *Parser) parseResource() (Node, error) {
	kw := p.next()

	kind, err := p.expect(token.String, "resource type string")
	if err != nil {
		return nil, err
	}

	name, err := p.expect(token.String, "resource name string")
	if err != nil {
		return nil, err
	}

	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Type: kind.Text,
		Name: name.Text,
		Body: body,
		Line: kw.Line,
	}

	if err := p.validateResource(res); err != nil {
		return nil, err
	}

	return res, nil
}

// validateResource scans a resource body's direct statements for a
// type tag and checks the provided literal values against the registry.
// All violations aggregate into one error tagged with the resource's
// source line.
func (p *Parser) validateResource(res *Resource) error {
	typeName := ""

	for _, stmt := range res.Body.Stmts {
		kv, ok := stmt.(*KeyValue)
		if !ok || kv.Key != "type" {
			continue
		}

		switch v := kv.Value.(type) {
		case *Identifier:
			typeName = v.Name
		case *StringLit:
			typeName = v.Value
		case *TypeInstance:
			typeName = v.TypeName
		}

		break
	}

	if typeName == "" || !p.reg.Has(typeName) {
		return nil
	}

	values := shallowValues(res.Body)

	if errs := p.reg.ValidateInstance(typeName, values); len(errs) > 0 {
		return &ValidationError{
			TypeName: typeName,
			Line:     res.Line,
			Errors:   errs,
		}
	}

	return nil
}

// shallowValues extracts the literal and identifier values of a block's
// direct key-value statements. Identifiers contribute their own name as
// text; values that are not statically extractable are marked dynamic so
// they count as present without a constraint check.
func shallowValues(body *Block) *Object {
	values := NewObject()

	for _, stmt := range body.Stmts {
		kv, ok := stmt.(*KeyValue)
		if !ok || kv.Key == "type" {
			continue
		}

		switch v := kv.Value.(type) {
		case *Identifier:
			values.Set(kv.Key, v.Name)

		default:
			if plain, err := nodeToValue(kv.Value); err == nil {
				values.Set(kv.Key, plain)
			} else {
				values.Set(kv.Key, Dynamic)
			}
		}
	}

	return values
}

// parseFor parses for IDENT in EXPR { ... }.
func (p *Parser) parseFor() (Node, error) {
	p.next() // for

	iter, err := p.expect(token.Identifier, "loop variable")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.In, "'in'"); err != nil {
		return nil, err
	}

	iterable, err := p.parseHeaderExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	return &ForLoop{Iterator: iter.Text, Iterable: iterable, Body: body}, nil
}

// parseIf parses if EXPR { ... } [else { ... }].
func (p *Parser) parseIf() (Node, error) {
	p.next() // if

	cond, err := p.parseHeaderExpression()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	var els *Block

	if p.cur().Kind == token.Else {
		p.next()

		els, err = p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
	}

	return &Conditional{Cond: cond, Then: then, Else: els}, nil
}

// parseSwitch parses switch EXPR { case EXPR { ... } ... [default { ... }] }.
// Any token besides case/default before the closing brace is a fatal
// syntax error.
func (p *Parser) parseSwitch() (Node, error) {
	p.next() // switch

	subject, err := p.parseHeaderExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}

	p.blockLevel++
	defer func() { p.blockLevel-- }()

	sw := &Switch{Subject: subject}

	for p.cur().Kind != token.RBrace {
		switch p.cur().Kind {
		case token.Case:
			p.next()

			value, err := p.parseHeaderExpression()
			if err != nil {
				return nil, err
			}

			body, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}

			sw.Cases = append(sw.Cases, &CaseArm{Value: value, Body: body})

		case token.Default:
			if sw.Default != nil {
				return nil, p.errExpected("at most one default block")
			}

			p.next()

			body, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}

			sw.Default = body

		default:
			return nil, p.errExpected("'case' or 'default'")
		}
	}

	p.next() // }

	if len(sw.Cases) == 0 {
		return nil, p.errExpected("at least one case arm")
	}

	return sw, nil
}

// parseFunction parses function IDENT(PARAMS) [: TYPE] { ... }.
func (p *Parser) parseFunction() (Node, error) {
	p.next() // function

	name, err := p.expect(token.Identifier, "function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}

	fn := &Function{Name: name.Text}

	for p.cur().Kind != token.RParen {
		pname, err := p.expect(token.Identifier, "parameter name")
		if err != nil {
			return nil, err
		}

		param := &Param{Name: pname.Text}

		if p.cur().Kind == token.Colon {
			p.next()

			param.Type, err = p.parseTypeAnnotation()
			if err != nil {
				return nil, err
			}
		}

		fn.Params = append(fn.Params, param)

		if p.cur().Kind == token.Comma {
			p.next()
		}
	}

	p.next() // )

	if p.cur().Kind == token.Colon {
		p.next()

		fn.ReturnType, err = p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
	}

	fn.Body, err = p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	return fn, nil
}

// parseTypeDecl parses a top-level type IDENT { FIELDS } declaration and
// registers it immediately, so later statements in the same parse can
// reference the new type.
func (p *Parser) parseTypeDecl() (Node, error) {
	p.next() // 'type' identifier

	name, err := p.expect(token.Identifier, "type name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}

	p.blockLevel++
	defer func() { p.blockLevel-- }()

	def := &TypeDefinition{Name: name.Text}

	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.Comma {
			p.next()

			continue
		}

		if err := p.parseFieldDecl(def); err != nil {
			return nil, err
		}
	}

	p.next() // }

	if err := p.reg.Register(def); err != nil {
		return nil, err
	}

	return &TypeDecl{Def: def}, nil
}

// parseFieldDecl parses one field of a type declaration:
// name : TYPE [= DEFAULT | = calc { EXPR }], or the special
// base : ParentTypeName inheritance field.
func (p *Parser) parseFieldDecl(def *TypeDefinition) error {
	if p.cur().Kind != token.Identifier && p.cur().Kind != token.String {
		return p.errExpected("field name")
	}

	name := p.next()

	if _, err := p.expect(token.Colon, "':'"); err != nil {
		return err
	}

	// base has no type annotation, just the parent type name.
	if name.Text == "base" {
		parent, err := p.expect(token.Identifier, "base type name")
		if err != nil {
			return err
		}

		def.Base = parent.Text

		return nil
	}

	annot, err := p.parseTypeAnnotation()
	if err != nil {
		return err
	}

	field := &FieldDefinition{
		Name:       name.Text,
		Constraint: &TypeConstraint{Type: annot},
	}

	if p.cur().Kind == token.Assign {
		p.next()

		if p.cur().Kind == token.Calc {
			p.next()

			if _, err := p.expect(token.LBrace, "'{'"); err != nil {
				return err
			}

			expr, err := p.parseExpression(0)
			if err != nil {
				return err
			}

			if _, err := p.expect(token.RBrace, "'}'"); err != nil {
				return err
			}

			field.Calculated = &CalculatedField{
				Expr: expr,
				Deps: collectDeps(expr),
			}
		} else {
			expr, err := p.parseExpression(0)
			if err != nil {
				return err
			}

			// Literal defaults store their plain value; anything else
			// stays an expression node evaluated at expansion time.
			if plain, err := nodeToValue(expr); err == nil {
				field.Default = plain
			} else {
				field.Default = expr
			}
		}
	}

	def.Fields = append(def.Fields, field)

	return nil
}

// parseTypeAnnotation parses a type name optionally followed by '?' and
// one or more '| NAME' union alternatives. A union always includes the
// original name as its first member.
func (p *Parser) parseTypeAnnotation() (*CustomType, error) {
	first, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}

	if p.cur().Kind != token.Pipe {
		return first, nil
	}

	union := &CustomType{
		Name:     first.Name,
		Members:  []*CustomType{first},
		Nullable: first.Nullable,
	}

	for p.cur().Kind == token.Pipe {
		p.next()

		member, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}

		union.Members = append(union.Members, member)

		if member.Nullable {
			union.Nullable = true
		}
	}

	return union, nil
}

// parseTypeName parses one type name (identifier or string literal)
// with an optional '?' nullability marker.
func (p *Parser) parseTypeName() (*CustomType, error) {
	if p.cur().Kind != token.Identifier && p.cur().Kind != token.String {
		return nil, p.errExpected("type name")
	}

	name := p.next()
	t := &CustomType{Name: name.Text}

	if p.cur().Kind == token.Question {
		p.next()

		t.Nullable = true
	}

	return t, nil
}

// parseRawBlock captures a configuration/containers body as raw text,
// tracking nested brace depth, and resumes token consumption after the
// matching close brace.
func (p *Parser) parseRawBlock() (Node, error) {
	name := p.next()

	open := p.cur()
	if open.Kind != token.LBrace {
		return nil, p.errExpected("'{'")
	}

	depth := 0
	start := open.Offset + 1
	end := -1

	for i := open.Offset; i < len(p.source); i++ {
		switch p.source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}

		if end >= 0 {
			break
		}
	}

	if end < 0 {
		return nil, &SyntaxError{
			Expected: "matching '}' for raw block",
			Actual:   open,
		}
	}

	// Skip tokens covered by the captured text.
	for p.cur().Kind != token.EOF && p.cur().Offset <= end {
		p.next()
	}

	return &RawBlock{
		Name: name.Text,
		Text: strings.Trim(p.source[start:end], "\n"),
	}, nil
}

// Operator precedence tiers, low to high. The custom maps_to operator
// shares the equality tier.
func precedence(kind token.Kind) (int, bool) {
	switch kind {
	case token.Question:
		return 0, true
	case token.Or:
		return 1, true
	case token.And:
		return 2, true
	case token.Equal, token.NotEqual, token.MapsTo:
		return 3, true
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		return 4, true
	case token.Plus, token.Minus:
		return 5, true
	case token.Star, token.Slash, token.Percent:
		return 6, true
	default:
		return 0, false
	}
}

// parseHeaderExpression parses a control-flow header expression, where a
// following '{' belongs to the statement rather than the expression.
func (p *Parser) parseHeaderExpression() (Node, error) {
	saved := p.noBlock
	p.noBlock = true

	defer func() { p.noBlock = saved }()

	return p.parseExpression(0)
}

// parseExpression is the precedence-climbing expression parser: parse a
// primary term, then consume binary operators of at least the minimum
// precedence, recursing one tier higher for right operands
// (left-associative chaining).
func (p *Parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		// A '{' immediately after a parsed expression attaches a
		// trailing block; a bare identifier with a block is a type
		// instance subject to expansion.
		if p.cur().Kind == token.LBrace && !p.noBlock {
			if ident, ok := left.(*Identifier); ok {
				line := p.cur().Line

				obj, err := p.parseObjectLiteral()
				if err != nil {
					return nil, err
				}

				return &TypeInstance{
					TypeName: ident.Name,
					Object:   obj,
					Line:     line,
				}, nil
			}

			body, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}

			return &TrailingBlock{Expr: left, Body: body}, nil
		}

		op := p.cur().Kind

		prec, ok := precedence(op)
		if !ok || prec < minPrec {
			return left, nil
		}

		if op == token.Question {
			p.next()

			then, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(token.Colon, "':'"); err != nil {
				return nil, err
			}

			els, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}

			left = &Ternary{Cond: left, Then: then, Else: els}

			continue
		}

		p.next()

		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

// parsePrimary parses a primary term plus its postfix chain of .attr
// accesses and (args) calls, left to right.
func (p *Parser) parsePrimary() (Node, error) {
	var left Node

	switch p.cur().Kind {
	case token.Number:
		tok := p.next()

		lit, err := numberLit(tok.Text)
		if err != nil {
			return nil, &SyntaxError{Expected: "number literal", Actual: tok}
		}

		left = lit

	case token.Minus:
		// Negative numeric literal.
		p.next()

		tok, err := p.expect(token.Number, "number literal")
		if err != nil {
			return nil, err
		}

		lit, err := numberLit(tok.Text)
		if err != nil {
			return nil, &SyntaxError{Expected: "number literal", Actual: tok}
		}

		lit.Int = -lit.Int
		lit.Float = -lit.Float
		left = lit

	case token.String:
		left = &StringLit{Value: p.next().Text}

	case token.True:
		p.next()

		left = &BoolLit{Value: true}

	case token.False:
		p.next()

		left = &BoolLit{Value: false}

	case token.Null:
		p.next()

		left = &NullLit{}

	case token.Identifier:
		left = &Identifier{Name: p.next().Text}

	case token.LBracket:
		list, err := p.parseListLiteral()
		if err != nil {
			return nil, err
		}

		left = list

	case token.LBrace:
		obj, err := p.parseObjectLiteral()
		if err != nil {
			return nil, err
		}

		left = obj

	case token.LParen:
		p.next()

		saved := p.noBlock
		p.noBlock = false

		inner, err := p.parseExpression(0)

		p.noBlock = saved

		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}

		left = inner

	default:
		return nil, p.errExpected("expression")
	}

	return p.parsePostfix(left)
}

// parsePostfix consumes .attr and (args) chains.
func (p *Parser) parsePostfix(left Node) (Node, error) {
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.next()

			name, err := p.expect(token.Identifier, "attribute name")
			if err != nil {
				return nil, err
			}

			left = &Attribute{Object: left, Name: name.Text}

		case token.LParen:
			p.next()

			call := &Call{Callee: left}

			saved := p.noBlock
			p.noBlock = false

			for p.cur().Kind != token.RParen {
				arg, err := p.parseExpression(0)
				if err != nil {
					p.noBlock = saved

					return nil, err
				}

				call.Args = append(call.Args, arg)

				if p.cur().Kind == token.Comma {
					p.next()
				}
			}

			p.noBlock = saved
			p.next() // )

			left = call

		default:
			return left, nil
		}
	}
}

// parseListLiteral parses [a, b, c] with tolerance for trailing commas.
func (p *Parser) parseListLiteral() (Node, error) {
	p.next() // [

	saved := p.noBlock
	p.noBlock = false

	defer func() { p.noBlock = saved }()

	list := &ListLit{}

	for p.cur().Kind != token.RBracket {
		elem, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		list.Elems = append(list.Elems, elem)

		if p.cur().Kind == token.Comma {
			p.next()

			continue
		}

		break
	}

	if _, err := p.expect(token.RBracket, "']'"); err != nil {
		return nil, err
	}

	return list, nil
}

// parseObjectLiteral parses { key: value ... } with colon or '='
// separators and optional commas. A value of the form TypeName { ... }
// is recognized as a nested type instance by the expression parser.
func (p *Parser) parseObjectLiteral() (*ObjectLit, error) {
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}

	saved := p.noBlock
	p.noBlock = false

	defer func() { p.noBlock = saved }()

	obj := &ObjectLit{}

	for p.cur().Kind != token.RBrace {
		if p.cur().Kind != token.Identifier && p.cur().Kind != token.String {
			return nil, p.errExpected("object key")
		}

		key := p.next()

		if p.cur().Kind != token.Colon && p.cur().Kind != token.Assign {
			return nil, p.errExpected("':' or '='")
		}

		p.next()

		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		obj.Entries = append(obj.Entries, &ObjectEntry{
			Key:   key.Text,
			Value: value,
		})

		if p.cur().Kind == token.Comma {
			p.next()
		}
	}

	p.next() // }

	return obj, nil
}

// numberLit builds a number literal node: a '.' in the text makes it a
// float, otherwise it is an integer.
func numberLit(text string) (*NumberLit, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, err
		}

		return &NumberLit{IsFloat: true, Float: f}, nil
	}

	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}

	return &NumberLit{Int: i}, nil
}

// collectDeps gathers the field names an expression references, both as
// identifiers and as ${name} interpolation placeholders.
func collectDeps(n Node) []string {
	var (
		deps []string
		seen = make(map[string]bool)
	)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true

			deps = append(deps, name)
		}
	}

	var walk func(Node)

	walk = func(n Node) {
		switch node := n.(type) {
		case *Identifier:
			add(node.Name)

		case *StringLit:
			for _, ref := range interpolationRefs(node.Value) {
				add(ref)
			}

		case *Binary:
			walk(node.Left)
			walk(node.Right)

		case *Ternary:
			walk(node.Cond)
			walk(node.Then)
			walk(node.Else)

		case *Call:
			for _, arg := range node.Args {
				walk(arg)
			}

		case *Attribute:
			walk(node.Object)

		case *ListLit:
			for _, elem := range node.Elems {
				walk(elem)
			}

		case *ObjectLit:
			for _, entry := range node.Entries {
				walk(entry.Value)
			}
		}
	}

	walk(n)

	return deps
}

// interpolationRefs extracts the root names of ${...} placeholders.
func interpolationRefs(s string) []string {
	var refs []string

	for {
		start := strings.Index(s, "${")
		if start < 0 {
			return refs
		}

		end := strings.Index(s[start:], "}")
		if end < 0 {
			return refs
		}

		name := strings.TrimSpace(s[start+2 : start+end])
		if dot := strings.Index(name, "."); dot >= 0 {
			name = name[:dot]
		}

		refs = append(refs, name)
		s = s[start+end+1:]
	}
}
