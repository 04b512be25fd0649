package lang

import (
	"regexp"
	"strconv"
	"strings"
)

// bareKey matches object keys that may be emitted without quotes.
var bareKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Emitter renders a fully transformed tree as standard-dialect source
// text. It assumes expansion already happened during transformation and
// never consults the registry for defaults; the evaluator is used only
// for inlining calls to user-defined functions, where any evaluation
// failure degrades to emitting the call syntactically.
type Emitter struct {
	eval   *Evaluator
	sb     strings.Builder
	indent int
}

// NewEmitter creates an emitter sharing the conversion's evaluator.
func NewEmitter(eval *Evaluator) *Emitter {
	return &Emitter{eval: eval}
}

// Emit renders the root block. Consecutive top-level constructs are
// separated by one blank line; nested bodies are one statement per line.
func (e *Emitter) Emit(root *Block) string {
	first := true

	for _, stmt := range root.Stmts {
		if _, ok := stmt.(*TypeDecl); ok {
			// Type declarations exist only to drive expansion; they have
			// no target-dialect equivalent.
			continue
		}

		if !first {
			e.sb.WriteString("\n")
		}

		first = false

		e.emitStmt(stmt)
	}

	return e.sb.String()
}

func (e *Emitter) line(s string) {
	e.sb.WriteString(strings.Repeat("  ", e.indent))
	e.sb.WriteString(s)
	e.sb.WriteString("\n")
}

func (e *Emitter) emitStmt(n Node) {
	switch node := n.(type) {
	case *KeyValue:
		e.line(emitKey(node.Key) + " = " + e.exprString(node.Value))

	case *Resource:
		e.line(`resource ` + strconv.Quote(node.Type) + ` ` +
			strconv.Quote(node.Name) + ` {`)
		e.emitBody(node.Body)
		e.line("}")

	case *NamedBlock:
		e.emitNamedBlock(node)

	case *RawBlock:
		e.line(node.Name + " {")
		e.sb.WriteString(node.Text)
		e.sb.WriteString("\n")
		e.line("}")

	case *ForLoop:
		e.line(`dynamic ` + strconv.Quote(node.Iterator) + ` {`)
		e.indent++
		e.line("for_each = " + e.exprString(node.Iterable))
		e.line("content {")
		e.emitBody(node.Body)
		e.line("}")
		e.indent--
		e.line("}")

	case *Conditional:
		e.emitConditional(node)

	case *Switch:
		e.line(e.switchString(node))

	case *Function:
		e.emitFunction(node)

	case *Mapping:
		e.line(mappingKey(node.From) + " = " + e.exprString(node.To))

	case *ExprStmt:
		e.line(e.exprString(node.Expr))

	case *TrailingBlock:
		e.line(e.exprString(node.Expr) + " {")
		e.emitBody(node.Body)
		e.line("}")

	case *Return:
		// Reachable only for a return outside a function body; keep the
		// value visible rather than dropping it silently.
		e.line(e.exprString(node.Value))

	case *TypeDecl:
		// no output

	case *Block:
		e.emitBody(node)

	default:
		e.line(e.exprString(n))
	}
}

// emitBody renders a block's statements one per line, one level deeper.
func (e *Emitter) emitBody(b *Block) {
	e.indent++

	for _, stmt := range b.Stmts {
		e.emitStmt(stmt)
	}

	e.indent--
}

// emitNamedBlock renders name ["label"] { ... }. Inside a deployment
// block, maps_to statements are collected and flushed as one synthetic
// mappings attribute at the top of the emitted body.
func (e *Emitter) emitNamedBlock(nb *NamedBlock) {
	header := nb.Name
	if nb.Label != "" {
		header += " " + strconv.Quote(nb.Label)
	}

	e.line(header + " {")
	e.indent++

	if nb.Name == "deployment" {
		var mappings []*Mapping

		for _, stmt := range nb.Body.Stmts {
			if m, ok := stmt.(*Mapping); ok {
				mappings = append(mappings, m)
			}
		}

		if len(mappings) > 0 {
			e.line("mappings = {")
			e.indent++

			for _, m := range mappings {
				e.line(mappingKey(m.From) + " = " + e.exprString(m.To))
			}

			e.indent--
			e.line("}")
		}

		for _, stmt := range nb.Body.Stmts {
			if _, ok := stmt.(*Mapping); ok {
				continue
			}

			e.emitStmt(stmt)
		}
	} else {
		for _, stmt := range nb.Body.Stmts {
			e.emitStmt(stmt)
		}
	}

	e.indent--
	e.line("}")
}

// emitConditional renders if/else as a dynamic "conditional" block whose
// for_each expands to one element when the condition holds.
func (e *Emitter) emitConditional(c *Conditional) {
	e.line(`dynamic "conditional" {`)
	e.indent++
	e.line("for_each = " + e.exprString(c.Cond) + " ? [1] : []")
	e.line("content {")
	e.emitBody(c.Then)
	e.line("}")

	if c.Else != nil {
		e.line("else {")
		e.emitBody(c.Else)
		e.line("}")
	}

	e.indent--
	e.line("}")
}

// emitFunction renders a function definition as a locals block binding
// the name to the body's first return expression.
func (e *Emitter) emitFunction(fn *Function) {
	e.line("locals {")
	e.indent++

	if ret := firstReturn(fn.Body); ret != nil {
		e.line(emitKey(fn.Name) + " = " + e.exprString(ret.Value))
	}

	e.indent--
	e.line("}")
}

// switchString renders a switch as a chain of ternary expressions over
// the subject. Without a default arm the chain falls back to an explicit
// empty object so the emitted expression stays syntactically complete.
func (e *Emitter) switchString(sw *Switch) string {
	subject := e.exprString(sw.Subject)

	var sb strings.Builder

	for _, arm := range sw.Cases {
		sb.WriteString(subject)
		sb.WriteString(" == ")
		sb.WriteString(e.exprString(arm.Value))
		sb.WriteString(" ? ")
		sb.WriteString(e.blockObjectString(arm.Body))
		sb.WriteString(" : ")
	}

	if sw.Default != nil {
		sb.WriteString(e.blockObjectString(sw.Default))
	} else {
		sb.WriteString("{}")
	}

	return sb.String()
}

// blockObjectString renders a statement block in object form for use
// inside an expression (switch arms).
func (e *Emitter) blockObjectString(b *Block) string {
	if len(b.Stmts) == 0 {
		return "{}"
	}

	var sb strings.Builder

	sb.WriteString("{\n")

	e.indent++
	pad := strings.Repeat("  ", e.indent)

	for _, stmt := range b.Stmts {
		if kv, ok := stmt.(*KeyValue); ok {
			sb.WriteString(pad)
			sb.WriteString(emitKey(kv.Key))
			sb.WriteString(" = ")
			sb.WriteString(e.exprString(kv.Value))
			sb.WriteString("\n")

			continue
		}

		sb.WriteString(pad)
		sb.WriteString(e.exprString(stmtExpr(stmt)))
		sb.WriteString("\n")
	}

	e.indent--
	sb.WriteString(strings.Repeat("  ", e.indent))
	sb.WriteString("}")

	return sb.String()
}

// stmtExpr unwraps an expression statement; any other statement renders
// through its node form.
func stmtExpr(n Node) Node {
	if es, ok := n.(*ExprStmt); ok {
		return es.Expr
	}

	return n
}

// exprString renders an expression node as source text at the current
// indentation level.
func (e *Emitter) exprString(n Node) string {
	switch node := n.(type) {
	case *StringLit:
		return strconv.Quote(node.Value)

	case *NumberLit:
		if node.IsFloat {
			return strconv.FormatFloat(node.Float, 'f', -1, 64)
		}

		return strconv.FormatInt(node.Int, 10)

	case *BoolLit:
		return strconv.FormatBool(node.Value)

	case *NullLit:
		return "null"

	case *Identifier:
		return node.Name

	case *Attribute:
		return e.exprString(node.Object) + "." + node.Name

	case *Binary:
		return e.exprString(node.Left) + " " + binaryOpName(node.Op) +
			" " + e.exprString(node.Right)

	case *Ternary:
		return e.exprString(node.Cond) + " ? " + e.exprString(node.Then) +
			" : " + e.exprString(node.Else)

	case *Call:
		return e.callString(node)

	case *ListLit:
		return e.listString(node)

	case *ObjectLit:
		return e.objectString(node)

	case *TypeInstance:
		// Unregistered instances survive transformation; their tag has no
		// target-dialect spelling, so only the payload renders.
		return e.objectString(node.Object)

	case *TrailingBlock:
		var sb strings.Builder

		sb.WriteString(e.exprString(node.Expr))
		sb.WriteString(" {\n")

		e.indent++

		for _, stmt := range node.Body.Stmts {
			if kv, ok := stmt.(*KeyValue); ok {
				sb.WriteString(strings.Repeat("  ", e.indent))
				sb.WriteString(emitKey(kv.Key))
				sb.WriteString(" = ")
				sb.WriteString(e.exprString(kv.Value))
				sb.WriteString("\n")
			}
		}

		e.indent--
		sb.WriteString(strings.Repeat("  ", e.indent))
		sb.WriteString("}")

		return sb.String()

	default:
		return ""
	}
}

// callString inlines a call to a previously defined function when its
// body statically evaluates; any failure falls back to the syntactic
// call form.
func (e *Emitter) callString(call *Call) string {
	if ident, ok := call.Callee.(*Identifier); ok {
		if _, known := e.eval.KnownFunction(ident.Name); known {
			if v, err := e.eval.Eval(call); err == nil {
				return e.renderValue(v)
			}
		}
	}

	args := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		args = append(args, e.exprString(arg))
	}

	return e.exprString(call.Callee) + "(" + strings.Join(args, ", ") + ")"
}

// renderValue renders a computed domain value as source text.
func (e *Emitter) renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return strconv.Quote(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, e.renderValue(item))
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case *Object:
		var sb strings.Builder

		sb.WriteString("{\n")

		e.indent++
		pad := strings.Repeat("  ", e.indent)

		for _, key := range val.Keys() {
			item, _ := val.Get(key)
			sb.WriteString(pad)
			sb.WriteString(emitKey(key))
			sb.WriteString(" = ")
			sb.WriteString(e.renderValue(item))
			sb.WriteString("\n")
		}

		e.indent--
		sb.WriteString(strings.Repeat("  ", e.indent))
		sb.WriteString("}")

		return sb.String()
	default:
		return ""
	}
}

// listString renders a list inline when every element is a literal or
// identifier, one element per line otherwise.
func (e *Emitter) listString(list *ListLit) string {
	inline := true

	for _, elem := range list.Elems {
		switch elem.(type) {
		case *StringLit, *NumberLit, *BoolLit, *NullLit, *Identifier:
		default:
			inline = false
		}
	}

	if inline {
		parts := make([]string, 0, len(list.Elems))
		for _, elem := range list.Elems {
			parts = append(parts, e.exprString(elem))
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	var sb strings.Builder

	sb.WriteString("[\n")

	e.indent++
	pad := strings.Repeat("  ", e.indent)

	for _, elem := range list.Elems {
		sb.WriteString(pad)
		sb.WriteString(e.exprString(elem))
		sb.WriteString(",\n")
	}

	e.indent--
	sb.WriteString(strings.Repeat("  ", e.indent))
	sb.WriteString("]")

	return sb.String()
}

// objectString renders an object literal, always multi-line, one
// attribute per line.
func (e *Emitter) objectString(obj *ObjectLit) string {
	if len(obj.Entries) == 0 {
		return "{}"
	}

	var sb strings.Builder

	sb.WriteString("{\n")

	e.indent++
	pad := strings.Repeat("  ", e.indent)

	for _, entry := range obj.Entries {
		sb.WriteString(pad)
		sb.WriteString(emitKey(entry.Key))
		sb.WriteString(" = ")
		sb.WriteString(e.exprString(entry.Value))
		sb.WriteString("\n")
	}

	e.indent--
	sb.WriteString(strings.Repeat("  ", e.indent))
	sb.WriteString("}")

	return sb.String()
}

// emitKey quotes object keys that are not valid bare identifiers.
func emitKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}

	return strconv.Quote(key)
}

// mappingKey renders the source side of a maps_to statement as a key.
func mappingKey(from Node) string {
	switch node := from.(type) {
	case *Identifier:
		return emitKey(node.Name)
	case *StringLit:
		return emitKey(node.Value)
	default:
		return ""
	}
}
