package lang

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hxl-lang/hxl/lang/token"
)

// Scope is a chained mapping of variable name to value. Lookup walks
// outward through parent scopes.
type Scope struct {
	parent *Scope
	vars   map[string]any
}

// NewScope creates a scope chained to an optional parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]any)}
}

// Define binds a name in this scope.
func (s *Scope) Define(name string, v any) {
	s.vars[name] = v
}

// Lookup resolves a name, walking outward through enclosing scopes.
func (s *Scope) Lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Evaluator is the single expression-evaluation component shared by
// type-default resolution, transformer expansion, and emitter call
// inlining. It supports ${name} interpolation, arithmetic, comparison,
// and logical binary operators, ternary conditionals, and naive
// dotted-attribute stringification, parameterized by the scope in
// effect.
type Evaluator struct {
	scope *Scope
	funcs map[string]*Function
}

// NewEvaluator creates an evaluator with an empty root scope.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		scope: NewScope(nil),
		funcs: make(map[string]*Function),
	}
}

// DefineFunction registers a user-defined function for call inlining.
func (e *Evaluator) DefineFunction(fn *Function) {
	e.funcs[fn.Name] = fn
}

// KnownFunction returns a previously defined function by name.
func (e *Evaluator) KnownFunction(name string) (*Function, bool) {
	fn, ok := e.funcs[name]

	return fn, ok
}

// Functions returns the names of all defined functions in sorted order.
func (e *Evaluator) Functions() []string {
	return slices.Sorted(maps.Keys(e.funcs))
}

// Define binds a value in the evaluator's root scope.
func (e *Evaluator) Define(name string, v any) {
	e.scope.Define(name, v)
}

// Eval evaluates an expression node against the evaluator's scope.
func (e *Evaluator) Eval(n Node) (any, error) {
	return e.eval(n, e.scope)
}

// EvalWith evaluates an expression node against a child scope populated
// from the given field values, as used for defaults and calculated
// fields of a typed instance.
func (e *Evaluator) EvalWith(n Node, values *Object) (any, error) {
	scope := NewScope(e.scope)

	for _, key := range values.Keys() {
		v, _ := values.Get(key)

		// Unreduced expression values stay out of the scope so that
		// placeholders referencing them survive to the emitted text
		// instead of stringifying an AST node.
		if _, ok := v.(Node); ok {
			continue
		}

		scope.Define(key, v)
	}

	return e.eval(n, scope)
}

func (e *Evaluator) eval(n Node, scope *Scope) (any, error) {
	switch node := n.(type) {
	case *StringLit:
		return e.interpolate(node.Value, scope), nil

	case *NumberLit:
		if node.IsFloat {
			return node.Float, nil
		}

		return node.Int, nil

	case *BoolLit:
		return node.Value, nil

	case *NullLit:
		return nil, nil

	case *Identifier:
		if v, ok := scope.Lookup(node.Name); ok {
			return v, nil
		}

		// A name not found in any enclosing scope resolves to itself as
		// a literal fallback.
		return node.Name, nil

	case *Attribute:
		return e.evalAttribute(node, scope)

	case *Binary:
		return e.evalBinary(node, scope)

	case *Ternary:
		cond, err := e.eval(node.Cond, scope)
		if err != nil {
			return nil, err
		}

		if truthy(cond) {
			return e.eval(node.Then, scope)
		}

		return e.eval(node.Else, scope)

	case *Call:
		return e.evalCall(node, scope)

	case *ListLit:
		list := make([]any, 0, len(node.Elems))

		for _, elem := range node.Elems {
			v, err := e.eval(elem, scope)
			if err != nil {
				return nil, err
			}

			list = append(list, v)
		}

		return list, nil

	case *ObjectLit:
		obj := NewObject()

		for _, entry := range node.Entries {
			v, err := e.eval(entry.Value, scope)
			if err != nil {
				return nil, err
			}

			obj.Set(entry.Key, v)
		}

		return obj, nil

	default:
		return nil, ErrNotEvaluable.
			With(slog.String("node", fmt.Sprintf("%T", n)))
	}
}

// evalAttribute resolves dotted access. When the base resolves to an
// object carrying the member, the member value is returned; otherwise
// the whole chain stringifies to its dotted spelling (e.g. var.env).
func (e *Evaluator) evalAttribute(node *Attribute, scope *Scope) (any, error) {
	base, err := e.eval(node.Object, scope)
	if err != nil {
		return nil, err
	}

	if obj, ok := base.(*Object); ok {
		if v, ok := obj.Get(node.Name); ok {
			return v, nil
		}
	}

	return displayString(base) + "." + node.Name, nil
}

func (e *Evaluator) evalBinary(node *Binary, scope *Scope) (any, error) {
	if node.Op == token.MapsTo {
		return nil, ErrNotEvaluable.With(slog.String("op", "maps_to"))
	}

	// Logical operators short-circuit.
	if node.Op == token.And || node.Op == token.Or {
		left, err := e.eval(node.Left, scope)
		if err != nil {
			return nil, err
		}

		if node.Op == token.And && !truthy(left) {
			return false, nil
		}

		if node.Op == token.Or && truthy(left) {
			return true, nil
		}

		right, err := e.eval(node.Right, scope)
		if err != nil {
			return nil, err
		}

		return truthy(right), nil
	}

	left, err := e.eval(node.Left, scope)
	if err != nil {
		return nil, err
	}

	right, err := e.eval(node.Right, scope)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case token.Equal:
		return equalValues(left, right), nil

	case token.NotEqual:
		return !equalValues(left, right), nil

	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual:
		return compareValues(node.Op, left, right)

	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent:
		return arithmetic(node.Op, left, right)

	default:
		return nil, ErrNotEvaluable.
			With(slog.String("op", binaryOpName(node.Op)))
	}
}

// evalCall inlines calls to previously defined functions: arguments bind
// positionally to the declared parameters and the body's first return
// expression evaluates under that binding. Calls to anything else are
// not statically evaluable.
func (e *Evaluator) evalCall(node *Call, scope *Scope) (any, error) {
	ident, ok := node.Callee.(*Identifier)
	if !ok {
		return nil, ErrNotEvaluable.With(slog.String("node", "call"))
	}

	fn, ok := e.funcs[ident.Name]
	if !ok {
		return nil, ErrUnknownFunction.With(slog.String("name", ident.Name))
	}

	if len(node.Args) != len(fn.Params) {
		return nil, ErrArgCountMismatch.With(
			slog.String("function", fn.Name),
			slog.Int("expected", len(fn.Params)),
			slog.Int("got", len(node.Args)),
		)
	}

	bound := NewScope(scope)

	for i, param := range fn.Params {
		v, err := e.eval(node.Args[i], scope)
		if err != nil {
			return nil, err
		}

		bound.Define(param.Name, v)
	}

	ret := firstReturn(fn.Body)
	if ret == nil {
		return nil, ErrMissingReturn.With(slog.String("function", fn.Name))
	}

	return e.eval(ret.Value, bound)
}

// firstReturn finds the first return statement in a function body; only
// that one is honored.
func firstReturn(body *Block) *Return {
	if body == nil {
		return nil
	}

	for _, stmt := range body.Stmts {
		if ret, ok := stmt.(*Return); ok {
			return ret
		}
	}

	return nil
}

// interpolate substitutes ${name} placeholders against the scope. A
// placeholder whose (possibly dotted) name is not bound stays in the
// output verbatim, so loop variables and runtime references survive to
// the emitted text.
func (e *Evaluator) interpolate(s string, scope *Scope) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var sb strings.Builder

	for {
		start := strings.Index(s, "${")
		if start < 0 {
			sb.WriteString(s)

			break
		}

		end := strings.Index(s[start:], "}")
		if end < 0 {
			sb.WriteString(s)

			break
		}

		end += start
		sb.WriteString(s[:start])

		name := strings.TrimSpace(s[start+2 : end])

		if v, ok := lookupPath(scope, name); ok {
			sb.WriteString(displayString(v))
		} else {
			sb.WriteString(s[start : end+1])
		}

		s = s[end+1:]
	}

	return sb.String()
}

// lookupPath resolves a possibly dotted name against the scope, walking
// into object members.
func lookupPath(scope *Scope, path string) (any, bool) {
	parts := strings.Split(path, ".")

	v, ok := scope.Lookup(parts[0])
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		obj, ok := v.(*Object)
		if !ok {
			return nil, false
		}

		v, ok = obj.Get(part)
		if !ok {
			return nil, false
		}
	}

	return v, true
}

// displayString renders a value for interpolation (no quoting).
func displayString(v any) string {
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
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// compareValues applies a relational operator over numbers or strings.
func compareValues(op token.Kind, left, right any) (any, error) {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			switch op {
			case token.Less:
				return ls < rs, nil
			case token.LessEqual:
				return ls <= rs, nil
			case token.Greater:
				return ls > rs, nil
			case token.GreaterEqual:
				return ls >= rs, nil
			}
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)

	if !lok || !rok {
		return nil, ErrNotEvaluable.With(
			slog.String("op", binaryOpName(op)),
			slog.String("left", displayString(left)),
			slog.String("right", displayString(right)),
		)
	}

	switch op {
	case token.Less:
		return lf < rf, nil
	case token.LessEqual:
		return lf <= rf, nil
	case token.Greater:
		return lf > rf, nil
	case token.GreaterEqual:
		return lf >= rf, nil
	default:
		return nil, ErrNotEvaluable.With(slog.String("op", binaryOpName(op)))
	}
}

// arithmetic applies +, -, *, /, % with int/float promotion. Addition
// concatenates when either operand is a string.
func arithmetic(op token.Kind, left, right any) (any, error) {
	if op == token.Plus {
		if ls, ok := left.(string); ok {
			return ls + displayString(right), nil
		}

		if rs, ok := right.(string); ok {
			return displayString(left) + rs, nil
		}
	}

	li, lInt := left.(int64)
	ri, rInt := right.(int64)

	if lInt && rInt {
		switch op {
		case token.Plus:
			return li + ri, nil
		case token.Minus:
			return li - ri, nil
		case token.Star:
			return li * ri, nil
		case token.Slash:
			if ri == 0 {
				return nil, ErrNotEvaluable.
					With(slog.String("op", "division by zero"))
			}

			return li / ri, nil
		case token.Percent:
			if ri == 0 {
				return nil, ErrNotEvaluable.
					With(slog.String("op", "modulo by zero"))
			}

			return li % ri, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)

	if !lok || !rok {
		return nil, ErrNotEvaluable.With(
			slog.String("op", binaryOpName(op)),
			slog.String("left", displayString(left)),
			slog.String("right", displayString(right)),
		)
	}

	switch op {
	case token.Plus:
		return lf + rf, nil
	case token.Minus:
		return lf - rf, nil
	case token.Star:
		return lf * rf, nil
	case token.Slash:
		if rf == 0 {
			return nil, ErrNotEvaluable.
				With(slog.String("op", "division by zero"))
		}

		return lf / rf, nil
	case token.Percent:
		return nil, ErrNotEvaluable.
			With(slog.String("op", "float modulo"))
	default:
		return nil, ErrNotEvaluable.With(slog.String("op", binaryOpName(op)))
	}
}

// toFloat widens a numeric domain value to float64.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
