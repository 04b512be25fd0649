package lang

import (
	"fmt"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/hxl-lang/hxl/lang/token"
)

// The value domain is closed: nil, bool, int64, float64, string, []any,
// and *Object. Evaluation, default expansion, and validation all operate
// over this domain; conversion back to AST nodes reconstructs exactly
// this shape.

// Object is an ordered string-keyed mapping. Key order is preserved from
// the source (or the registry's field declaration order after expansion)
// so that emitted field order is deterministic.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set assigns a value, appending the key to the order on first use.
func (o *Object) Set(key string, val any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.vals[key] = val
}

// Get returns the value for key and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]

	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]

	return ok
}

// Delete removes a key, preserving the order of the remaining keys.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}

	delete(o.vals, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Clone returns a shallow copy preserving key order.
func (o *Object) Clone() *Object {
	c := NewObject()
	for _, k := range o.keys {
		c.Set(k, o.vals[k])
	}

	return c
}

// Map returns a plain map view of the object (unordered).
func (o *Object) Map() map[string]any {
	m := make(map[string]any, len(o.keys))
	for k, v := range o.vals {
		m[k] = v
	}

	return m
}

// ctyTypeOf maps a runtime value onto its cty type for primitive
// constraint checks. Unknown shapes map to the dynamic pseudo-type.
func ctyTypeOf(v any) cty.Type {
	switch v.(type) {
	case nil:
		return cty.DynamicPseudoType
	case bool:
		return cty.Bool
	case int64, float64:
		return cty.Number
	case string:
		return cty.String
	case []any:
		return cty.List(cty.DynamicPseudoType)
	case *Object:
		return cty.EmptyObject
	default:
		return cty.DynamicPseudoType
	}
}

// nodeToValue reduces an AST expression node to a plain domain value.
// Nodes that are not statically reducible (identifiers, calls, operators)
// report ErrNotEvaluable; callers that can tolerate dynamic content catch
// it and keep the node form instead.
func nodeToValue(n Node) (any, error) {
	switch node := n.(type) {
	case *StringLit:
		return node.Value, nil

	case *NumberLit:
		if node.IsFloat {
			return node.Float, nil
		}

		return node.Int, nil

	case *BoolLit:
		return node.Value, nil

	case *NullLit:
		return nil, nil

	case *ListLit:
		list := make([]any, 0, len(node.Elems))

		for _, elem := range node.Elems {
			v, err := nodeToValue(elem)
			if err != nil {
				return nil, err
			}

			list = append(list, v)
		}

		return list, nil

	case *ObjectLit:
		obj := NewObject()

		for _, entry := range node.Entries {
			v, err := nodeToValue(entry.Value)
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

// valueToNode converts a domain value back into AST node form. Any value
// outside the closed domain is a hard internal error: the evaluator and
// registry only ever produce domain values, so this is unreachable in a
// correct pipeline.
func valueToNode(v any) (Node, error) {
	switch val := v.(type) {
	case nil:
		return &NullLit{}, nil

	case bool:
		return &BoolLit{Value: val}, nil

	case int64:
		return &NumberLit{Int: val}, nil

	case float64:
		return &NumberLit{IsFloat: true, Float: val}, nil

	case string:
		return &StringLit{Value: val}, nil

	case []any:
		elems := make([]Node, 0, len(val))

		for _, item := range val {
			n, err := valueToNode(item)
			if err != nil {
				return nil, err
			}

			elems = append(elems, n)
		}

		return &ListLit{Elems: elems}, nil

	case *Object:
		entries := make([]*ObjectEntry, 0, val.Len())

		for _, key := range val.Keys() {
			item, _ := val.Get(key)

			n, err := valueToNode(item)
			if err != nil {
				return nil, err
			}

			entries = append(entries, &ObjectEntry{Key: key, Value: n})
		}

		return &ObjectLit{Entries: entries}, nil

	case Node:
		// Default values captured as expression nodes pass through.
		return val, nil

	default:
		return nil, ErrInvalidValue.
			With(slog.String("type", fmt.Sprintf("%T", v)))
	}
}

// truthy reports the boolean interpretation of a domain value.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case *Object:
		return val.Len() > 0
	default:
		return false
	}
}

// equalValues compares two domain values, promoting int/float pairs.
// Lists and objects compare structurally; the final interface comparison
// only ever sees comparable domain types.
func equalValues(a, b any) bool {
	if ai, ok := a.(int64); ok {
		if bf, ok := b.(float64); ok {
			return float64(ai) == bf
		}
	}

	if af, ok := a.(float64); ok {
		if bi, ok := b.(int64); ok {
			return af == float64(bi)
		}
	}

	if al, ok := a.([]any); ok {
		bl, ok := b.([]any)
		if !ok || len(al) != len(bl) {
			return false
		}

		for i := range al {
			if !equalValues(al[i], bl[i]) {
				return false
			}
		}

		return true
	}

	if _, ok := b.([]any); ok {
		return false
	}

	if ao, ok := a.(*Object); ok {
		bo, ok := b.(*Object)
		if !ok || ao.Len() != bo.Len() {
			return false
		}

		for _, key := range ao.Keys() {
			av, _ := ao.Get(key)

			bv, ok := bo.Get(key)
			if !ok || !equalValues(av, bv) {
				return false
			}
		}

		return true
	}

	if _, ok := b.(*Object); ok {
		return false
	}

	return a == b
}

// binaryOpName returns the source spelling of a binary operator kind.
func binaryOpName(op token.Kind) string {
	switch op {
	case token.Equal:
		return "=="
	case token.NotEqual:
		return "!="
	case token.Less:
		return "<"
	case token.LessEqual:
		return "<="
	case token.Greater:
		return ">"
	case token.GreaterEqual:
		return ">="
	case token.And:
		return "&&"
	case token.Or:
		return "||"
	case token.Plus:
		return "+"
	case token.Minus:
		return "-"
	case token.Star:
		return "*"
	case token.Slash:
		return "/"
	case token.Percent:
		return "%"
	case token.MapsTo:
		return "maps_to"
	default:
		return op.String()
	}
}
