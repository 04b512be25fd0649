package lang

import (
	"errors"
	"testing"

	"github.com/hxl-lang/hxl/lang/token"
)

func TestEvalLiterals(t *testing.T) {
	eval := NewEvaluator()

	tests := []struct {
		name string
		node Node
		want any
	}{
		{"string", &StringLit{Value: "hi"}, "hi"},
		{"int", &NumberLit{Int: 42}, int64(42)},
		{"float", &NumberLit{IsFloat: true, Float: 1.5}, 1.5},
		{"bool", &BoolLit{Value: true}, true},
		{"null", &NullLit{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Eval(tt.node)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}

			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalIdentifierFallback(t *testing.T) {
	eval := NewEvaluator()

	// A name not bound in any scope resolves to itself.
	got, err := eval.Eval(&Identifier{Name: "unbound"})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if got != "unbound" {
		t.Fatalf("got %v, want the name itself", got)
	}
}

func TestEvalBinary(t *testing.T) {
	eval := NewEvaluator()

	tests := []struct {
		name string
		node Node
		want any
	}{
		{
			name: "integer addition",
			node: &Binary{Op: token.Plus,
				Left:  &NumberLit{Int: 2},
				Right: &NumberLit{Int: 3}},
			want: int64(5),
		},
		{
			name: "float promotion",
			node: &Binary{Op: token.Star,
				Left:  &NumberLit{Int: 2},
				Right: &NumberLit{IsFloat: true, Float: 1.5}},
			want: 3.0,
		},
		{
			name: "string concatenation",
			node: &Binary{Op: token.Plus,
				Left:  &StringLit{Value: "web-"},
				Right: &NumberLit{Int: 1}},
			want: "web-1",
		},
		{
			name: "integer modulo",
			node: &Binary{Op: token.Percent,
				Left:  &NumberLit{Int: 7},
				Right: &NumberLit{Int: 3}},
			want: int64(1),
		},
		{
			name: "equality with promotion",
			node: &Binary{Op: token.Equal,
				Left:  &NumberLit{Int: 2},
				Right: &NumberLit{IsFloat: true, Float: 2.0}},
			want: true,
		},
		{
			name: "relational",
			node: &Binary{Op: token.Less,
				Left:  &NumberLit{Int: 1},
				Right: &NumberLit{Int: 2}},
			want: true,
		},
		{
			name: "string relational",
			node: &Binary{Op: token.Less,
				Left:  &StringLit{Value: "a"},
				Right: &StringLit{Value: "b"}},
			want: true,
		},
		{
			name: "logical and short-circuit",
			node: &Binary{Op: token.And,
				Left:  &BoolLit{Value: false},
				Right: &Binary{Op: token.Slash,
					Left:  &NumberLit{Int: 1},
					Right: &NumberLit{Int: 0}}},
			want: false,
		},
		{
			name: "logical or short-circuit",
			node: &Binary{Op: token.Or,
				Left:  &BoolLit{Value: true},
				Right: &Binary{Op: token.Slash,
					Left:  &NumberLit{Int: 1},
					Right: &NumberLit{Int: 0}}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Eval(tt.node)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}

			if got != tt.want {
				t.Fatalf("got %v (%T), want %v (%T)",
					got, got, tt.want, tt.want)
			}
		})
	}
}

func TestEvalBinaryErrors(t *testing.T) {
	eval := NewEvaluator()

	tests := []struct {
		name string
		node Node
	}{
		{
			name: "division by zero",
			node: &Binary{Op: token.Slash,
				Left:  &NumberLit{Int: 1},
				Right: &NumberLit{Int: 0}},
		},
		{
			name: "float modulo",
			node: &Binary{Op: token.Percent,
				Left:  &NumberLit{IsFloat: true, Float: 1.5},
				Right: &NumberLit{IsFloat: true, Float: 0.5}},
		},
		{
			name: "maps_to is not evaluable",
			node: &Binary{Op: token.MapsTo,
				Left:  &Identifier{Name: "a"},
				Right: &Identifier{Name: "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := eval.Eval(tt.node); !errors.Is(err, ErrNotEvaluable) {
				t.Fatalf("expected ErrNotEvaluable, got %v", err)
			}
		})
	}
}

func TestEvalEqualityStructural(t *testing.T) {
	eval := NewEvaluator()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"equal lists", "[1, 2] == [1, 2]", true},
		{"order matters", "[1, 2] == [2, 1]", false},
		{"length differs", "[1] == [1, 2]", false},
		{"nested lists", `[1, ["a", "b"]] == [1, ["a", "b"]]`, true},
		{"list vs scalar", "[1] == 1", false},
		{"scalar vs list", "1 == [1]", false},
		{"numeric promotion in elements", "[1.0, 2] == [1, 2.0]", true},
		{"not equal lists", "[1] != [2]", true},
		{"empty lists", "[] == []", true},
		{"equal objects", "{ a: 1, b: 2 } == { a: 1, b: 2 }", true},
		{"object key order irrelevant", "{ a: 1, b: 2 } == { b: 2, a: 1 }", true},
		{"object value differs", "{ a: 1 } == { a: 2 }", false},
		{"object key differs", "{ a: 1 } == { b: 1 }", false},
		{"object size differs", "{ a: 1 } == { a: 1, b: 2 }", false},
		{"object vs list", "{ a: 1 } == [1]", false},
		{"nested object in list", `[{ a: 1 }] == [{ a: 1 }]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpression(tt.src, NewRegistry())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			got, err := eval.Eval(expr)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}

			if got != tt.want {
				t.Fatalf("%s = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalTernary(t *testing.T) {
	eval := NewEvaluator()

	node := &Ternary{
		Cond: &Binary{Op: token.Greater,
			Left:  &NumberLit{Int: 2},
			Right: &NumberLit{Int: 1}},
		Then: &StringLit{Value: "yes"},
		Else: &StringLit{Value: "no"},
	}

	got, err := eval.Eval(node)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if got != "yes" {
		t.Fatalf("got %v, want yes", got)
	}
}

func TestInterpolation(t *testing.T) {
	eval := NewEvaluator()

	values := NewObject()
	values.Set("name", "api")
	values.Set("domain", "example.com")
	values.Set("port", int64(8080))

	nested := NewObject()
	nested.Set("env", "prod")
	values.Set("meta", nested)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "no placeholders", "no placeholders"},
		{"single", "${name}", "api"},
		{"multiple", "${name}.${domain}", "api.example.com"},
		{"number", "port ${port}", "port 8080"},
		{"dotted", "${meta.env}", "prod"},
		{"unbound stays verbatim", "web-${i}", "web-${i}"},
		{"unbound dotted", "${var.region}", "${var.region}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvalWith(&StringLit{Value: tt.input}, values)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}

			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalFunctionCall(t *testing.T) {
	eval := NewEvaluator()

	eval.DefineFunction(&Function{
		Name:   "double",
		Params: []*Param{{Name: "x"}},
		Body: &Block{Stmts: []Node{
			&Return{Value: &Binary{Op: token.Star,
				Left:  &Identifier{Name: "x"},
				Right: &NumberLit{Int: 2}}},
		}},
	})

	got, err := eval.Eval(&Call{
		Callee: &Identifier{Name: "double"},
		Args:   []Node{&NumberLit{Int: 21}},
	})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if got != int64(42) {
		t.Fatalf("got %v, want 42", got)
	}
}

func TestEvalCallErrors(t *testing.T) {
	eval := NewEvaluator()

	eval.DefineFunction(&Function{
		Name:   "noret",
		Params: []*Param{},
		Body:   &Block{},
	})

	tests := []struct {
		name string
		call *Call
		want error
	}{
		{
			name: "unknown function",
			call: &Call{Callee: &Identifier{Name: "nope"}},
			want: ErrUnknownFunction,
		},
		{
			name: "argument count mismatch",
			call: &Call{
				Callee: &Identifier{Name: "noret"},
				Args:   []Node{&NumberLit{Int: 1}},
			},
			want: ErrArgCountMismatch,
		},
		{
			name: "missing return",
			call: &Call{Callee: &Identifier{Name: "noret"}},
			want: ErrMissingReturn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := eval.Eval(tt.call); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvalAttribute(t *testing.T) {
	eval := NewEvaluator()

	// Dotted access on anything that is not an object stringifies.
	got, err := eval.Eval(&Attribute{
		Object: &Identifier{Name: "var"},
		Name:   "environment",
	})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	if got != "var.environment" {
		t.Fatalf("got %v, want var.environment", got)
	}
}

func TestScopeChaining(t *testing.T) {
	outer := NewScope(nil)
	outer.Define("a", int64(1))

	inner := NewScope(outer)
	inner.Define("b", int64(2))

	if v, ok := inner.Lookup("a"); !ok || v != int64(1) {
		t.Errorf("inner lookup of outer binding failed: %v %v", v, ok)
	}

	if _, ok := outer.Lookup("b"); ok {
		t.Errorf("outer scope must not see inner bindings")
	}

	// Shadowing resolves to the nearest scope.
	inner.Define("a", int64(3))

	if v, _ := inner.Lookup("a"); v != int64(3) {
		t.Errorf("shadowed lookup = %v, want 3", v)
	}
}
