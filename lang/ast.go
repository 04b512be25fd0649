package lang

import "github.com/hxl-lang/hxl/lang/token"

// Node is the closed set of HXL syntax tree nodes. Every pass over the
// tree dispatches on the concrete kind with a type switch; nodes are
// immutable once built, and the transformer produces new trees rather
// than mutating in place.
type Node interface {
	node()
}

// Block is a flat ordered sequence of statement nodes. The whole-program
// AST is the root Block.
type Block struct {
	Stmts []Node
}

// Resource is a resource declaration: resource "<type>" "<name>" { ... }.
// Line is the source line of the resource keyword, used to tag
// validation errors.
type Resource struct {
	Type string
	Name string
	Body *Block
	Line int
}

// NamedBlock is a generic named block: name ["label"] { ... }.
// The keywords service, variable, and output all parse to this shape,
// as does any bare identifier followed by a block.
type NamedBlock struct {
	Name  string
	Label string
	Body  *Block
}

// RawBlock is the configuration/containers escape hatch: its body is
// captured as raw balanced-brace text and re-emitted verbatim.
type RawBlock struct {
	Name string
	Text string
}

// ForLoop is a for statement: for IDENT in EXPR { ... }.
type ForLoop struct {
	Iterator string
	Iterable Node
	Body     *Block
}

// Conditional is an if statement with an optional else block.
type Conditional struct {
	Cond Node
	Then *Block
	Else *Block // nil when absent
}

// CaseArm is one case arm of a switch statement.
type CaseArm struct {
	Value Node
	Body  *Block
}

// Switch is a switch statement with one or more case arms and at most
// one optional default block.
type Switch struct {
	Subject Node
	Cases   []*CaseArm
	Default *Block // nil when absent
}

// Param is a typed function parameter.
type Param struct {
	Name string
	Type *CustomType // nil when unannotated
}

// Function is a named function definition with typed parameters and an
// optional return type annotation.
type Function struct {
	Name       string
	Params     []*Param
	ReturnType *CustomType // nil when unannotated
	Body       *Block
}

// Return is a return statement.
type Return struct {
	Value Node
}

// TypeDecl is a top-level type declaration. The same information is
// registered in the session's type registry at parse time; the node is
// retained for documentation and emission purposes.
type TypeDecl struct {
	Def *TypeDefinition
}

// KeyValue is a key = value (or key : value) attribute statement.
type KeyValue struct {
	Key   string
	Value Node
}

// Mapping is a source maps_to target statement. Mappings inside a
// deployment block are collected and flushed as a synthetic mappings
// attribute at emission.
type Mapping struct {
	From Node
	To   Node
}

// ExprStmt wraps a bare expression used in statement position.
type ExprStmt struct {
	Expr Node
}

// StringLit is a string literal. Interpolation placeholders (${name})
// remain embedded in Value and are resolved by the evaluator.
type StringLit struct {
	Value string
}

// NumberLit is an integer or float literal; a '.' in the captured text
// makes it a float.
type NumberLit struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// BoolLit is a true/false literal.
type BoolLit struct {
	Value bool
}

// NullLit is the null literal.
type NullLit struct{}

// Identifier is a name reference.
type Identifier struct {
	Name string
}

// Binary is a binary operator expression, including the maps_to operator
// at the equality precedence tier.
type Binary struct {
	Op    token.Kind
	Left  Node
	Right Node
}

// Ternary is a COND ? THEN : ELSE expression.
type Ternary struct {
	Cond Node
	Then Node
	Else Node
}

// Call is a function call expression.
type Call struct {
	Callee Node
	Args   []Node
}

// Attribute is a dotted attribute access: object.name.
type Attribute struct {
	Object Node
	Name   string
}

// ListLit is a bracketed list literal.
type ListLit struct {
	Elems []Node
}

// ObjectEntry is one key/value pair of an object literal.
type ObjectEntry struct {
	Key   string
	Value Node
}

// ObjectLit is a brace object literal. Entry order is preserved from the
// source and carried through transformation into emission.
type ObjectLit struct {
	Entries []*ObjectEntry
}

// TypeInstance is an object or block explicitly tagged with a nominal
// type (key: TypeName { ... } or type = TypeName { ... }), subject to
// default/calculated-field expansion.
type TypeInstance struct {
	TypeName string
	Object   *ObjectLit
	Line     int
}

// TrailingBlock attaches a block to a preceding expression, such as
// service "x" { ... } appearing in expression position.
type TrailingBlock struct {
	Expr Node
	Body *Block
}

func (*Block) node()         {}
func (*Resource) node()      {}
func (*NamedBlock) node()    {}
func (*RawBlock) node()      {}
func (*ForLoop) node()       {}
func (*Conditional) node()   {}
func (*Switch) node()        {}
func (*Function) node()      {}
func (*Return) node()        {}
func (*TypeDecl) node()      {}
func (*KeyValue) node()      {}
func (*Mapping) node()       {}
func (*ExprStmt) node()      {}
func (*StringLit) node()     {}
func (*NumberLit) node()     {}
func (*BoolLit) node()       {}
func (*NullLit) node()       {}
func (*Identifier) node()    {}
func (*Binary) node()        {}
func (*Ternary) node()       {}
func (*Call) node()          {}
func (*Attribute) node()     {}
func (*ListLit) node()       {}
func (*ObjectLit) node()     {}
func (*TypeInstance) node()  {}
func (*TrailingBlock) node() {}
