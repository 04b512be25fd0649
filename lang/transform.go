package lang

// Transformer rewrites a parsed tree into its fully expanded form: typed
// objects and typed blocks are completed through the registry (defaults
// filled, calculated fields computed, the type tag dropped), and user
// function definitions are registered with the shared evaluator for call
// inlining at emission. Transformation is a pure tree-to-tree mapping;
// input nodes are never mutated. Expansion happens exactly once here;
// the emitter treats its input as already expanded.
type Transformer struct {
	reg  *Registry
	eval *Evaluator
}

// NewTransformer creates a transformer over the conversion's registry and
// evaluator.
func NewTransformer(reg *Registry, eval *Evaluator) *Transformer {
	return &Transformer{reg: reg, eval: eval}
}

// Transform rewrites one node. Kinds without a rewrite rule pass through
// unchanged.
func (t *Transformer) Transform(n Node) (Node, error) {
	switch node := n.(type) {
	case *Block:
		return t.transformBlock(node)

	case *Resource:
		return t.transformResource(node)

	case *NamedBlock:
		return t.transformNamedBlock(node)

	case *ForLoop:
		iterable, err := t.Transform(node.Iterable)
		if err != nil {
			return nil, err
		}

		body, err := t.transformBlock(node.Body)
		if err != nil {
			return nil, err
		}

		return &ForLoop{
			Iterator: node.Iterator,
			Iterable: iterable,
			Body:     body,
		}, nil

	case *Conditional:
		cond, err := t.Transform(node.Cond)
		if err != nil {
			return nil, err
		}

		then, err := t.transformBlock(node.Then)
		if err != nil {
			return nil, err
		}

		var els *Block

		if node.Else != nil {
			els, err = t.transformBlock(node.Else)
			if err != nil {
				return nil, err
			}
		}

		return &Conditional{Cond: cond, Then: then, Else: els}, nil

	case *Switch:
		return t.transformSwitch(node)

	case *Function:
		body, err := t.transformBlock(node.Body)
		if err != nil {
			return nil, err
		}

		fn := &Function{
			Name:       node.Name,
			Params:     node.Params,
			ReturnType: node.ReturnType,
			Body:       body,
		}

		t.eval.DefineFunction(fn)

		return fn, nil

	case *Return:
		value, err := t.Transform(node.Value)
		if err != nil {
			return nil, err
		}

		return &Return{Value: value}, nil

	case *KeyValue:
		value, err := t.Transform(node.Value)
		if err != nil {
			return nil, err
		}

		return &KeyValue{Key: node.Key, Value: value}, nil

	case *Mapping:
		to, err := t.Transform(node.To)
		if err != nil {
			return nil, err
		}

		return &Mapping{From: node.From, To: to}, nil

	case *ExprStmt:
		expr, err := t.Transform(node.Expr)
		if err != nil {
			return nil, err
		}

		return &ExprStmt{Expr: expr}, nil

	case *TrailingBlock:
		expr, err := t.Transform(node.Expr)
		if err != nil {
			return nil, err
		}

		body, err := t.transformBlock(node.Body)
		if err != nil {
			return nil, err
		}

		return &TrailingBlock{Expr: expr, Body: body}, nil

	case *TypeInstance:
		return t.transformTypeInstance(node)

	case *Binary:
		left, err := t.Transform(node.Left)
		if err != nil {
			return nil, err
		}

		right, err := t.Transform(node.Right)
		if err != nil {
			return nil, err
		}

		return &Binary{Op: node.Op, Left: left, Right: right}, nil

	case *Ternary:
		cond, err := t.Transform(node.Cond)
		if err != nil {
			return nil, err
		}

		then, err := t.Transform(node.Then)
		if err != nil {
			return nil, err
		}

		els, err := t.Transform(node.Else)
		if err != nil {
			return nil, err
		}

		return &Ternary{Cond: cond, Then: then, Else: els}, nil

	case *Call:
		args := make([]Node, 0, len(node.Args))

		for _, arg := range node.Args {
			a, err := t.Transform(arg)
			if err != nil {
				return nil, err
			}

			args = append(args, a)
		}

		return &Call{Callee: node.Callee, Args: args}, nil

	case *Attribute:
		obj, err := t.Transform(node.Object)
		if err != nil {
			return nil, err
		}

		return &Attribute{Object: obj, Name: node.Name}, nil

	case *ListLit:
		elems := make([]Node, 0, len(node.Elems))

		for _, elem := range node.Elems {
			e, err := t.Transform(elem)
			if err != nil {
				return nil, err
			}

			elems = append(elems, e)
		}

		return &ListLit{Elems: elems}, nil

	case *ObjectLit:
		return t.transformObjectLit(node)

	default:
		return n, nil
	}
}

// transformBlock rewrites every statement of a block. When the resulting
// statements are all plain key-value pairs and collectively carry a type
// key naming a registered type, the block is expanded as a typed object
// and flattened back into key-value statements.
func (t *Transformer) transformBlock(b *Block) (*Block, error) {
	stmts := make([]Node, 0, len(b.Stmts))

	for _, stmt := range b.Stmts {
		s, err := t.Transform(stmt)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, s)
	}

	out := &Block{Stmts: stmts}

	if name, ok := blockTypeName(out); ok && t.reg.Has(name) {
		return t.expandKeyValueBlock(out, name)
	}

	return out, nil
}

// blockTypeName reports the type tag of a block whose statements are all
// key-value pairs, when one is present.
func blockTypeName(b *Block) (string, bool) {
	name := ""

	for _, stmt := range b.Stmts {
		kv, ok := stmt.(*KeyValue)
		if !ok {
			return "", false
		}

		if kv.Key != "type" {
			continue
		}

		switch v := kv.Value.(type) {
		case *Identifier:
			name = v.Name
		case *StringLit:
			name = v.Value
		}
	}

	return name, name != ""
}

// expandKeyValueBlock treats an all-key-value block as a typed object,
// expands it, and converts the completed values back into key-value
// statements.
func (t *Transformer) expandKeyValueBlock(b *Block, typeName string) (*Block, error) {
	values := NewObject()

	for _, stmt := range b.Stmts {
		kv := stmt.(*KeyValue)
		if kv.Key == "type" {
			continue
		}

		values.Set(kv.Key, reduceNode(kv.Value))
	}

	expanded, err := t.reg.Expand(typeName, values, t.eval)
	if err != nil {
		return nil, err
	}

	return t.objectToStmts(expanded)
}

// objectToStmts converts completed field values into key-value statements,
// re-transforming each reconstructed node so nested typed values expand
// transitively.
func (t *Transformer) objectToStmts(values *Object) (*Block, error) {
	out := &Block{}

	for _, key := range values.Keys() {
		v, _ := values.Get(key)

		n, err := valueToNode(v)
		if err != nil {
			return nil, err
		}

		n, err = t.Transform(n)
		if err != nil {
			return nil, err
		}

		out.Stmts = append(out.Stmts, &KeyValue{Key: key, Value: n})
	}

	return out, nil
}

// transformResource expands a resource body against its declared type
// when one is named and registered: fields complete through the registry
// in declaration order, the type key is dropped, and statements that are
// not key-value pairs (nested blocks, loops) survive after the expanded
// fields in their original relative order.
func (t *Transformer) transformResource(r *Resource) (Node, error) {
	typeName, tagged := resourceTypeName(r.Body)

	if !tagged || !t.reg.Has(typeName) {
		body, err := t.transformBlock(r.Body)
		if err != nil {
			return nil, err
		}

		return &Resource{
			Type: r.Type,
			Name: r.Name,
			Body: body,
			Line: r.Line,
		}, nil
	}

	var (
		values = NewObject()
		rest   []Node
	)

	for _, stmt := range r.Body.Stmts {
		kv, ok := stmt.(*KeyValue)
		if !ok {
			s, err := t.Transform(stmt)
			if err != nil {
				return nil, err
			}

			rest = append(rest, s)

			continue
		}

		if kv.Key == "type" {
			// The type = TypeName { ... } shorthand contributes its own
			// entries as instance fields.
			if inst, ok := kv.Value.(*TypeInstance); ok {
				for _, entry := range inst.Object.Entries {
					v, err := t.Transform(entry.Value)
					if err != nil {
						return nil, err
					}

					values.Set(entry.Key, reduceNode(v))
				}
			}

			continue
		}

		v, err := t.Transform(kv.Value)
		if err != nil {
			return nil, err
		}

		values.Set(kv.Key, reduceNode(v))
	}

	expanded, err := t.reg.Expand(typeName, values, t.eval)
	if err != nil {
		return nil, err
	}

	body, err := t.objectToStmts(expanded)
	if err != nil {
		return nil, err
	}

	body.Stmts = append(body.Stmts, rest...)

	return &Resource{
		Type: r.Type,
		Name: r.Name,
		Body: body,
		Line: r.Line,
	}, nil
}

// resourceTypeName extracts the type tag of a resource body.
func resourceTypeName(body *Block) (string, bool) {
	for _, stmt := range body.Stmts {
		kv, ok := stmt.(*KeyValue)
		if !ok || kv.Key != "type" {
			continue
		}

		switch v := kv.Value.(type) {
		case *Identifier:
			return v.Name, true
		case *StringLit:
			return v.Value, true
		case *TypeInstance:
			return v.TypeName, true
		}
	}

	return "", false
}

// transformNamedBlock rewrites the inner block, unwrapping a body that
// collapsed to a single bare object literal into flat key-value
// statements. The wrapped shape is an artifact of object-literal parsing
// inside block syntax; both spellings mean the same thing.
func (t *Transformer) transformNamedBlock(nb *NamedBlock) (Node, error) {
	body, err := t.transformBlock(nb.Body)
	if err != nil {
		return nil, err
	}

	if len(body.Stmts) == 1 {
		if es, ok := body.Stmts[0].(*ExprStmt); ok {
			if obj, ok := es.Expr.(*ObjectLit); ok {
				unwrapped := &Block{}

				for _, entry := range obj.Entries {
					unwrapped.Stmts = append(unwrapped.Stmts, &KeyValue{
						Key:   entry.Key,
						Value: entry.Value,
					})
				}

				body = unwrapped
			}
		}
	}

	return &NamedBlock{Name: nb.Name, Label: nb.Label, Body: body}, nil
}

func (t *Transformer) transformSwitch(sw *Switch) (Node, error) {
	subject, err := t.Transform(sw.Subject)
	if err != nil {
		return nil, err
	}

	out := &Switch{Subject: subject}

	for _, arm := range sw.Cases {
		value, err := t.Transform(arm.Value)
		if err != nil {
			return nil, err
		}

		body, err := t.transformBlock(arm.Body)
		if err != nil {
			return nil, err
		}

		out.Cases = append(out.Cases, &CaseArm{Value: value, Body: body})
	}

	if sw.Default != nil {
		out.Default, err = t.transformBlock(sw.Default)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// transformTypeInstance expands a registered type instance into a plain
// object literal with defaults and calculated fields completed. Instances
// of unregistered types keep their tag with each value transformed.
func (t *Transformer) transformTypeInstance(inst *TypeInstance) (Node, error) {
	entries, err := t.transformEntries(inst.Object.Entries)
	if err != nil {
		return nil, err
	}

	if !t.reg.Has(inst.TypeName) {
		return &TypeInstance{
			TypeName: inst.TypeName,
			Object:   &ObjectLit{Entries: entries},
			Line:     inst.Line,
		}, nil
	}

	values := NewObject()

	for _, entry := range entries {
		values.Set(entry.Key, reduceNode(entry.Value))
	}

	expanded, err := t.reg.Expand(inst.TypeName, values, t.eval)
	if err != nil {
		return nil, err
	}

	return t.valuesToObjectLit(expanded)
}

// transformObjectLit rewrites an object literal attribute-wise. A literal
// carrying a type attribute naming a registered type expands like a typed
// instance, dropping the type key.
func (t *Transformer) transformObjectLit(obj *ObjectLit) (Node, error) {
	entries, err := t.transformEntries(obj.Entries)
	if err != nil {
		return nil, err
	}

	typeName := ""

	for _, entry := range entries {
		if entry.Key != "type" {
			continue
		}

		switch v := entry.Value.(type) {
		case *Identifier:
			typeName = v.Name
		case *StringLit:
			typeName = v.Value
		}
	}

	if typeName == "" || !t.reg.Has(typeName) {
		return &ObjectLit{Entries: entries}, nil
	}

	values := NewObject()

	for _, entry := range entries {
		if entry.Key == "type" {
			continue
		}

		values.Set(entry.Key, reduceNode(entry.Value))
	}

	expanded, err := t.reg.Expand(typeName, values, t.eval)
	if err != nil {
		return nil, err
	}

	return t.valuesToObjectLit(expanded)
}

func (t *Transformer) transformEntries(entries []*ObjectEntry) ([]*ObjectEntry, error) {
	out := make([]*ObjectEntry, 0, len(entries))

	for _, entry := range entries {
		v, err := t.Transform(entry.Value)
		if err != nil {
			return nil, err
		}

		out = append(out, &ObjectEntry{Key: entry.Key, Value: v})
	}

	return out, nil
}

// valuesToObjectLit converts completed field values back into an object
// literal, re-transforming each reconstructed node so nested typed values
// expand transitively.
func (t *Transformer) valuesToObjectLit(values *Object) (Node, error) {
	obj := &ObjectLit{}

	for _, key := range values.Keys() {
		v, _ := values.Get(key)

		n, err := valueToNode(v)
		if err != nil {
			return nil, err
		}

		n, err = t.Transform(n)
		if err != nil {
			return nil, err
		}

		obj.Entries = append(obj.Entries, &ObjectEntry{Key: key, Value: n})
	}

	return obj, nil
}

// reduceNode lowers an AST node to a plain domain value when it is
// statically reducible, keeping the node itself otherwise. Node-valued
// entries skip constraint checks and pass through expansion untouched.
func reduceNode(n Node) any {
	if v, err := nodeToValue(n); err == nil {
		return v
	}

	return n
}
