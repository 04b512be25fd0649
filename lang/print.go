package lang

// ToMap converts a syntax tree into plain maps, slices, and scalars for
// structured inspection output (JSON or YAML). Every node maps to a
// "kind" key plus its fields; the shape is stable output surface, not an
// internal representation.
func ToMap(n Node) any {
	switch node := n.(type) {
	case nil:
		return nil

	case *Block:
		stmts := make([]any, 0, len(node.Stmts))
		for _, stmt := range node.Stmts {
			stmts = append(stmts, ToMap(stmt))
		}

		return map[string]any{"kind": "block", "statements": stmts}

	case *Resource:
		return map[string]any{
			"kind": "resource",
			"type": node.Type,
			"name": node.Name,
			"line": node.Line,
			"body": ToMap(node.Body),
		}

	case *NamedBlock:
		m := map[string]any{
			"kind": "named_block",
			"name": node.Name,
			"body": ToMap(node.Body),
		}

		if node.Label != "" {
			m["label"] = node.Label
		}

		return m

	case *RawBlock:
		return map[string]any{
			"kind": "raw_block",
			"name": node.Name,
			"text": node.Text,
		}

	case *ForLoop:
		return map[string]any{
			"kind":     "for",
			"iterator": node.Iterator,
			"iterable": ToMap(node.Iterable),
			"body":     ToMap(node.Body),
		}

	case *Conditional:
		m := map[string]any{
			"kind":      "if",
			"condition": ToMap(node.Cond),
			"then":      ToMap(node.Then),
		}

		if node.Else != nil {
			m["else"] = ToMap(node.Else)
		}

		return m

	case *Switch:
		cases := make([]any, 0, len(node.Cases))
		for _, arm := range node.Cases {
			cases = append(cases, map[string]any{
				"value": ToMap(arm.Value),
				"body":  ToMap(arm.Body),
			})
		}

		m := map[string]any{
			"kind":    "switch",
			"subject": ToMap(node.Subject),
			"cases":   cases,
		}

		if node.Default != nil {
			m["default"] = ToMap(node.Default)
		}

		return m

	case *Function:
		params := make([]any, 0, len(node.Params))

		for _, p := range node.Params {
			pm := map[string]any{"name": p.Name}
			if p.Type != nil {
				pm["type"] = p.Type.String()
			}

			params = append(params, pm)
		}

		m := map[string]any{
			"kind":   "function",
			"name":   node.Name,
			"params": params,
			"body":   ToMap(node.Body),
		}

		if node.ReturnType != nil {
			m["return_type"] = node.ReturnType.String()
		}

		return m

	case *Return:
		return map[string]any{"kind": "return", "value": ToMap(node.Value)}

	case *TypeDecl:
		fields := make([]any, 0, len(node.Def.Fields))

		for _, f := range node.Def.Fields {
			fm := map[string]any{"name": f.Name}

			if f.Constraint != nil && f.Constraint.Type != nil {
				fm["type"] = f.Constraint.Type.String()
			}

			if len(f.Constraint.Enum) > 0 {
				fm["enum"] = f.Constraint.Enum
			}

			if f.Default != nil {
				if n, ok := f.Default.(Node); ok {
					fm["default"] = ToMap(n)
				} else {
					fm["default"] = f.Default
				}
			}

			if f.Calculated != nil {
				fm["calc"] = ToMap(f.Calculated.Expr)
				fm["deps"] = f.Calculated.Deps
			}

			fields = append(fields, fm)
		}

		m := map[string]any{
			"kind":   "type",
			"name":   node.Def.Name,
			"fields": fields,
		}

		if node.Def.Base != "" {
			m["base"] = node.Def.Base
		}

		return m

	case *KeyValue:
		return map[string]any{
			"kind":  "attribute",
			"key":   node.Key,
			"value": ToMap(node.Value),
		}

	case *Mapping:
		return map[string]any{
			"kind": "mapping",
			"from": ToMap(node.From),
			"to":   ToMap(node.To),
		}

	case *ExprStmt:
		return map[string]any{"kind": "expr", "value": ToMap(node.Expr)}

	case *StringLit:
		return map[string]any{"kind": "string", "value": node.Value}

	case *NumberLit:
		if node.IsFloat {
			return map[string]any{"kind": "number", "value": node.Float}
		}

		return map[string]any{"kind": "number", "value": node.Int}

	case *BoolLit:
		return map[string]any{"kind": "bool", "value": node.Value}

	case *NullLit:
		return map[string]any{"kind": "null"}

	case *Identifier:
		return map[string]any{"kind": "identifier", "name": node.Name}

	case *Binary:
		return map[string]any{
			"kind":  "binary",
			"op":    binaryOpName(node.Op),
			"left":  ToMap(node.Left),
			"right": ToMap(node.Right),
		}

	case *Ternary:
		return map[string]any{
			"kind":      "ternary",
			"condition": ToMap(node.Cond),
			"then":      ToMap(node.Then),
			"else":      ToMap(node.Else),
		}

	case *Call:
		args := make([]any, 0, len(node.Args))
		for _, arg := range node.Args {
			args = append(args, ToMap(arg))
		}

		return map[string]any{
			"kind":   "call",
			"callee": ToMap(node.Callee),
			"args":   args,
		}

	case *Attribute:
		return map[string]any{
			"kind":   "attribute_access",
			"object": ToMap(node.Object),
			"name":   node.Name,
		}

	case *ListLit:
		elems := make([]any, 0, len(node.Elems))
		for _, elem := range node.Elems {
			elems = append(elems, ToMap(elem))
		}

		return map[string]any{"kind": "list", "elements": elems}

	case *ObjectLit:
		entries := make([]any, 0, len(node.Entries))
		for _, entry := range node.Entries {
			entries = append(entries, map[string]any{
				"key":   entry.Key,
				"value": ToMap(entry.Value),
			})
		}

		return map[string]any{"kind": "object", "entries": entries}

	case *TypeInstance:
		return map[string]any{
			"kind":   "type_instance",
			"type":   node.TypeName,
			"object": ToMap(node.Object),
		}

	case *TrailingBlock:
		return map[string]any{
			"kind": "block_expr",
			"expr": ToMap(node.Expr),
			"body": ToMap(node.Body),
		}

	default:
		return map[string]any{"kind": "unknown"}
	}
}
