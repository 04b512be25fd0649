package lang

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sahilm/fuzzy"
	"github.com/zclconf/go-cty/cty"
)

// CustomType is a type reference as written in source: a primitive or
// named type, or a union of alternatives, optionally nullable.
type CustomType struct {
	Name     string
	Members  []*CustomType // union alternatives; nil for a plain reference
	Nullable bool
}

// IsUnion reports whether the reference names more than one alternative.
func (t *CustomType) IsUnion() bool { return len(t.Members) > 0 }

// String renders the reference in source syntax, e.g. "string?" or
// `"t2.micro" | "t3.micro"`.
func (t *CustomType) String() string {
	var sb strings.Builder

	sb.WriteString(t.Name)

	for _, m := range t.Members {
		sb.WriteString(" | ")
		sb.WriteString(m.Name)
	}

	if t.Nullable {
		sb.WriteString("?")
	}

	return sb.String()
}

// memberNames lists the union alternative names for error messages.
func (t *CustomType) memberNames() []string {
	if !t.IsUnion() {
		return []string{t.Name}
	}

	names := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		names = append(names, m.Name)
	}

	return names
}

// TypeConstraint validates candidate values against a type reference or
// a closed enumeration of literal string values.
type TypeConstraint struct {
	Type *CustomType
	Enum []string // closed literal enumeration; overrides Type when set
}

// Validate checks a candidate value, returning nil when it satisfies the
// constraint. The registry is consulted for nominal member types.
func (c *TypeConstraint) Validate(reg *Registry, v any) error {
	if len(c.Enum) > 0 {
		s, ok := v.(string)
		if ok {
			for _, lit := range c.Enum {
				if s == lit {
					return nil
				}
			}
		}

		return fmt.Errorf("value %v is not one of %s",
			v, strings.Join(c.Enum, ", "))
	}

	if c.Type == nil {
		return nil
	}

	if c.Type.Nullable && v == nil {
		return nil
	}

	if c.Type.IsUnion() {
		// A union is satisfied by ANY matching member; short-circuit on
		// the first match.
		for _, m := range c.Type.Members {
			if reg.ValidateValue(v, m.Name) {
				return nil
			}
		}

		return fmt.Errorf("value %v matches none of %s",
			v, strings.Join(c.Type.memberNames(), ", "))
	}

	if reg.ValidateValue(v, c.Type.Name) {
		return nil
	}

	return fmt.Errorf("value %v does not satisfy type %s", v, c.Type.Name)
}

// dynamicValue marks a field that is present in an instance but whose
// value is not statically extractable (an expression, reference, or
// nested construct). Such fields count as provided and skip constraint
// checks until transform time completes them.
type dynamicValue struct{}

// Dynamic is the marker used for non-literal field values during
// parse-time shallow validation.
var Dynamic = dynamicValue{}

// CalculatedField is a field whose value derives from other fields of
// the same instance via an expression, recomputed on every expansion.
type CalculatedField struct {
	Expr Node
	Deps []string // referenced field names, informational only
}

// FieldDefinition describes one field of a type definition.
type FieldDefinition struct {
	Name        string
	Constraint  *TypeConstraint
	Default     any              // domain value or expression Node; nil when absent
	Calculated  *CalculatedField // nil for plain fields
	Description string
}

// hasDefault reports whether the field can be completed when absent.
func (f *FieldDefinition) hasDefault() bool {
	return f.Default != nil || f.Calculated != nil
}

// TypeDefinition is a named type with ordered fields and an optional
// single base type. The base, when set, must already be registered when
// the definition itself is registered.
type TypeDefinition struct {
	Name   string
	Base   string
	Fields []*FieldDefinition
}

// Field returns the named field declared directly on this definition.
func (d *TypeDefinition) Field(name string) (*FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

// Registry owns all type definitions for one document conversion. It is
// mutated during parsing and read thereafter; it is not safe for
// concurrent use and must not be shared across conversions.
type Registry struct {
	types map[string]*TypeDefinition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TypeDefinition)}
}

// Register adds a type definition. Registering a type whose base is not
// yet known fails immediately; requiring the base to pre-exist
// transitively precludes inheritance cycles. Re-registration of an
// existing name silently overwrites (last write wins).
func (r *Registry) Register(def *TypeDefinition) error {
	if def.Base != "" {
		if _, ok := r.types[def.Base]; !ok {
			err := ErrUnknownBaseType.With(
				slog.String("type", def.Name),
				slog.String("base", def.Base),
			)

			if hint := r.Suggest(def.Base); hint != "" {
				err = err.With(slog.String("did_you_mean", hint))
			}

			return err
		}
	}

	if _, ok := r.types[def.Name]; !ok {
		r.order = append(r.order, def.Name)
	}

	r.types[def.Name] = def

	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*TypeDefinition, bool) {
	def, ok := r.types[name]

	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]

	return ok
}

// Names returns all registered type names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Suggest returns the closest registered type name to the given name,
// or "" when nothing is plausibly close.
func (r *Registry) Suggest(name string) string {
	matches := fuzzy.Find(name, r.order)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

// AllFields returns the union of the named type's own fields with all
// ancestor fields. Ancestor fields come first; a more specific
// declaration of the same field name replaces the inherited definition
// in place.
func (r *Registry) AllFields(name string) ([]*FieldDefinition, error) {
	def, ok := r.types[name]
	if !ok {
		return nil, r.unknownType(name)
	}

	// Walk the ancestry root-first.
	var chain []*TypeDefinition

	for cur := def; cur != nil; {
		chain = append([]*TypeDefinition{cur}, chain...)

		if cur.Base == "" {
			break
		}

		parent, ok := r.types[cur.Base]
		if !ok {
			return nil, r.unknownType(cur.Base)
		}

		cur = parent
	}

	var (
		fields []*FieldDefinition
		index  = make(map[string]int)
	)

	for _, t := range chain {
		for _, f := range t.Fields {
			if i, ok := index[f.Name]; ok {
				fields[i] = f // override in place

				continue
			}

			index[f.Name] = len(fields)
			fields = append(fields, f)
		}
	}

	return fields, nil
}

// ValidateInstance checks a set of field values against the named type.
// Every field (own and inherited) missing from values produces an error
// unless it has a default or is calculated; every present field is
// checked against its constraint, violations prefixed with the field
// name. Extra keys in values are silently permitted (open-world
// instances). The returned slice is empty iff the instance is valid.
func (r *Registry) ValidateInstance(name string, values *Object) []error {
	fields, err := r.AllFields(name)
	if err != nil {
		return []error{err}
	}

	var errs []error

	for _, f := range fields {
		v, present := values.Get(f.Name)

		if !present {
			if !f.hasDefault() {
				errs = append(errs,
					fmt.Errorf("%s: required field is missing", f.Name))
			}

			continue
		}

		if f.Constraint == nil {
			continue
		}

		if _, ok := v.(dynamicValue); ok {
			continue
		}

		// Expression-valued fields complete at emission; only statically
		// reduced values are constraint-checked.
		if _, ok := v.(Node); ok {
			continue
		}

		if err := f.Constraint.Validate(r, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	}

	return errs
}

// ValidateValue reports whether a value satisfies a type name. Primitive
// names check the value's runtime kind through the cty type system;
// registered names validate the value as an instance of that type; any
// other name is treated as a string-literal constraint satisfied only by
// the identical text (the union-member shorthand, e.g. "t2.micro").
func (r *Registry) ValidateValue(v any, typeName string) bool {
	switch typeName {
	case "string", "text":
		return ctyTypeOf(v).Equals(cty.String)

	case "number", "int", "float":
		return ctyTypeOf(v).Equals(cty.Number)

	case "bool", "boolean":
		return ctyTypeOf(v).Equals(cty.Bool)

	case "list":
		return ctyTypeOf(v).IsListType()

	case "object", "map":
		return ctyTypeOf(v).IsObjectType()

	case "any":
		return true
	}

	if _, ok := r.types[typeName]; ok {
		obj, ok := v.(*Object)
		if !ok {
			return false
		}

		return len(r.ValidateInstance(typeName, obj)) == 0
	}

	// Unregistered name: string-literal constraint.
	s, ok := v.(string)

	return ok && s == typeName
}

// ApplyDefaults completes an instance of the named type in two passes.
// Pass 1 fills every absent field that carries a default, evaluating
// expression defaults through the evaluator. Pass 2 recomputes every
// calculated field against the accumulated values, whether or not the
// field was already present. Calculated fields evaluate in field
// declaration order; one calculated field depending on another is an
// ordering hazard, not a guarantee.
func (r *Registry) ApplyDefaults(
	name string,
	values *Object,
	eval *Evaluator,
) (*Object, error) {
	if eval == nil {
		return nil, ErrNoEvaluator.With(slog.String("type", name))
	}

	fields, err := r.AllFields(name)
	if err != nil {
		return nil, err
	}

	result := values.Clone()

	// Pass 1: defaults for absent fields.
	for _, f := range fields {
		if f.Default == nil || result.Has(f.Name) {
			continue
		}

		if expr, ok := f.Default.(Node); ok {
			v, err := eval.EvalWith(expr, result)
			if err != nil {
				return nil, err
			}

			result.Set(f.Name, v)

			continue
		}

		result.Set(f.Name, f.Default)
	}

	// Pass 2: calculated fields always recompute, seeing every value
	// accumulated so far (including pass 1 fills).
	for _, f := range fields {
		if f.Calculated == nil {
			continue
		}

		v, err := eval.EvalWith(f.Calculated.Expr, result)
		if err != nil {
			return nil, err
		}

		result.Set(f.Name, v)
	}

	return result, nil
}

// Expand validates and completes a typed instance in one step,
// aggregating any validation violations into a single error.
func (r *Registry) Expand(
	name string,
	values *Object,
	eval *Evaluator,
) (*Object, error) {
	if errs := r.ValidateInstance(name, values); len(errs) > 0 {
		var merr *multierror.Error
		for _, e := range errs {
			merr = multierror.Append(merr, e)
		}

		return nil, ErrTypeValidation.
			Wrap(merr.ErrorOrNil()).
			With(slog.String("type", name))
	}

	return r.ApplyDefaults(name, values, eval)
}

// unknownType builds an unknown-type error with a fuzzy suggestion.
func (r *Registry) unknownType(name string) error {
	err := ErrUnknownType.With(slog.String("type", name))

	if hint := r.Suggest(name); hint != "" {
		err = err.With(slog.String("did_you_mean", hint))
	}

	return err
}
