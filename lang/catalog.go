package lang

import (
	_ "embed"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// catalogFile is the YAML shape of a type catalog document.
type catalogFile struct {
	Types []catalogType `yaml:"types"`
}

type catalogType struct {
	Name   string         `yaml:"name"`
	Base   string         `yaml:"base"`
	Fields []catalogField `yaml:"fields"`
}

type catalogField struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Enum        []string `yaml:"enum"`
	Default     any      `yaml:"default"`
	Calc        string   `yaml:"calc"`
	Description string   `yaml:"description"`
}

// LoadBuiltins registers the embedded builtin type catalog. Catalog
// entries register in file order, so a base type listed before its
// descendants satisfies the pre-existing-base rule.
func LoadBuiltins(reg *Registry) error {
	return LoadCatalog(reg, builtinCatalog)
}

// LoadCatalog registers every type of a YAML catalog document into the
// registry. Field type annotations and calc expressions use ordinary
// source syntax.
func LoadCatalog(reg *Registry, data []byte) error {
	var file catalogFile

	// Ordered decoding keeps object-valued defaults in document order,
	// so emitted field order is deterministic.
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.UseOrderedMap()); err != nil {
		return NewError("decode type catalog").Wrap(err)
	}

	for _, ct := range file.Types {
		def, err := catalogDefinition(reg, ct)
		if err != nil {
			return err
		}

		if err := reg.Register(def); err != nil {
			return err
		}
	}

	return nil
}

func catalogDefinition(reg *Registry, ct catalogType) (*TypeDefinition, error) {
	def := &TypeDefinition{Name: ct.Name, Base: ct.Base}

	for _, cf := range ct.Fields {
		field := &FieldDefinition{
			Name:        cf.Name,
			Description: cf.Description,
		}

		switch {
		case len(cf.Enum) > 0:
			field.Constraint = &TypeConstraint{Enum: cf.Enum}

		case cf.Type != "":
			annot, err := ParseTypeRef(cf.Type)
			if err != nil {
				return nil, NewError("catalog field type").Wrap(err).With(
					slog.String("type", ct.Name),
					slog.String("field", cf.Name),
				)
			}

			field.Constraint = &TypeConstraint{Type: annot}
		}

		if cf.Default != nil {
			field.Default = normalizeYAML(cf.Default)
		}

		if cf.Calc != "" {
			expr, err := ParseExpression(cf.Calc, reg)
			if err != nil {
				return nil, NewError("catalog calc expression").Wrap(err).With(
					slog.String("type", ct.Name),
					slog.String("field", cf.Name),
				)
			}

			field.Calculated = &CalculatedField{
				Expr: expr,
				Deps: collectDeps(expr),
			}
		}

		def.Fields = append(def.Fields, field)
	}

	return def, nil
}

// normalizeYAML maps decoded YAML values onto the closed value domain.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case []any:
		list := make([]any, 0, len(val))
		for _, item := range val {
			list = append(list, normalizeYAML(item))
		}

		return list
	case yaml.MapSlice:
		obj := NewObject()

		for _, item := range val {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}

			obj.Set(key, normalizeYAML(item.Value))
		}

		return obj
	case map[string]any:
		// Unordered input has no document order to honor; sorted keys
		// keep the result stable.
		obj := NewObject()
		for _, k := range slices.Sorted(maps.Keys(val)) {
			obj.Set(k, normalizeYAML(val[k]))
		}

		return obj
	default:
		return v
	}
}
