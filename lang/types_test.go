package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	reg := NewRegistry()

	base := &TypeDefinition{
		Name: "ComputeInstance",
		Fields: []*FieldDefinition{
			{
				Name:       "cpu",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "number"}},
				Default:    int64(0),
			},
			{
				Name:       "memory",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "number"}},
				Default:    int64(0),
			},
			{
				Name:       "os",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
				Default:    "Linux",
			},
		},
	}

	if err := reg.Register(base); err != nil {
		t.Fatalf("register base: %v", err)
	}

	derived := &TypeDefinition{
		Name: "Instance",
		Base: "ComputeInstance",
		Fields: []*FieldDefinition{
			{
				Name:       "name",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
				Default:    "default-name",
			},
			{
				Name: "size",
				Constraint: &TypeConstraint{Type: &CustomType{
					Name: "t2.micro",
					Members: []*CustomType{
						{Name: "t2.micro"},
						{Name: "t3.micro"},
					},
				}},
				Default: "t2.micro",
			},
		},
	}

	if err := reg.Register(derived); err != nil {
		t.Fatalf("register derived: %v", err)
	}

	return reg
}

func TestRegisterUnknownBase(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(&TypeDefinition{Name: "Orphan", Base: "Missing"})
	if !errors.Is(err, ErrUnknownBaseType) {
		t.Fatalf("expected ErrUnknownBaseType, got %v", err)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	reg := newTestRegistry(t)

	redef := &TypeDefinition{
		Name: "Instance",
		Fields: []*FieldDefinition{
			{
				Name:       "name",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
				Default:    "other",
			},
		},
	}

	if err := reg.Register(redef); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	fields, err := reg.AllFields("Instance")
	if err != nil {
		t.Fatalf("all fields: %v", err)
	}

	// Last write wins; the base and its fields are gone.
	if len(fields) != 1 || fields[0].Name != "name" {
		t.Fatalf("expected single name field, got %d fields", len(fields))
	}

	if len(reg.Names()) != 2 {
		t.Errorf("re-registration must not duplicate registration order")
	}
}

func TestAllFieldsInheritancePrecedence(t *testing.T) {
	reg := newTestRegistry(t)

	override := &TypeDefinition{
		Name: "Tuned",
		Base: "ComputeInstance",
		Fields: []*FieldDefinition{
			{
				Name:       "cpu",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "number"}},
				Default:    int64(4),
			},
		},
	}

	if err := reg.Register(override); err != nil {
		t.Fatalf("register: %v", err)
	}

	fields, err := reg.AllFields("Tuned")
	if err != nil {
		t.Fatalf("all fields: %v", err)
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}

	// Ancestor order is preserved; the override replaces in place.
	want := []string{"cpu", "memory", "os"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	if fields[0].Default != int64(4) {
		t.Errorf("derived cpu default = %v, want 4", fields[0].Default)
	}
}

func TestValidateInstance(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		name    string
		values  map[string]any
		wantErr int
	}{
		{
			name:    "all defaults satisfied",
			values:  map[string]any{},
			wantErr: 0,
		},
		{
			name:    "constraint violation",
			values:  map[string]any{"cpu": "lots"},
			wantErr: 1,
		},
		{
			name:    "union member mismatch",
			values:  map[string]any{"size": "m5.large"},
			wantErr: 1,
		},
		{
			name:    "extra keys permitted",
			values:  map[string]any{"zone": "us-east-1a"},
			wantErr: 0,
		},
		{
			name:    "dynamic values skip constraint checks",
			values:  map[string]any{"cpu": Dynamic},
			wantErr: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := NewObject()
			for k, v := range tt.values {
				values.Set(k, v)
			}

			errs := reg.ValidateInstance("Instance", values)
			if len(errs) != tt.wantErr {
				t.Fatalf("got %d errors (%v), want %d",
					len(errs), errs, tt.wantErr)
			}
		})
	}
}

func TestValidateInstanceMissingRequired(t *testing.T) {
	reg := newTestRegistry(t)

	required := &TypeDefinition{
		Name: "Named",
		Fields: []*FieldDefinition{
			{
				Name:       "name",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
			},
		},
	}

	if err := reg.Register(required); err != nil {
		t.Fatalf("register: %v", err)
	}

	errs := reg.ValidateInstance("Named", NewObject())
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
}

func TestUnionShortCircuit(t *testing.T) {
	reg := newTestRegistry(t)

	constraint := &TypeConstraint{Type: &CustomType{
		Name: "string",
		Members: []*CustomType{
			{Name: "string"},
			{Name: "number"},
		},
	}}

	// Satisfying the first member validates regardless of the second.
	if err := constraint.Validate(reg, "hello"); err != nil {
		t.Errorf("string member: %v", err)
	}

	if err := constraint.Validate(reg, int64(7)); err != nil {
		t.Errorf("number member: %v", err)
	}

	if err := constraint.Validate(reg, true); err == nil {
		t.Errorf("bool must match no member")
	}
}

func TestEnumConstraint(t *testing.T) {
	reg := NewRegistry()
	constraint := &TypeConstraint{Enum: []string{"tcp", "udp"}}

	if err := constraint.Validate(reg, "tcp"); err != nil {
		t.Errorf("tcp: %v", err)
	}

	if err := constraint.Validate(reg, "icmp"); err == nil {
		t.Errorf("icmp must not validate")
	}
}

func TestNullableConstraint(t *testing.T) {
	reg := NewRegistry()

	nullable := &TypeConstraint{Type: &CustomType{Name: "string", Nullable: true}}
	if err := nullable.Validate(reg, nil); err != nil {
		t.Errorf("nullable nil: %v", err)
	}

	strict := &TypeConstraint{Type: &CustomType{Name: "string"}}
	if err := strict.Validate(reg, nil); err == nil {
		t.Errorf("non-nullable nil must not validate")
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	eval := NewEvaluator()

	values := NewObject()
	values.Set("name", "web-1")

	once, err := reg.ApplyDefaults("Instance", values, eval)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}

	twice, err := reg.ApplyDefaults("Instance", once, eval)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	if diff := cmp.Diff(once.Map(), twice.Map()); diff != "" {
		t.Fatalf("defaults not idempotent (-once +twice):\n%s", diff)
	}

	if diff := cmp.Diff(once.Keys(), twice.Keys()); diff != "" {
		t.Fatalf("key order changed (-once +twice):\n%s", diff)
	}
}

func TestApplyDefaultsFieldOrder(t *testing.T) {
	reg := newTestRegistry(t)
	eval := NewEvaluator()

	values := NewObject()
	values.Set("name", "web-1")

	got, err := reg.ApplyDefaults("Instance", values, eval)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Provided values first in source order, then defaults in field
	// declaration order (ancestors first).
	want := []string{"name", "cpu", "memory", "os", "size"}
	if diff := cmp.Diff(want, got.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaultsCalculated(t *testing.T) {
	reg := NewRegistry()
	eval := NewEvaluator()

	def := &TypeDefinition{
		Name: "Host",
		Fields: []*FieldDefinition{
			{
				Name:       "name",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
			},
			{
				Name:       "domain",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
			},
			{
				Name:       "fqdn",
				Constraint: &TypeConstraint{Type: &CustomType{Name: "string"}},
				Calculated: &CalculatedField{
					Expr: &StringLit{Value: "${name}.${domain}"},
					Deps: []string{"name", "domain"},
				},
			},
		},
	}

	if err := reg.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}

	values := NewObject()
	values.Set("name", "api")
	values.Set("domain", "example.com")

	got, err := reg.ApplyDefaults("Host", values, eval)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	fqdn, _ := got.Get("fqdn")
	if fqdn != "api.example.com" {
		t.Fatalf("fqdn = %v, want api.example.com", fqdn)
	}

	// Calculated fields recompute even when already present.
	got.Set("name", "www")

	again, err := reg.ApplyDefaults("Host", got, eval)
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}

	fqdn, _ = again.Get("fqdn")
	if fqdn != "www.example.com" {
		t.Fatalf("recomputed fqdn = %v, want www.example.com", fqdn)
	}
}

func TestApplyDefaultsRequiresEvaluator(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.ApplyDefaults("Instance", NewObject(), nil)
	if !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestExpandAggregatesViolations(t *testing.T) {
	reg := newTestRegistry(t)

	values := NewObject()
	values.Set("cpu", "lots")
	values.Set("size", "m5.large")

	_, err := reg.Expand("Instance", values, NewEvaluator())
	if !errors.Is(err, ErrTypeValidation) {
		t.Fatalf("expected ErrTypeValidation, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	reg := newTestRegistry(t)

	if got := reg.Suggest("Instnce"); got == "" {
		t.Errorf("expected a suggestion for Instnce")
	}

	if got := reg.Suggest("zzz"); got != "" {
		t.Errorf("Suggest(zzz) = %q, want none", got)
	}
}
