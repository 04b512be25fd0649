package lang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvertTypedResource(t *testing.T) {
	src := typeDecls + `
resource "aws_instance" "web" {
  type = Instance
  name = "web-1"
}
`

	out, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	want := `resource "aws_instance" "web" {
  name = "web-1"
  cpu = 0
  memory = 0
  os = "Linux"
  size = "t2.micro"
}
`

	if out != want {
		t.Fatalf("output mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestConvertCalculatedField(t *testing.T) {
	src := `
type Host {
  name: string
  domain: string
  fqdn: string = calc { "${name}.${domain}" }
}

resource "dns_record" "api" {
  type = Host
  name = "api"
  domain = "example.com"
}
`

	out, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if !strings.Contains(out, `fqdn = "api.example.com"`) {
		t.Fatalf("calculated field missing:\n%s", out)
	}
}

func TestConvertCalculatedListComparison(t *testing.T) {
	src := `
type Service {
  tags: list = []
  scope: string = calc { tags == [] ? "global" : "scoped" }
}

resource "svc" "api" {
  type = Service
}
`

	out, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if !strings.Contains(out, `scope = "global"`) {
		t.Fatalf("list comparison in calc field wrong:\n%s", out)
	}
}

func TestConvertDeterministic(t *testing.T) {
	src := typeDecls + `
resource "aws_instance" "web" {
  type = Instance
  name = "web-1"
}

settings = { b: 2, a: 1, c: 3 }
`

	first, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	for range 10 {
		again, err := Convert(context.Background(), src, WithoutBuiltins())
		if err != nil {
			t.Fatalf("convert: %v", err)
		}

		if again != first {
			t.Fatalf("output not deterministic:\n%s\nvs:\n%s", first, again)
		}
	}
}

func TestConvertBuiltinCatalog(t *testing.T) {
	src := `
resource "gcp_database" "main" {
  type = Database
  engine = "postgres"
}
`

	out, err := Convert(context.Background(), src)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	for _, want := range []string{
		`engine = "postgres"`,
		`provider = "aws"`,
		`storage_gb = 20`,
		`connection_name = "postgres-latest"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertBuiltinInheritanceChain(t *testing.T) {
	src := `
resource "aws_lb" "edge" {
  type = LoadBalancer
  name = "edge-lb"
}
`

	out, err := Convert(context.Background(), src)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	// LoadBalancer inherits NetworkService's fields and calculated
	// endpoint, which in turn inherits CloudResource's provider.
	for _, want := range []string{
		`provider = "aws"`,
		`endpoint = "edge-lb:443"`,
		`scheme = "internal"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertBuiltinEnumViolation(t *testing.T) {
	src := `
resource "gcp_database" "main" {
  type = Database
  engine = "oracle"
}
`

	_, err := Convert(context.Background(), src)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestConvertWithoutBuiltins(t *testing.T) {
	src := `
resource "gcp_database" "main" {
  type = Database
  engine = "postgres"
}
`

	out, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	// Unregistered type tag passes through untouched.
	if !strings.Contains(out, "type = Database") {
		t.Fatalf("unregistered type must pass through:\n%s", out)
	}
}

func TestConvertSyntaxError(t *testing.T) {
	_, err := Convert(context.Background(), "resource {")

	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}

	// The rendered error carries a caret snippet of the offending line.
	if !strings.Contains(err.Error(), "^") {
		t.Errorf("error lacks source snippet: %q", err.Error())
	}
}

func TestConvertMaxDepth(t *testing.T) {
	src := `
a {
  b {
    c {
      d = 1
    }
  }
}
`

	if _, err := Convert(context.Background(), src,
		WithoutBuiltins(), WithMaxDepth(2)); !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}

	if _, err := Convert(context.Background(), src,
		WithoutBuiltins(), WithMaxDepth(10)); err != nil {
		t.Fatalf("depth within limit must convert: %v", err)
	}
}

func TestConvertLexicalError(t *testing.T) {
	if _, err := Convert(context.Background(), `x = "unterminated`); err == nil {
		t.Fatal("expected lexical error")
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.hxl")

	src := `name = "from-file"`

	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := ConvertFile(context.Background(), path)
	if err != nil {
		t.Fatalf("convert file: %v", err)
	}

	if !strings.Contains(out, `name = "from-file"`) {
		t.Fatalf("output = %q", out)
	}
}

func TestConvertFileNotFound(t *testing.T) {
	_, err := ConvertFile(context.Background(), filepath.Join(t.TempDir(), "absent.hxl"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestConvertFileReadError(t *testing.T) {
	// A directory opens but does not read as a file.
	dir := t.TempDir()

	_, err := ConvertFile(context.Background(), dir)
	if err == nil {
		t.Fatal("expected read error")
	}

	if errors.Is(err, ErrFileNotFound) {
		t.Fatalf("directory read must not map to not-found: %v", err)
	}
}

func TestParseDocument(t *testing.T) {
	src := `
type Widget {
  name: string
}

count = 3
`

	root, reg, err := ParseDocument(src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(root.Stmts) != 2 {
		t.Fatalf("statements = %d, want 2", len(root.Stmts))
	}

	if !reg.Has("Widget") {
		t.Fatal("Widget not registered")
	}

	if reg.Has("ComputeInstance") {
		t.Fatal("builtins must not load with WithoutBuiltins")
	}
}

func TestLoadCatalogObjectDefaultOrder(t *testing.T) {
	catalog := []byte(`
types:
  - name: Tagged
    fields:
      - name: labels
        type: map
        default:
          zone: edge
          app: web
          env: prod
`)

	reg := NewRegistry()
	if err := LoadCatalog(reg, catalog); err != nil {
		t.Fatalf("load: %v", err)
	}

	fields, err := reg.AllFields("Tagged")
	if err != nil {
		t.Fatalf("all fields: %v", err)
	}

	obj, ok := fields[0].Default.(*Object)
	if !ok {
		t.Fatalf("default = %T, want *Object", fields[0].Default)
	}

	// Keys keep the catalog document's order.
	want := []string{"zone", "app", "env"}

	keys := obj.Keys()
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestLoadBuiltins(t *testing.T) {
	reg := NewRegistry()

	if err := LoadBuiltins(reg); err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, name := range []string{
		"CloudResource",
		"ComputeInstance",
		"StorageBucket",
		"Database",
		"NetworkService",
		"DNSRecord",
		"LoadBalancer",
	} {
		if !reg.Has(name) {
			t.Errorf("builtin %s missing", name)
		}
	}

	fields, err := reg.AllFields("Database")
	if err != nil {
		t.Fatalf("all fields: %v", err)
	}

	// Ancestors first: CloudResource's provider/region/tags precede the
	// engine field.
	if fields[0].Name != "provider" {
		t.Errorf("first field = %q, want provider", fields[0].Name)
	}
}
