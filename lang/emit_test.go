package lang

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

func convertSource(t *testing.T, src string) string {
	t.Helper()

	out, err := Convert(context.Background(), src, WithoutBuiltins())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	return out
}

// normalize collapses whitespace for shape comparisons.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestEmitForLoop(t *testing.T) {
	src := `
resource "aws_instance" "cluster" {
  for i in range(1, 3) {
    name = "web-${i}"
  }
}
`

	out := convertSource(t, src)

	want := `resource "aws_instance" "cluster" {
  dynamic "i" {
    for_each = range(1, 3)
    content {
      name = "web-${i}"
    }
  }
}
`

	if out != want {
		t.Fatalf("output mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestEmitConditional(t *testing.T) {
	src := `
if var.enabled {
  count = 1
} else {
  count = 0
}
`

	out := convertSource(t, src)

	for _, want := range []string{
		`dynamic "conditional" {`,
		`for_each = var.enabled ? [1] : []`,
		`count = 1`,
		`else {`,
		`count = 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmitSwitch(t *testing.T) {
	src := `
switch var.environment {
  case "prod" {
    instance_type = "m5.large"
  }
  default {
    instance_type = "t2.micro"
  }
}
`

	out := convertSource(t, src)

	got := normalize(out)
	want := normalize(`var.environment == "prod" ? {
  instance_type = "m5.large"
} : {
  instance_type = "t2.micro"
}`)

	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEmitSwitchWithoutDefault(t *testing.T) {
	src := `
switch var.env {
  case "prod" { x = 1 }
}
`

	out := convertSource(t, src)

	if !strings.HasSuffix(strings.TrimSpace(out), ": {}") {
		t.Fatalf("missing empty-object fallback:\n%s", out)
	}
}

func TestEmitFunctionLocals(t *testing.T) {
	src := `
function make_tags(env: string) {
  return { Environment: env, ManagedBy: "transpiler" }
}

resource "aws_instance" "web" {
  tags = local.make_tags
}
`

	out := convertSource(t, src)

	if !strings.Contains(out, "locals {") {
		t.Fatalf("locals block missing:\n%s", out)
	}

	if !strings.Contains(out, "make_tags = {") {
		t.Fatalf("function binding missing:\n%s", out)
	}

	// Attribute access is never inlined.
	if !strings.Contains(out, "tags = local.make_tags") {
		t.Fatalf("reference must pass through unevaluated:\n%s", out)
	}

	// locals precede the resource that references them.
	if strings.Index(out, "locals {") > strings.Index(out, "resource ") {
		t.Fatalf("locals must precede the resource:\n%s", out)
	}
}

func TestEmitCallInlining(t *testing.T) {
	src := `
function port_of(env) {
  return env == "prod" ? 443 : 8080
}

listen = port_of("prod")
fallback = port_of(unknowable.ref)
`

	out := convertSource(t, src)

	if !strings.Contains(out, "listen = 443") {
		t.Errorf("static call not inlined:\n%s", out)
	}

	// unknowable.ref stringifies through the naive attribute rule, so the
	// comparison still evaluates; the call inlines to the else branch.
	if !strings.Contains(out, "fallback = 8080") {
		t.Errorf("dotted-argument call did not inline:\n%s", out)
	}
}

func TestEmitCallFallback(t *testing.T) {
	src := `x = cidrsubnet(var.base, 8, 2)`

	out := convertSource(t, src)

	if !strings.Contains(out, "x = cidrsubnet(var.base, 8, 2)") {
		t.Fatalf("unknown call must emit syntactically:\n%s", out)
	}
}

func TestEmitLists(t *testing.T) {
	src := `
scalars = [1, "two", true, null, name]
nested = [[1, 2], 3]
`

	out := convertSource(t, src)

	if !strings.Contains(out, `scalars = [1, "two", true, null, name]`) {
		t.Errorf("scalar list must render inline:\n%s", out)
	}

	for _, want := range []string{"nested = [\n", "[1, 2],\n", "3,\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("nested list missing %q:\n%s", want, out)
		}
	}
}

func TestEmitObjectKeys(t *testing.T) {
	src := `meta = { plain: 1, "with space": 2, "with-dash": 3 }`

	out := convertSource(t, src)

	for _, want := range []string{
		"plain = 1",
		`"with space" = 2`,
		"with-dash = 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmitDeploymentMappings(t *testing.T) {
	src := `
deployment "prod" {
  web maps_to "frontend-pool"
  api maps_to "backend-pool"
  replicas = 3
}
`

	out := convertSource(t, src)

	want := `deployment "prod" {
  mappings = {
    web = "frontend-pool"
    api = "backend-pool"
  }
  replicas = 3
}
`

	if out != want {
		t.Fatalf("output mismatch:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestEmitRawBlockVerbatim(t *testing.T) {
	src := `containers {
  web { image = "nginx:1.25" }
}`

	out := convertSource(t, src)

	if !strings.Contains(out, `web { image = "nginx:1.25" }`) {
		t.Fatalf("raw text not preserved verbatim:\n%s", out)
	}
}

func TestEmitBlankLineSeparation(t *testing.T) {
	src := `
a = 1
b = 2
`

	out := convertSource(t, src)

	if out != "a = 1\n\nb = 2\n" {
		t.Fatalf("top-level separation wrong: %q", out)
	}
}

func TestEmitStringEscaping(t *testing.T) {
	src := `msg = "line1\nline2 \"quoted\""`

	out := convertSource(t, src)

	if !strings.Contains(out, `msg = "line1\nline2 \"quoted\""`) {
		t.Fatalf("escaping mismatch:\n%s", out)
	}
}

func TestEmitNestedDynamicOrder(t *testing.T) {
	src := `
resource "aws_instance" "grid" {
  for region in regions {
    for az in zones {
      if az != "excluded" {
        name = "node-${region}-${az}"
      }
    }
  }
}
`

	out := convertSource(t, src)

	regionIdx := strings.Index(out, `dynamic "region"`)
	azIdx := strings.Index(out, `dynamic "az"`)
	condIdx := strings.Index(out, `dynamic "conditional"`)

	if regionIdx < 0 || azIdx < 0 || condIdx < 0 {
		t.Fatalf("missing dynamic wrappers:\n%s", out)
	}

	if !(regionIdx < azIdx && azIdx < condIdx) {
		t.Fatalf("nesting order wrong:\n%s", out)
	}
}

func TestEmitValidHCL(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "expanded resource",
			src: typeDecls + `
resource "aws_instance" "web" {
  type = Instance
  name = "web-1"
}
`,
		},
		{
			name: "nested dynamics",
			src: `
resource "aws_instance" "grid" {
  for region in regions {
    if region != "excluded" {
      name = "node-${region}"
    }
  }
}
`,
		},
		{
			name: "locals and variables",
			src: `
variable "region" {
  default = "us-east-1"
}

function make_tags(env) {
  return { Environment: env }
}

output "endpoint" {
  value = var.endpoint
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := convertSource(t, tt.src)

			_, diags := hclsyntax.ParseConfig(
				[]byte(out), "out.hcl", hcl.Pos{Line: 1, Column: 1})
			if diags.HasErrors() {
				t.Fatalf("emitted text is not valid HCL: %v\n%s", diags, out)
			}
		})
	}
}
