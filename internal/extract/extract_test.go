package extract_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomoya-namekawa/tf-style-check/internal/extract"
	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

func sourceFromString(path, content string) *types.SourceFile {
	endsWithNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if endsWithNewline {
		lines = lines[:len(lines)-1]
	}
	return &types.SourceFile{
		Path:            path,
		Dir:             ".",
		Lines:           lines,
		EndsWithNewline: endsWithNewline,
	}
}

func mustParse(t *testing.T, content string) *types.File {
	t.Helper()
	f, err := extract.Parse(sourceFromString("test.tf", content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func TestParseBasicBlocks(t *testing.T) {
	f := mustParse(t, `resource "aws_instance" "this" {
  ami           = "ami-123456"
  instance_type = "t3.micro"

  tags = {
    Name = "web"
  }
}

variable "instance_count" {
  type    = number
  default = 1
}
`)

	if len(f.Root.Children) != 2 {
		t.Fatalf("Expected 2 top-level blocks, got %d", len(f.Root.Children))
	}

	res := f.Root.Children[0]
	if res.Kind != types.KindResource {
		t.Errorf("Expected resource kind, got %s", res.Kind)
	}
	if res.TypeLabel != "aws_instance" || !res.TypeQuoted {
		t.Errorf("Unexpected type label: %q (quoted=%v)", res.TypeLabel, res.TypeQuoted)
	}
	if res.NameLabel != "this" || !res.NameQuoted {
		t.Errorf("Unexpected name label: %q (quoted=%v)", res.NameLabel, res.NameQuoted)
	}
	if res.StartLine() != 1 || res.EndLine() != 8 {
		t.Errorf("Unexpected range: %d..%d", res.StartLine(), res.EndLine())
	}
	if res.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", res.Depth)
	}

	// ami, instance_type, tags, and the nested Name entry
	if len(res.Params) != 4 {
		t.Fatalf("Expected 4 parameters, got %d", len(res.Params))
	}
	tags := res.Param("tags")
	if tags == nil || tags.Shape != types.ShapeCollection {
		t.Errorf("tags should be a collection parameter: %+v", tags)
	}
	name := res.Param("Name")
	if name == nil || name.Nesting != 1 {
		t.Errorf("Name should sit at literal nesting 1: %+v", name)
	}

	v := f.Root.Children[1]
	if v.Kind != types.KindVariable || v.NameLabel != "instance_count" {
		t.Errorf("Unexpected variable block: %+v", v)
	}
}

func TestParseNestedBlocks(t *testing.T) {
	f := mustParse(t, `resource "aws_security_group" "this" {
  name = "web"

  ingress {
    from_port = 80
  }

  dynamic "egress" {
    for_each = var.rules

    content {
      from_port = egress.value
    }
  }
}
`)

	res := f.Root.Children[0]
	if len(res.Children) != 2 {
		t.Fatalf("Expected 2 child blocks, got %d", len(res.Children))
	}

	ingress := res.Children[0]
	if ingress.Kind != types.KindStructure || ingress.TypeLabel != "ingress" {
		t.Errorf("Unexpected ingress block: kind=%s type=%q", ingress.Kind, ingress.TypeLabel)
	}
	if ingress.Depth != 1 {
		t.Errorf("Expected ingress depth 1, got %d", ingress.Depth)
	}

	dyn := res.Children[1]
	if dyn.Kind != types.KindDynamic || dyn.TypeLabel != "egress" || !dyn.TypeQuoted {
		t.Errorf("Unexpected dynamic block: %+v", dyn)
	}
	if len(dyn.Children) != 1 || dyn.Children[0].TypeLabel != "content" {
		t.Errorf("dynamic block should own a content block")
	}
	fe := dyn.Param("for_each")
	if fe == nil || !fe.Meta {
		t.Errorf("for_each should be a meta parameter: %+v", fe)
	}
}

func TestParseInlineBlock(t *testing.T) {
	f := mustParse(t, `resource "x" "myname" { name="a" }
`)

	res := f.Root.Children[0]
	if res.NameLabel != "myname" {
		t.Errorf("Unexpected name label %q", res.NameLabel)
	}
	if res.StartLine() != 1 || res.EndLine() != 1 {
		t.Errorf("Inline block should start and end on line 1: %d..%d", res.StartLine(), res.EndLine())
	}
	if len(res.Params) != 1 || res.Params[0].Name != "name" {
		t.Fatalf("Inline body parameter not extracted: %+v", res.Params)
	}
}

func TestParseHeredoc(t *testing.T) {
	f := mustParse(t, `resource "aws_instance" "this" {
  user_data = <<-EOF
    #!/bin/bash
    echo "{ not a block }"
	tab and trailing
  EOF

  ami = "ami-123456"
}
`)

	res := f.Root.Children[0]
	if res.EndLine() != 9 {
		t.Errorf("Heredoc braces leaked into depth counting: end=%d", res.EndLine())
	}
	for n := 3; n <= 6; n++ {
		if !f.InHeredoc(n) {
			t.Errorf("Line %d should be part of the heredoc body", n)
		}
	}
	if f.InHeredoc(2) || f.InHeredoc(8) {
		t.Errorf("Heredoc body boundaries are wrong")
	}
	if res.Param("ami") == nil {
		t.Errorf("Parameter after heredoc was lost")
	}
}

func TestParseStringsAndComments(t *testing.T) {
	f := mustParse(t, `resource "aws_instance" "this" {
  # comment with { braces } and "quotes"
  name = "value with } brace and # hash"
  ami  = "ami-123456" # trailing comment
}
`)

	res := f.Root.Children[0]
	if res.EndLine() != 5 {
		t.Errorf("Braces inside strings/comments affected nesting: end=%d", res.EndLine())
	}
	name := res.Param("name")
	if name == nil || !strings.Contains(name.RawValue, "} brace") {
		t.Errorf("String value mangled: %+v", name)
	}
	ami := res.Param("ami")
	if ami == nil || strings.Contains(ami.RawValue, "trailing") {
		t.Errorf("Trailing comment not stripped from value: %+v", ami)
	}
}

func TestParseLabelsKeepStringContents(t *testing.T) {
	f := mustParse(t, `module "app # v2" {
  source = "./app"
}
`)

	m := f.Root.Children[0]
	if m.NameLabel != "app # v2" || !m.NameQuoted {
		t.Errorf("Unexpected module name: %q (quoted=%v)", m.NameLabel, m.NameQuoted)
	}
	if m.EndLine() != 3 {
		t.Errorf("Structural characters inside the label leaked: end=%d", m.EndLine())
	}
}

func TestParseMultilineCollectionValue(t *testing.T) {
	f := mustParse(t, `locals {
  azs = [
    for z in var.zones : z
  ]
  plain = "x"
  tags = {
    Name = "web"
  }
}
`)

	loc := f.Root.Children[0]
	azs := loc.Param("azs")
	if azs == nil || azs.Shape != types.ShapeCollection {
		t.Fatalf("azs should be a collection parameter: %+v", azs)
	}
	if azs.Line != 2 || azs.EndLine != 4 {
		t.Errorf("azs value range = %d..%d, want 2..4", azs.Line, azs.EndLine)
	}
	plain := loc.Param("plain")
	if plain == nil || plain.EndLine != plain.Line {
		t.Errorf("Single-line value range is wrong: %+v", plain)
	}
	tags := loc.Param("tags")
	if tags == nil || tags.Line != 6 || tags.EndLine != 8 {
		t.Errorf("tags value range = %d..%d, want 6..8", tags.Line, tags.EndLine)
	}
}

func TestParseTfvarsTopLevel(t *testing.T) {
	src := sourceFromString("terraform.tfvars", `instance_type = "t3.micro"
region        = "eu-west-1"
`)
	f, err := extract.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Root.Params) != 2 {
		t.Fatalf("Expected 2 top-level assignments, got %d", len(f.Root.Params))
	}
	if f.Root.Params[0].Name != "instance_type" || f.Root.Params[1].Line != 2 {
		t.Errorf("Unexpected top-level parameters: %+v", f.Root.Params)
	}
}

func TestParseUnterminatedBlock(t *testing.T) {
	_, err := extract.Parse(sourceFromString("bad.tf", `resource "x" "this" {
  name = "a"
`))
	if err == nil {
		t.Fatal("Expected parse error for unterminated block")
	}
	var pe *extract.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if pe.Line != 1 {
		t.Errorf("Error should point at the opening line, got %d", pe.Line)
	}
}

func TestParseStrayClosingBrace(t *testing.T) {
	_, err := extract.Parse(sourceFromString("bad.tf", "}\n"))
	if err == nil {
		t.Fatal("Expected parse error for stray closing brace")
	}
}

func TestParseUnterminatedHeredoc(t *testing.T) {
	_, err := extract.Parse(sourceFromString("bad.tf", `locals {
  s = <<EOF
  never closed
}
`))
	if err == nil {
		t.Fatal("Expected parse error for unterminated heredoc")
	}
}

// TestRangeContainment generates brace-balanced trees of varying shapes
// and verifies the structural invariants: every block's end line is at or
// after its start line, children are fully contained in their parents,
// and parameters fall inside their owning block.
func TestRangeContainment(t *testing.T) {
	// simple linear congruential generator for reproducibility
	seed := uint64(42)
	next := func(n int) int {
		seed = seed*6364136223846793005 + 1442695040888963407
		return int(seed>>33) % n
	}

	for round := 0; round < 50; round++ {
		var b strings.Builder
		var build func(depth, blocks int)
		build = func(depth, blocks int) {
			for i := 0; i < blocks; i++ {
				indent := strings.Repeat("  ", depth)
				fmt.Fprintf(&b, "%sblock%d {\n", indent, i)
				fmt.Fprintf(&b, "%s  attr = %d\n", indent, next(100))
				if depth < 4 && next(3) == 0 {
					build(depth+1, 1+next(2))
				}
				fmt.Fprintf(&b, "%s}\n", indent)
			}
		}
		build(0, 1+next(4))

		f, err := extract.Parse(sourceFromString("gen.tf", b.String()))
		if err != nil {
			t.Fatalf("round %d: generated input failed to parse: %v\n%s", round, err, b.String())
		}

		f.Root.Walk(func(blk *types.Block) {
			if blk.EndLine() < blk.StartLine() {
				t.Fatalf("round %d: end before start: %d..%d", round, blk.StartLine(), blk.EndLine())
			}
			for _, child := range blk.Children {
				if blk.Kind == types.KindRoot {
					continue
				}
				if child.StartLine() < blk.StartLine() || child.EndLine() > blk.EndLine() {
					t.Fatalf("round %d: child range %d..%d escapes parent %d..%d",
						round, child.StartLine(), child.EndLine(), blk.StartLine(), blk.EndLine())
				}
			}
			for _, p := range blk.Params {
				if blk.Kind != types.KindRoot && (p.Line < blk.StartLine() || p.Line > blk.EndLine()) {
					t.Fatalf("round %d: parameter line %d outside block %d..%d",
						round, p.Line, blk.StartLine(), blk.EndLine())
				}
			}
		})
	}
}
