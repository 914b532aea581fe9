package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/style"
)

func TestCheckBlockSpacing(t *testing.T) {
	f := parseFile(t, `resource "aws_instance" "this" {
  ami = "a"
}
variable "instance_type" {
  type = string
}


output "id" {
  value = 1
}
`)

	got := collect(style.CheckBlockSpacing, f)
	assert.Equal(t, []int{4, 9}, lines(got))
	assert.Contains(t, messageAt(t, got, 4), "found 0")
	assert.Contains(t, messageAt(t, got, 9), "found 2")
}

func TestCheckBlockSpacingNestedSameName(t *testing.T) {
	f := parseFile(t, `resource "aws_security_group" "this" {
  ingress {
    from_port = 80
  }


  ingress {
    from_port = 443
  }
  egress {
    to_port = 0
  }
}
`)

	got := collect(style.CheckBlockSpacing, f)
	assert.Equal(t, []int{7}, lines(got))
	assert.Contains(t, got[0].message, `at most one blank line between "ingress" blocks`)
}

func TestCheckParameterSpacing(t *testing.T) {
	f := parseFile(t, `resource "aws_instance" "this" {
  count = 2
  ami   = "a"

  tags = {
    Name = "x"
  }
  lifecycle {
    create_before_destroy = true
  }
}
`)

	got := collect(style.CheckParameterSpacing, f)
	assert.Equal(t, []int{3, 8}, lines(got))
	assert.Contains(t, messageAt(t, got, 3), "expected exactly one blank line between meta and scalar entries")
	assert.Contains(t, messageAt(t, got, 8), "between collection and block entries")
}

func TestCheckParameterSpacingInlineBody(t *testing.T) {
	f := parseFile(t, `locals { x = 1 }
`)

	got := collect(style.CheckParameterSpacing, f)
	assert.Equal(t, []int{1}, lines(got))
	assert.Contains(t, got[0].message, `parameter "x" must start on its own line`)
}

func TestCheckParameterSpacingMultilineCollection(t *testing.T) {
	f := parseFile(t, `resource "aws_instance" "this" {
  ami = "a"

  tags = {
    Name = "web"

    Team = "core"
  }
  instance_type = "t3.micro"
}
`)

	got := collect(style.CheckParameterSpacing, f)
	assert.Equal(t, []int{9}, lines(got))
	assert.Contains(t, got[0].message, "between collection and scalar entries, found 0")
}

func TestCheckParameterSpacingSameKindTogether(t *testing.T) {
	f := parseFile(t, `resource "aws_instance" "this" {
  ami           = "a"
  instance_type = "t2.micro"

  tags = {
    Name = "x"
  }
  vars = {
    env = "dev"
  }
}
`)

	assert.Empty(t, collect(style.CheckParameterSpacing, f))
}
