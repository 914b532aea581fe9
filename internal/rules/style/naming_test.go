package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/style"
)

func TestCheckInstanceNaming(t *testing.T) {
	f := parseFile(t, `resource "aws_instance" "web" {
  ami = "a"
}

data "aws_ami" "this" {
  owners = ["self"]
}

resource "aws_s3_bucket" "this" {
  bucket = "b"
}
`)

	got := collect(style.CheckInstanceNaming, f)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, got[0].line)
	assert.Contains(t, got[0].message, `must be "this"`)
	assert.Contains(t, got[0].message, `"web"`)
}

func TestCheckIdentifierNaming(t *testing.T) {
	f := parseFile(t, `variable "InstanceType" {
  type = string
}

variable "_hidden" {
  type = string
}

variable "instance_type2" {
  type = string
}

output "BadOut" {
  value = 1
}
`)

	got := collect(style.CheckIdentifierNaming, f)
	assert.Equal(t, []int{1, 5, 13}, lines(got))
	for _, v := range got {
		assert.Contains(t, v.message, "[a-z][a-z0-9_]*")
	}
}

func TestCheckLabelQuoting(t *testing.T) {
	f := parseFile(t, `resource aws_instance "this" {
  ami = "a"
}

variable count_of {
  type = number
}

resource "aws_instance" "this" {
  lifecycle {
    create_before_destroy = true
  }
}

locals {
  x = 1
}
`)

	got := collect(style.CheckLabelQuoting, f)
	assert.Equal(t, []int{1, 5}, lines(got))
	assert.Contains(t, got[0].message, `type label "aws_instance"`)
	assert.Contains(t, got[1].message, `name label "count_of"`)
}

func TestCheckLabelQuotingDynamic(t *testing.T) {
	f := parseFile(t, `resource "aws_security_group" "this" {
  dynamic ingress {
    content {
      from_port = 80
    }
  }
}
`)

	got := collect(style.CheckLabelQuoting, f)
	assert.Equal(t, []int{2}, lines(got))
	assert.Contains(t, got[0].message, `"ingress"`)
}
