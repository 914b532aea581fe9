package style_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/tomoya-namekawa/tf-style-check/internal/extract"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/style"
	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// parseFile builds the extractor output for an inline fixture.
func parseFile(t *testing.T, content string) *types.File {
	t.Helper()
	endsWithNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if endsWithNewline {
		lines = lines[:len(lines)-1]
	}
	f, err := extract.Parse(&types.SourceFile{
		Path:            "test.tf",
		Dir:             ".",
		Lines:           lines,
		EndsWithNewline: endsWithNewline,
	})
	if err != nil {
		t.Fatalf("fixture failed to parse: %v", err)
	}
	return f
}

type finding struct {
	line    int
	message string
}

// collect adapts a check function into a slice of findings.
func collect(check func(*types.File, style.Reporter), f *types.File) []finding {
	var out []finding
	check(f, func(line int, message string) {
		out = append(out, finding{line: line, message: message})
	})
	return out
}

// lines returns the finding lines in ascending order. Individual checks
// report in walk order; only the runner's final ordering is sorted, so
// tests compare line sets.
func lines(findings []finding) []int {
	out := make([]int, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.line)
	}
	sort.Ints(out)
	return out
}

// messageAt returns the message of the finding on the given line.
func messageAt(t *testing.T, findings []finding, line int) string {
	t.Helper()
	for _, f := range findings {
		if f.line == line {
			return f.message
		}
	}
	t.Fatalf("no finding on line %d", line)
	return ""
}
