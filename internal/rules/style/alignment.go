package style

import (
	"fmt"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// CheckAlignment verifies that "=" signs line up within each alignment
// section of a block's immediate parameter list and that exactly one
// space follows each "=". Sections are split by true blank lines (comment
// gaps do not split) and by entry into or exit from nested collection
// literals, so each nested object aligns independently. Lines that the
// tab or indentation rules already flag are exempt here to avoid
// duplicate noise; quote characters count toward a name's width.
func CheckAlignment(f *types.File, report Reporter) {
	f.Root.Walk(func(b *types.Block) {
		for _, section := range alignmentSections(f, b) {
			checkSection(f, b, section, report)
		}
		checkInlineParams(f, b, report)
	})
}

// checkInlineParams covers parameters written on the block header line
// itself. They have no canonical column, but the single-space convention
// around "=" still applies.
func checkInlineParams(f *types.File, b *types.Block, report Reporter) {
	if b.Kind == types.KindRoot {
		return
	}
	for _, p := range b.Params {
		if p.Line != b.StartLine() {
			continue
		}
		line := f.Source.Line(p.Line)
		brace := strings.IndexByte(line, '{')
		eq := strings.IndexByte(line[brace+1:], '=')
		if eq < 0 {
			continue
		}
		eq += brace + 1
		if !surroundedBySingleSpace(line, eq) {
			report(p.Line, fmt.Sprintf("expected a single space on each side of %q", "="))
		}
	}
}

func surroundedBySingleSpace(line string, i int) bool {
	before := i >= 1 && line[i-1] == ' ' && (i < 2 || line[i-2] != ' ')
	after := i+1 < len(line) && line[i+1] == ' ' && (i+2 >= len(line) || line[i+2] != ' ')
	return before && after
}

// alignmentSections partitions a block's parameters into alignment units.
func alignmentSections(f *types.File, b *types.Block) [][]*types.Parameter {
	var sections [][]*types.Parameter
	var current []*types.Parameter

	flush := func() {
		if len(current) > 0 {
			sections = append(sections, current)
			current = nil
		}
	}

	for _, p := range b.Params {
		if p.Line == b.StartLine() && b.Kind != types.KindRoot {
			continue // inline one-liner bodies are not alignable
		}
		if len(current) > 0 {
			prev := current[len(current)-1]
			if p.Nesting != prev.Nesting ||
				blankBetween(f, prev.Line, p.Line) ||
				childBlockBetween(b, prev.Line, p.Line) {
				flush()
			}
		}
		current = append(current, p)
	}
	flush()
	return sections
}

func checkSection(f *types.File, b *types.Block, section []*types.Parameter, report Reporter) {
	if len(section) == 0 {
		return
	}
	indent := expectedIndent(b, section[0])

	// Column width M: longest name in the section, quotes included.
	width := 0
	var eligible []*types.Parameter
	for _, p := range section {
		if exemptFromAlignment(f.Source.Line(p.Line), indent) {
			continue
		}
		eligible = append(eligible, p)
		if w := nameWidth(p); w > width {
			width = w
		}
	}

	expectedEq := indent + width + 1
	for _, p := range eligible {
		line := f.Source.Line(p.Line)
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		if eq != expectedEq {
			report(p.Line, fmt.Sprintf("expected %q at column %d, found at column %d", "=", expectedEq+1, eq+1))
			continue
		}
		rest := line[eq+1:]
		if !strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "  ") {
			report(p.Line, fmt.Sprintf("expected exactly one space after %q", "="))
		}
	}
}

func nameWidth(p *types.Parameter) int {
	w := len(p.Name)
	if p.QuotedName {
		w += 2
	}
	return w
}

// expectedIndent is the canonical indentation of a parameter line: two
// spaces per nesting level, counting the owning block and any enclosing
// collection literals. Root-owned parameters (tfvars) sit at column one.
func expectedIndent(b *types.Block, p *types.Parameter) int {
	return 2 * (b.Depth + 1 + p.Nesting)
}

func exemptFromAlignment(line string, indent int) bool {
	if strings.ContainsRune(line, '\t') {
		return true
	}
	return leadingSpaces(line) != indent
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// blankBetween reports whether a true blank line separates lines a and b
// (exclusive). Comment-only lines do not split sections.
func blankBetween(f *types.File, a, b int) bool {
	for n := a + 1; n < b; n++ {
		if f.InHeredoc(n) {
			continue
		}
		if strings.TrimSpace(f.Source.Line(n)) == "" {
			return true
		}
	}
	return false
}

// childBlockBetween reports whether one of b's child blocks starts
// between lines a and b (exclusive), which breaks parameter contiguity.
func childBlockBetween(b *types.Block, a, c int) bool {
	for _, child := range b.Children {
		if child.StartLine() > a && child.StartLine() < c {
			return true
		}
	}
	return false
}
