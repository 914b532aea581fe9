package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// CheckBlockSpacing requires exactly one blank line between distinct
// top-level blocks and at most one between same-named nested structure or
// dynamic blocks. Comment-only lines never satisfy the requirement.
func CheckBlockSpacing(f *types.File, report Reporter) {
	children := f.Root.Children
	for i := 1; i < len(children); i++ {
		prev, next := children[i-1], children[i]
		if blanks := blankCount(f, prev.EndLine(), next.StartLine()); blanks != 1 {
			report(next.StartLine(), fmt.Sprintf("expected exactly one blank line between top-level blocks, found %d", blanks))
		}
	}

	f.Root.Walk(func(b *types.Block) {
		if b.Kind == types.KindRoot {
			return
		}
		for i := 1; i < len(b.Children); i++ {
			prev, next := b.Children[i-1], b.Children[i]
			if !sameNamedStructure(prev, next) {
				continue
			}
			if blanks := blankCount(f, prev.EndLine(), next.StartLine()); blanks > 1 {
				report(next.StartLine(), fmt.Sprintf("at most one blank line between %q blocks, found %d", next.TypeLabel, blanks))
			}
		}
	})
}

func sameNamedStructure(a, b *types.Block) bool {
	structural := func(k types.BlockKind) bool {
		return k == types.KindStructure || k == types.KindDynamic
	}
	return structural(a.Kind) && structural(b.Kind) && a.TypeLabel == b.TypeLabel
}

// entry is one construct inside a block for spacing purposes: a parameter
// or a nested block, keyed by its spacing kind.
type entry struct {
	startLine int
	lastLine  int
	kind      string
}

// CheckParameterSpacing requires exactly one blank line between adjacent
// entries of a block whose kinds differ (scalar parameter, collection
// parameter, meta-parameter, nested block). Entries of the same kind may
// sit together.
func CheckParameterSpacing(f *types.File, report Reporter) {
	f.Root.Walk(func(b *types.Block) {
		for _, p := range b.Params {
			if p.Line == b.StartLine() && b.Kind != types.KindRoot {
				report(p.Line, fmt.Sprintf("parameter %q must start on its own line", p.Name))
			}
		}
		entries := spacingEntries(b)
		for i := 1; i < len(entries); i++ {
			prev, next := entries[i-1], entries[i]
			if prev.kind == next.kind {
				continue
			}
			if blanks := blankCount(f, prev.lastLine, next.startLine); blanks != 1 {
				report(next.startLine, fmt.Sprintf("expected exactly one blank line between %s and %s entries, found %d", prev.kind, next.kind, blanks))
			}
		}
	})
}

func spacingEntries(b *types.Block) []entry {
	var entries []entry
	for _, p := range b.Params {
		if p.Nesting > 0 || (p.Line == b.StartLine() && b.Kind != types.KindRoot) {
			continue
		}
		kind := string(p.Shape)
		if p.Meta {
			kind = "meta"
		}
		entries = append(entries, entry{startLine: p.Line, lastLine: p.EndLine, kind: kind})
	}
	for _, c := range b.Children {
		entries = append(entries, entry{startLine: c.StartLine(), lastLine: c.EndLine(), kind: "block"})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].startLine < entries[j].startLine })
	return entries
}

// blankCount counts true blank lines strictly between lines a and b.
// Comment lines are not blank and do not reset the count.
func blankCount(f *types.File, a, b int) int {
	count := 0
	for n := a + 1; n < b; n++ {
		if f.InHeredoc(n) {
			continue
		}
		if strings.TrimSpace(f.Source.Line(n)) == "" {
			count++
		}
	}
	return count
}
