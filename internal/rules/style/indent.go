package style

import (
	"fmt"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// CheckIndentation verifies the two-spaces-per-level convention: block
// headers and closing braces at 2*depth, parameters one level deeper
// (plus collection nesting). tfvars top-level assignments sit at column
// one. Lines containing tabs are exempt (the tab rule owns those) and
// heredoc bodies are never checked.
func CheckIndentation(f *types.File, report Reporter) {
	checked := make(map[int]bool)

	check := func(line int, expected int) {
		if checked[line] || f.InHeredoc(line) {
			return
		}
		text := f.Source.Line(line)
		if strings.TrimSpace(text) == "" || strings.ContainsRune(text, '\t') {
			return
		}
		checked[line] = true
		if got := leadingSpaces(text); got != expected {
			report(line, fmt.Sprintf("expected %d spaces of indentation, found %d", expected, got))
		}
	}

	f.Root.Walk(func(b *types.Block) {
		if b.Kind == types.KindRoot {
			return
		}
		check(b.StartLine(), 2*b.Depth)
		if b.EndLine() > b.StartLine() {
			check(b.EndLine(), 2*b.Depth)
		}
	})

	f.Root.Walk(func(b *types.Block) {
		for _, p := range b.Params {
			if p.Line == b.StartLine() && b.Kind != types.KindRoot {
				continue // inline bodies have no indentation of their own
			}
			check(p.Line, expectedIndent(b, p))
		}
	})
}

// CheckTabs flags every line containing a tab character. Tab-bearing
// lines are exempt from the level check above so each line is reported
// only once.
func CheckTabs(f *types.File, report Reporter) {
	for n := 1; n <= f.Source.LineCount(); n++ {
		if f.InHeredoc(n) {
			continue
		}
		if strings.ContainsRune(f.Source.Line(n), '\t') {
			report(n, "tab character found; use spaces for indentation")
		}
	}
}

// CheckTrailingWhitespace flags lines ending in spaces or tabs.
func CheckTrailingWhitespace(f *types.File, report Reporter) {
	for n := 1; n <= f.Source.LineCount(); n++ {
		if f.InHeredoc(n) {
			continue
		}
		line := f.Source.Line(n)
		if line != strings.TrimRight(line, " \t") {
			report(n, "trailing whitespace")
		}
	}
}

// CheckFileEdges requires the first line to be non-blank and the file to
// end with exactly one trailing newline.
func CheckFileEdges(f *types.File, report Reporter) {
	total := f.Source.LineCount()
	if total == 0 {
		return
	}
	if strings.TrimSpace(f.Source.Line(1)) == "" {
		report(1, "file must not begin with a blank line")
	}
	switch {
	case !f.Source.EndsWithNewline:
		report(total, "file must end with a newline")
	case strings.TrimSpace(f.Source.Line(total)) == "":
		report(total, "file must end with exactly one newline")
	}
}
