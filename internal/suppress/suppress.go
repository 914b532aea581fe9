// Package suppress tracks inline rule suppression directives. Directives
// are purely lexical comments, so the scan is independent of the block
// extractor and keeps working inside otherwise-invalid configuration.
package suppress

import (
	"math"
	"regexp"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// directive lines look like:
//
//	# ST.004 Disable
//	# ST.004 Enable
//
// The rule id token is matched case-sensitively and must be exact.
var directiveRe = regexp.MustCompile(`^\s*#\s*(\S+)\s+(Disable|Enable)\s*$`)

// Range is a closed line interval [Start, End] in which one rule is
// inactive. An unclosed range runs to end of file.
type Range struct {
	Start int
	End   int
}

// Map holds per-rule suppression ranges for one file. It is built in a
// single pass and read-only afterwards, so concurrent rule execution may
// share it. It never outlives the file scan that created it.
type Map map[string][]Range

// Scan walks the file top to bottom and collects suppression ranges.
// A Disable opens a range for its rule id starting on the next line; the
// matching Enable closes it inclusive of the Enable line itself.
// Re-disabling an already-open id is a no-op keeping the earliest start.
// Distinct rule ids may be open simultaneously.
func Scan(src *types.SourceFile) Map {
	m := make(Map)
	open := make(map[string]int) // rule id -> index into m[id] of the open range

	for n := 1; n <= src.LineCount(); n++ {
		d := directiveRe.FindStringSubmatch(src.Line(n))
		if d == nil {
			continue
		}
		id, verb := d[1], d[2]

		switch verb {
		case "Disable":
			if _, already := open[id]; already {
				continue
			}
			m[id] = append(m[id], Range{Start: n + 1, End: math.MaxInt})
			open[id] = len(m[id]) - 1
		case "Enable":
			idx, ok := open[id]
			if !ok {
				continue
			}
			m[id][idx].End = n
			delete(open, id)
		}
	}
	return m
}

// Suppressed reports whether ruleID is inactive on the given line.
func (m Map) Suppressed(ruleID string, line int) bool {
	for _, r := range m[ruleID] {
		if line >= r.Start && line <= r.End {
			return true
		}
	}
	return false
}
