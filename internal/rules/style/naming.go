// Package style implements the single-file formatting rules. Every check
// is a pure function of one file's block tree and raw lines; heredoc body
// lines are always skipped.
package style

import (
	"fmt"
	"regexp"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Reporter receives one finding on one line of the file under check. The
// alias keeps checks assignable to the registry's check-function type.
type Reporter = func(line int, message string)

// InstanceLabel is the fixed name label every resource and data source
// must use.
const InstanceLabel = "this"

var identifierRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CheckInstanceNaming requires resource and data-source name labels to
// equal the fixed token.
func CheckInstanceNaming(f *types.File, report Reporter) {
	f.Root.Walk(func(b *types.Block) {
		if b.Kind != types.KindResource && b.Kind != types.KindData {
			return
		}
		if b.NameLabel != InstanceLabel {
			report(b.StartLine(), fmt.Sprintf("%s name label must be %q, got %q", b.Kind, InstanceLabel, b.NameLabel))
		}
	})
}

// CheckIdentifierNaming requires variable and output names to be
// lower_snake_case identifiers that do not start with an underscore.
func CheckIdentifierNaming(f *types.File, report Reporter) {
	f.Root.Walk(func(b *types.Block) {
		if b.Kind != types.KindVariable && b.Kind != types.KindOutput {
			return
		}
		if !identifierRe.MatchString(b.NameLabel) {
			report(b.StartLine(), fmt.Sprintf("%s name %q must match [a-z][a-z0-9_]*", b.Kind, b.NameLabel))
		}
	})
}

// CheckLabelQuoting requires every block type and name label to be
// double-quoted. Bare structure keywords (lifecycle, ingress, ...) carry
// no labels and are exempt.
func CheckLabelQuoting(f *types.File, report Reporter) {
	f.Root.Walk(func(b *types.Block) {
		switch b.Kind {
		case types.KindRoot, types.KindStructure, types.KindLocals, types.KindTerraform:
			return
		case types.KindResource, types.KindData, types.KindDynamic:
			if b.TypeLabel != "" && !b.TypeQuoted {
				report(b.StartLine(), fmt.Sprintf("type label %q must be double-quoted", b.TypeLabel))
			}
		}
		if b.NameLabel != "" && !b.NameQuoted {
			report(b.StartLine(), fmt.Sprintf("name label %q must be double-quoted", b.NameLabel))
		}
	})
}
