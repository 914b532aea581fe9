package safety

import (
	"fmt"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// sensitiveExact and sensitiveSubstrings define the built-in name
// patterns that mark a variable as carrying sensitive data. Extra
// substrings can be added from configuration.
var (
	sensitiveExact      = map[string]bool{"email": true, "access_key": true}
	sensitiveSubstrings = []string{"password", "phone", "secret", "credential"}
)

// NewSensitiveCheck builds the sensitive-declaration rule: variables
// whose names match the pattern set must declare sensitive = true.
// Spacing around the assignment does not matter; the flag just has to be
// present and true.
func NewSensitiveCheck(extraSubstrings []string) func(f *types.File, report func(line int, message string)) {
	substrings := make([]string, 0, len(sensitiveSubstrings)+len(extraSubstrings))
	substrings = append(substrings, sensitiveSubstrings...)
	substrings = append(substrings, extraSubstrings...)

	return func(f *types.File, report func(line int, message string)) {
		f.Root.Walk(func(b *types.Block) {
			if b.Kind != types.KindVariable {
				return
			}
			if !sensitiveName(b.NameLabel, substrings) {
				return
			}
			if p := b.Param("sensitive"); p != nil && strings.TrimSpace(p.RawValue) == "true" {
				return
			}
			report(b.StartLine(), fmt.Sprintf("variable %q looks sensitive and must set sensitive = true", b.NameLabel))
		})
	}
}

func sensitiveName(name string, substrings []string) bool {
	if sensitiveExact[name] {
		return true
	}
	for _, sub := range substrings {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}
