// Package rules owns the rule catalog: descriptors with stable ids,
// categories, and severities, bound to their check functions. The table
// is enumerated explicitly at startup, with no reflection or dynamic
// registration, so the set of rules is a compile-time fact.
package rules

import (
	"fmt"
	"sort"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/crossfile"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/safety"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/style"
	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// ParseRuleID is the pseudo rule id used for extractor diagnostics. It is
// not part of the catalog and cannot be excluded or suppressed.
const ParseRuleID = "PARSE"

// CheckFunc is a single-file rule: pure over one file's block tree and
// raw lines, reporting findings by line.
type CheckFunc func(f *types.File, report func(line int, message string))

// DirCheckFunc is a cross-file rule: runs once per directory against the
// read-only index and attributes findings to a file and line.
type DirCheckFunc func(idx *crossfile.Index, report crossfile.Reporter)

// Descriptor is one registered rule. Exactly one of Check and CheckDir is
// set. Descriptors are registered once and never mutated.
type Descriptor struct {
	ID       string
	Name     string
	Category types.Category
	Severity types.Severity
	Check    CheckFunc
	CheckDir DirCheckFunc
}

// Options configure catalog construction.
type Options struct {
	// Oracle backs the provider version-compatibility rule; nil disables
	// the release-history verdict but keeps the static constraint checks.
	Oracle safety.VersionOracle
	// SensitivePatterns adds substrings to the sensitive-name set of the
	// declaration rule.
	SensitivePatterns []string
}

// All returns the full rule catalog in id order.
func All(opts Options) []Descriptor {
	table := []Descriptor{
		{ID: "ST.001", Name: "instance-naming", Category: types.CategoryStyle, Severity: types.SeverityError, Check: style.CheckInstanceNaming},
		{ID: "ST.002", Name: "identifier-naming", Category: types.CategoryStyle, Severity: types.SeverityError, Check: style.CheckIdentifierNaming},
		{ID: "ST.003", Name: "label-quoting", Category: types.CategoryStyle, Severity: types.SeverityError, Check: style.CheckLabelQuoting},
		{ID: "ST.004", Name: "equals-alignment", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckAlignment},
		{ID: "ST.005", Name: "indentation", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckIndentation},
		{ID: "ST.006", Name: "no-tabs", Category: types.CategoryStyle, Severity: types.SeverityError, Check: style.CheckTabs},
		{ID: "ST.007", Name: "trailing-whitespace", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckTrailingWhitespace},
		{ID: "ST.008", Name: "file-edges", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckFileEdges},
		{ID: "ST.010", Name: "block-spacing", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckBlockSpacing},
		{ID: "ST.011", Name: "parameter-spacing", Category: types.CategoryStyle, Severity: types.SeverityWarning, Check: style.CheckParameterSpacing},

		{ID: "CF.001", Name: "declaration-location", Category: types.CategoryCrossFile, Severity: types.SeverityError, CheckDir: crossfile.CheckLocation},
		{ID: "CF.002", Name: "required-tfvars", Category: types.CategoryCrossFile, Severity: types.SeverityError, CheckDir: crossfile.CheckRequiredDeclarations},
		{ID: "CF.003", Name: "usage-order", Category: types.CategoryCrossFile, Severity: types.SeverityWarning, CheckDir: crossfile.CheckUsageOrder},
		{ID: "CF.004", Name: "unused-variable", Category: types.CategoryCrossFile, Severity: types.SeverityWarning, CheckDir: crossfile.CheckUnusedVariables},

		{ID: "SF.001", Name: "unsafe-indexing", Category: types.CategorySafety, Severity: types.SeverityError, CheckDir: safety.CheckUnsafeIndexing},
		{ID: "SF.002", Name: "sensitive-declaration", Category: types.CategorySafety, Severity: types.SeverityError, Check: safety.NewSensitiveCheck(opts.SensitivePatterns)},
		{ID: "SF.003", Name: "provider-versions", Category: types.CategorySafety, Severity: types.SeverityWarning, CheckDir: safety.NewVersionCheck(opts.Oracle)},
	}

	sort.Slice(table, func(i, j int) bool { return table[i].ID < table[j].ID })
	return table
}

// Categories lists the selectable rule categories.
func Categories() []types.Category {
	return []types.Category{types.CategoryStyle, types.CategoryCrossFile, types.CategorySafety}
}

// ValidateFilters rejects unknown categories and unknown excluded rule
// ids before any file is processed.
func ValidateFilters(catalog []Descriptor, categories []string, excluded []string) error {
	valid := make(map[string]bool)
	for _, c := range Categories() {
		valid[string(c)] = true
	}
	for _, c := range categories {
		if !valid[c] {
			return fmt.Errorf("unknown category %q (valid: style, crossfile, safety)", c)
		}
	}

	ids := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		ids[d.ID] = true
	}
	for _, id := range excluded {
		if !ids[id] {
			return fmt.Errorf("unknown rule id %q in exclusion list", id)
		}
	}
	return nil
}

// Selected applies category inclusion (empty means all) and rule id
// exclusion to the catalog.
func Selected(catalog []Descriptor, categories []string, excluded []string) []Descriptor {
	catSet := make(map[string]bool, len(categories))
	for _, c := range categories {
		catSet[c] = true
	}
	exSet := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		exSet[id] = true
	}

	var out []Descriptor
	for _, d := range catalog {
		if len(catSet) > 0 && !catSet[string(d.Category)] {
			continue
		}
		if exSet[d.ID] {
			continue
		}
		out = append(out, d)
	}
	return out
}
