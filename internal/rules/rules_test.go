package rules_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/style"
)

// The catalog binds style checks directly; keep the signature match
// compile-checked.
var (
	_ rules.CheckFunc = style.CheckInstanceNaming
	_ rules.CheckFunc = style.CheckAlignment
	_ rules.CheckFunc = style.CheckParameterSpacing
)

func TestAllCatalog(t *testing.T) {
	catalog := rules.All(rules.Options{})

	if len(catalog) != 17 {
		t.Fatalf("Expected 17 rules, got %d", len(catalog))
	}
	if !sort.SliceIsSorted(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID }) {
		t.Error("Catalog is not sorted by rule id")
	}

	seen := make(map[string]bool)
	for _, d := range catalog {
		if seen[d.ID] {
			t.Errorf("Duplicate rule id %s", d.ID)
		}
		seen[d.ID] = true

		if (d.Check == nil) == (d.CheckDir == nil) {
			t.Errorf("Rule %s must bind exactly one check function", d.ID)
		}
		if d.ID == rules.ParseRuleID {
			t.Errorf("Pseudo rule id %s must not be registered", d.ID)
		}
	}
}

func TestValidateFilters(t *testing.T) {
	catalog := rules.All(rules.Options{})

	if err := rules.ValidateFilters(catalog, []string{"style", "safety"}, []string{"ST.007"}); err != nil {
		t.Errorf("Valid filters rejected: %v", err)
	}

	err := rules.ValidateFilters(catalog, []string{"styling"}, nil)
	if err == nil || !strings.Contains(err.Error(), `unknown category "styling"`) {
		t.Errorf("Expected unknown category error, got %v", err)
	}

	err = rules.ValidateFilters(catalog, nil, []string{"ZZ.999"})
	if err == nil || !strings.Contains(err.Error(), `unknown rule id "ZZ.999"`) {
		t.Errorf("Expected unknown rule id error, got %v", err)
	}
}

func TestSelected(t *testing.T) {
	catalog := rules.All(rules.Options{})

	picked := rules.Selected(catalog, []string{"style"}, []string{"ST.004"})
	for _, d := range picked {
		if d.Category != "style" {
			t.Errorf("Rule %s leaked through the category filter", d.ID)
		}
		if d.ID == "ST.004" {
			t.Error("Excluded rule survived selection")
		}
	}
	if len(picked) != 9 {
		t.Errorf("Expected 9 style rules after exclusion, got %d", len(picked))
	}

	all := rules.Selected(catalog, nil, nil)
	if len(all) != len(catalog) {
		t.Errorf("Empty filters must keep the full catalog: %d != %d", len(all), len(catalog))
	}
}
