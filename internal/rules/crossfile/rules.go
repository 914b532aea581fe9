package crossfile

import (
	"fmt"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Reporter receives one cross-file finding attributed to a file and line.
type Reporter func(path string, line int, message string)

// CheckLocation flags variable and output blocks declared outside their
// canonical files.
func CheckLocation(idx *Index, report Reporter) {
	for _, f := range idx.Files {
		base := BaseName(f.Source.Path)
		f.Root.Walk(func(b *types.Block) {
			switch b.Kind {
			case types.KindVariable:
				if base != VariablesFile {
					report(f.Source.Path, b.StartLine(),
						fmt.Sprintf("variable %q must be declared in %s", b.NameLabel, VariablesFile))
				}
			case types.KindOutput:
				if base != OutputsFile {
					report(f.Source.Path, b.StartLine(),
						fmt.Sprintf("output %q must be declared in %s", b.NameLabel, OutputsFile))
				}
			}
		})
	}
}

// CheckRequiredDeclarations flags defaultless variables that have no
// matching top-level key in the tfvars file. Auth allow-list names are
// exempt; each absence is reported individually at the definition line.
func CheckRequiredDeclarations(idx *Index, report Reporter) {
	for _, name := range idx.SortedVariableNames() {
		def := idx.Variables[name]
		if def.HasDefault || idx.Allowed(name) {
			continue
		}
		if _, declared := idx.TfvarsKeys[name]; !declared {
			report(def.Path, def.Line,
				fmt.Sprintf("variable %q has no default and is missing from %s", name, TfvarsFile))
		}
	}
}

// CheckUsageOrder compares the first-reference order of variables in the
// main configuration file with the declaration order in the variables
// file and flags every name whose relative position differs.
func CheckUsageOrder(idx *Index, report Reporter) {
	defOrder := filterAllowed(idx, idx.DefOrder)
	useOrder := filterAllowed(idx, idx.FirstUseOrder)

	// Only names present in both sequences participate.
	inDef := toSet(defOrder)
	inUse := toSet(useOrder)
	var defs, uses []string
	for _, n := range defOrder {
		if inUse[n] {
			defs = append(defs, n)
		}
	}
	for _, n := range useOrder {
		if inDef[n] {
			uses = append(uses, n)
		}
	}

	for i := range defs {
		if defs[i] != uses[i] {
			def := idx.Variables[defs[i]]
			report(def.Path, def.Line,
				fmt.Sprintf("variable %q is declared out of order: first used %s but declared %s in %s",
					defs[i], ordinal(indexOf(uses, defs[i])+1), ordinal(i+1), VariablesFile))
		}
	}
}

// CheckUnusedVariables flags declared variables with zero reference sites
// anywhere in the directory, allow-list excluded.
func CheckUnusedVariables(idx *Index, report Reporter) {
	for _, name := range idx.SortedVariableNames() {
		def := idx.Variables[name]
		if idx.Allowed(name) {
			continue
		}
		if len(idx.References[name]) == 0 {
			report(def.Path, def.Line, fmt.Sprintf("variable %q is never used", name))
		}
	}
}

func filterAllowed(idx *Index, names []string) []string {
	var out []string
	for _, n := range names {
		if !idx.Allowed(n) {
			out = append(out, n)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
