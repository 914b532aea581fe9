package safety

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/crossfile"
	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// FeatureFact states that using a feature requires at least MinVersion of
// a provider. A feature is either a resource/data type or a structure
// block inside the provider's configuration block.
type FeatureFact struct {
	Provider   string
	Feature    string
	MinVersion string
}

// featureFacts is the fixed feature-to-minimum-version table.
var featureFacts = []FeatureFact{
	{Provider: "aws", Feature: "default_tags", MinVersion: "3.38.0"},
	{Provider: "aws", Feature: "aws_s3_bucket_versioning", MinVersion: "4.0.0"},
	{Provider: "aws", Feature: "aws_s3_bucket_lifecycle_configuration", MinVersion: "4.0.0"},
	{Provider: "aws", Feature: "aws_cloudfront_origin_access_control", MinVersion: "4.29.0"},
	{Provider: "google", Feature: "google_project_service", MinVersion: "3.0.0"},
}

type declaredConstraint struct {
	Constraint string
	Line       int
	Path       string
}

var inlineVersionRe = regexp.MustCompile(`version\s*=\s*"([^"]+)"`)

// NewVersionCheck builds the version declaration/compatibility rule. The
// oracle may be nil (offline mode); constraint-vs-feature checking still
// runs, only the release-history verdict is skipped.
func NewVersionCheck(oracle VersionOracle) func(idx *crossfile.Index, report crossfile.Reporter) {
	return func(idx *crossfile.Index, report crossfile.Reporter) {
		declared := declaredConstraints(idx)

		missing := make(map[string]bool)
		for _, fact := range featureFacts {
			path, line, found := detectFeature(idx, fact)
			if !found {
				continue
			}
			decl, ok := declared[fact.Provider]
			if !ok || decl.Constraint == "" {
				if !missing[fact.Provider] {
					missing[fact.Provider] = true
					report(path, line, fmt.Sprintf("provider %q must declare a version constraint in %s",
						fact.Provider, crossfile.ProvidersFile))
				}
				continue
			}
			if !satisfiable(decl.Constraint, fact.MinVersion) {
				report(decl.Path, decl.Line, fmt.Sprintf("feature %q requires provider %q >= %s, but constraint %q cannot satisfy it",
					fact.Feature, fact.Provider, fact.MinVersion, decl.Constraint))
			}
		}

		// Declared providers need a constraint even when no known feature
		// pins a minimum version.
		providers := make([]string, 0, len(declared))
		for provider := range declared {
			providers = append(providers, provider)
		}
		sort.Strings(providers)
		for _, provider := range providers {
			decl := declared[provider]
			if decl.Constraint != "" || missing[provider] {
				continue
			}
			report(decl.Path, decl.Line, fmt.Sprintf("provider %q must declare a version constraint in %s",
				provider, crossfile.ProvidersFile))
		}

		if oracle == nil {
			return
		}
		for provider, decl := range declared {
			if decl.Constraint == "" {
				continue
			}
			verdict, err := oracle.IsVersionValid(provider, decl.Constraint)
			switch {
			case err != nil || verdict == VerdictUnresolvable:
				report(decl.Path, decl.Line, fmt.Sprintf("version check for provider %q could not be completed", provider))
			case verdict == VerdictTooPermissive:
				report(decl.Path, decl.Line, fmt.Sprintf("version constraint %q for provider %q is too permissive", decl.Constraint, provider))
			case verdict == VerdictTooRestrictive:
				report(decl.Path, decl.Line, fmt.Sprintf("version constraint %q for provider %q matches no published release", decl.Constraint, provider))
			}
		}
	}
}

// declaredConstraints collects the required_providers entries of the
// designated providers file. Both inline objects and multi-line entries
// are understood.
func declaredConstraints(idx *crossfile.Index) map[string]declaredConstraint {
	out := make(map[string]declaredConstraint)
	for _, f := range idx.Files {
		if crossfile.BaseName(f.Source.Path) != crossfile.ProvidersFile {
			continue
		}
		f.Root.Walk(func(b *types.Block) {
			if b.Kind != types.KindTerraform {
				return
			}
			for _, c := range b.Children {
				if c.TypeLabel != "required_providers" {
					continue
				}
				current := ""
				for _, p := range c.Params {
					switch {
					case p.Nesting == 0:
						current = p.Name
						entry := declaredConstraint{Line: p.Line, Path: f.Source.Path}
						if m := inlineVersionRe.FindStringSubmatch(p.RawValue); m != nil {
							entry.Constraint = m[1]
						}
						out[current] = entry
					case p.Nesting == 1 && p.Name == "version" && current != "":
						entry := out[current]
						entry.Constraint = strings.Trim(strings.TrimSpace(p.RawValue), `"`)
						entry.Line = p.Line
						out[current] = entry
					}
				}
			}
		})
	}
	return out
}

// detectFeature finds the first use of a feature in the directory.
func detectFeature(idx *crossfile.Index, fact FeatureFact) (path string, line int, found bool) {
	for _, f := range idx.Files {
		var hit *types.Block
		f.Root.Walk(func(b *types.Block) {
			if hit != nil {
				return
			}
			switch b.Kind {
			case types.KindResource, types.KindData:
				if b.TypeLabel == fact.Feature {
					hit = b
				}
			case types.KindStructure:
				if b.TypeLabel == fact.Feature && insideProvider(b, fact.Provider) {
					hit = b
				}
			}
		})
		if hit != nil {
			return f.Source.Path, hit.StartLine(), true
		}
	}
	return "", 0, false
}

func insideProvider(b *types.Block, provider string) bool {
	for p := b.Parent; p != nil; p = p.Parent {
		if p.Kind == types.KindProvider && p.NameLabel == provider {
			return true
		}
	}
	return false
}

// satisfiable reports whether some version admitted by the declared
// constraint is at least min. A direct constraint check covers pinned and
// upper-bounded declarations; when that fails, a declaration whose own
// version operands already sit at or above the minimum (">= 5.0" vs a
// 4.x minimum) is still satisfiable.
func satisfiable(constraint, min string) bool {
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false
	}
	minV, err := goversion.NewVersion(min)
	if err != nil {
		return false
	}
	if c.Check(minV) {
		return true
	}
	for _, literal := range versionLiteralRe.FindAllString(constraint, -1) {
		if v, err := goversion.NewVersion(literal); err == nil && v.GreaterThanOrEqual(minV) && c.Check(v) {
			return true
		}
	}
	return false
}

var versionLiteralRe = regexp.MustCompile(`\d+(?:\.\d+)*`)
