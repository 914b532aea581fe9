// Package report renders analysis results as human-readable text or as
// machine-readable JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/colorstring"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Summary aggregates counts for the report footer and the JSON schema.
type Summary struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

func summarize(violations []types.Violation) Summary {
	s := Summary{}
	seen := make(map[string]bool)
	for _, v := range violations {
		if !seen[v.Path] {
			seen[v.Path] = true
			s.Files++
		}
		switch v.Severity {
		case types.SeverityError:
			s.Errors++
		case types.SeverityWarning:
			s.Warnings++
		}
	}
	return s
}

// Text writes the violations grouped per file, preserving the runner's
// ordering, followed by tool diagnostics and a summary line.
func Text(w io.Writer, violations []types.Violation, diags []types.Diagnostic, color bool) error {
	c := colorstring.Colorize{Colors: colorstring.DefaultColors, Disable: !color}

	lastPath := ""
	for _, v := range violations {
		if v.Path != lastPath {
			if lastPath != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, c.Color("[bold]"+v.Path))
			lastPath = v.Path
		}
		sevColor := "[yellow]"
		if v.Severity == types.SeverityError {
			sevColor = "[red]"
		}
		fmt.Fprintln(w, c.Color(fmt.Sprintf("  %4d  %s%-7s[reset]  %-7s  %s", v.Line, sevColor, v.Severity, v.RuleID, v.Message)))
	}

	if len(diags) > 0 {
		if len(violations) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, c.Color("[bold]tool diagnostics"))
		for _, d := range diags {
			fmt.Fprintf(w, "  %s: %s\n", d.Path, d.Message)
		}
	}

	s := summarize(violations)
	if len(violations) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, c.Color(fmt.Sprintf("%d error(s), %d warning(s) in %d file(s)", s.Errors, s.Warnings, s.Files)))
	return nil
}

type jsonReport struct {
	Violations  []types.Violation  `json:"violations"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
	Summary     Summary            `json:"summary"`
}

// JSON writes the machine-readable report. The violation order is the
// runner's contractual order.
func JSON(w io.Writer, violations []types.Violation, diags []types.Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Violations:  violations,
		Diagnostics: diags,
		Summary:     summarize(violations),
	})
}
