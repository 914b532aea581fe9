// Package runner is the dispatcher: it owns the per-file analysis
// pipeline (extract, scan suppressions, run single-file rules), the
// directory barrier before cross-file rules, result filtering, and the
// stable ordering of the final violation list.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tomoya-namekawa/tf-style-check/internal/extract"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/crossfile"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/safety"
	"github.com/tomoya-namekawa/tf-style-check/internal/suppress"
	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Options configure one run.
type Options struct {
	// Categories selects rule categories; empty selects all.
	Categories []string
	// ExcludedRules drops individual rule ids. Unknown ids are a
	// configuration error and abort the run before any file is read.
	ExcludedRules []string
	// AllowedVariables extends the auth allow-list of the cross-file
	// rules.
	AllowedVariables []string
	// SensitivePatterns extends the sensitive-name substrings of the
	// declaration rule.
	SensitivePatterns []string
	// Workers bounds the per-file parallelism; 0 means GOMAXPROCS.
	Workers int
	// Oracle backs the provider version rule; nil runs offline.
	Oracle safety.VersionOracle
	// Logger receives debug output; nil uses the standard logger.
	Logger *logrus.Logger
}

// Result is the aggregated outcome. Violations come grouped by file in
// traversal order, then by line, then by rule id; consumers rely on that
// ordering.
type Result struct {
	Violations  []types.Violation  `json:"violations"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

// HasErrors reports whether any violation carries error severity.
func (r *Result) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == types.SeverityError {
			return true
		}
	}
	return false
}

// fileState is everything the run accumulates for one source file. Each
// state is written by exactly one worker during the parallel phase, then
// only by the (sequential) cross-file phase.
type fileState struct {
	src        *types.SourceFile
	file       *types.File // nil when the file failed to parse
	supp       suppress.Map
	violations []types.Violation
	diags      []types.Diagnostic
	seen       map[string]bool // rule id + line dedupe
}

// Run analyzes the given files. Only a configuration error (unknown
// category or rule id) makes Run fail; every per-file and per-rule
// problem is isolated and reported inside the Result.
func Run(ctx context.Context, files []*types.SourceFile, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	catalog := rules.All(rules.Options{Oracle: opts.Oracle, SensitivePatterns: opts.SensitivePatterns})
	if err := rules.ValidateFilters(catalog, opts.Categories, opts.ExcludedRules); err != nil {
		return nil, err
	}
	selected := rules.Selected(catalog, opts.Categories, opts.ExcludedRules)

	states := make([]*fileState, len(files))
	for i, src := range files {
		states[i] = &fileState{src: src, seen: make(map[string]bool)}
	}

	// Phase one: each file's pipeline is a pure function of its content,
	// so files run in parallel.
	g, _ := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for _, st := range states {
		st := st
		g.Go(func() error {
			analyzeFile(st, selected, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Barrier reached: every extraction is done, so the directory
	// indexes can be built and the cross-file rules run.
	runCrossFile(states, selected, opts.AllowedVariables, logger)

	return collect(states), nil
}

func analyzeFile(st *fileState, selected []rules.Descriptor, logger *logrus.Logger) {
	logger.Debugf("analyzing %s", st.src.Path)

	file, err := extract.Parse(st.src)
	if err != nil {
		line := 1
		if pe, ok := err.(*extract.ParseError); ok {
			line = pe.Line
		}
		st.violations = append(st.violations, types.Violation{
			Path:     st.src.Path,
			RuleID:   rules.ParseRuleID,
			Category: types.CategoryParse,
			Severity: types.SeverityError,
			Message:  err.Error(),
			Line:     line,
		})
		return
	}
	st.file = file
	st.supp = suppress.Scan(st.src)

	for _, d := range selected {
		if d.Check == nil {
			continue
		}
		runChecked(st, d, logger, func() {
			d.Check(file, st.reporter(d))
		})
	}
}

func runCrossFile(states []*fileState, selected []rules.Descriptor, allowed []string, logger *logrus.Logger) {
	byPath := make(map[string]*fileState, len(states))
	var dirs []string
	byDir := make(map[string][]*types.File)
	for _, st := range states {
		byPath[st.src.Path] = st
		if st.file == nil {
			continue // parse failures are excluded from the index
		}
		if _, ok := byDir[st.src.Dir]; !ok {
			dirs = append(dirs, st.src.Dir)
		}
		byDir[st.src.Dir] = append(byDir[st.src.Dir], st.file)
	}

	for _, dir := range dirs {
		logger.Debugf("cross-file pass for %s", dir)
		idx := crossfile.NewIndex(dir, byDir[dir], allowed)

		for _, d := range selected {
			if d.CheckDir == nil {
				continue
			}
			// Suppression directives are file-scoped and still apply to
			// cross-file findings by the line they are attributed to.
			report := func(path string, line int, message string) {
				st, ok := byPath[path]
				if !ok {
					return
				}
				st.reporter(d)(line, message)
			}
			anchor := byPath[byDir[dir][0].Source.Path]
			runChecked(anchor, d, logger, func() {
				d.CheckDir(idx, report)
			})
		}
	}
}

// reporter builds the log closure handed to a rule: it checks the file's
// suppression map, drops duplicate (rule, line) findings from the same
// pass, and appends an immutable Violation.
func (st *fileState) reporter(d rules.Descriptor) func(line int, message string) {
	return func(line int, message string) {
		if st.supp.Suppressed(d.ID, line) {
			return
		}
		key := fmt.Sprintf("%s:%d", d.ID, line)
		if st.seen[key] {
			return
		}
		st.seen[key] = true
		st.violations = append(st.violations, types.Violation{
			Path:     st.src.Path,
			RuleID:   d.ID,
			Category: d.Category,
			Severity: d.Severity,
			Message:  message,
			Line:     line,
		})
	}
}

// runChecked isolates a rule execution: a panicking rule becomes a tool
// diagnostic instead of aborting the run.
func runChecked(st *fileState, d rules.Descriptor, logger *logrus.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("rule", d.ID).Warnf("rule panicked: %v", r)
			st.diags = append(st.diags, types.Diagnostic{
				Path:    st.src.Path,
				RuleID:  d.ID,
				Message: fmt.Sprintf("rule %s failed on unexpected input: %v", d.ID, r),
			})
		}
	}()
	fn()
}

// collect flattens per-file results into the contractual order: files in
// traversal order, lines ascending, rule ids ascending.
func collect(states []*fileState) *Result {
	result := &Result{}
	for _, st := range states {
		sort.SliceStable(st.violations, func(i, j int) bool {
			a, b := st.violations[i], st.violations[j]
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			return a.RuleID < b.RuleID
		})
		result.Violations = append(result.Violations, st.violations...)
		result.Diagnostics = append(result.Diagnostics, st.diags...)
	}
	return result
}
