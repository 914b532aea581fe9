// Package crossfile implements the checks that need visibility into every
// file of a directory at once: variable placement, declaration ordering,
// required tfvars declarations, and unused variables.
package crossfile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Canonical file names the analyzer assumes. These are conventions of the
// tool, not negotiated at runtime.
const (
	MainFile      = "main.tf"
	VariablesFile = "variables.tf"
	OutputsFile   = "outputs.tf"
	ProvidersFile = "providers.tf"
	TfvarsFile    = "terraform.tfvars"
)

// DefaultAllowedVariables are authentication and provider-wiring variable
// names exempt from the declaration, ordering, and usage rules.
var DefaultAllowedVariables = []string{
	"access_key",
	"secret_key",
	"region",
	"profile",
	"token",
	"assume_role_arn",
}

var varRefRe = regexp.MustCompile(`\bvar\.([A-Za-z_][A-Za-z0-9_]*)`)

// forExprRe matches collection values opening a for comprehension on the
// same line; forKeywordRe matches one starting a continuation line.
var (
	forExprRe    = regexp.MustCompile(`^[\[{]\s*for\b`)
	forKeywordRe = regexp.MustCompile(`^for\b`)
)

// VariableDef records one variable block.
type VariableDef struct {
	Name       string
	Path       string
	Line       int
	HasDefault bool
	TypeExpr   string
	Sensitive  bool
}

// OutputDef records one output block.
type OutputDef struct {
	Name string
	Path string
	Line int
}

// LocalDef records one entry of a locals block.
type LocalDef struct {
	Name    string
	Path    string
	Line    int
	ForExpr bool
}

// Reference is one var.NAME occurrence.
type Reference struct {
	Path string
	Line int
}

// Index is the directory-wide lookup structure built once per directory
// scan, read-only while rules run, and discarded afterwards. Its contents
// do not depend on the order files were loaded in.
type Index struct {
	Dir   string
	Files []*types.File

	Variables  map[string]*VariableDef
	Outputs    []*OutputDef
	Locals     map[string]*LocalDef
	References map[string][]Reference

	// DefOrder is the declaration order in the variables file;
	// FirstUseOrder is the order of first var.NAME references in the
	// main configuration file.
	DefOrder      []string
	FirstUseOrder []string

	// TfvarsKeys maps top-level tfvars assignments to their line.
	TfvarsKeys map[string]int

	allowed map[string]bool
}

// NewIndex builds the directory index from the extracted files. Extra
// allow-list names extend DefaultAllowedVariables.
func NewIndex(dir string, files []*types.File, extraAllowed []string) *Index {
	idx := &Index{
		Dir:        dir,
		Files:      files,
		Variables:  make(map[string]*VariableDef),
		Locals:     make(map[string]*LocalDef),
		References: make(map[string][]Reference),
		TfvarsKeys: make(map[string]int),
		allowed:    make(map[string]bool),
	}
	for _, name := range DefaultAllowedVariables {
		idx.allowed[name] = true
	}
	for _, name := range extraAllowed {
		idx.allowed[name] = true
	}

	for _, f := range files {
		idx.indexFile(f)
	}
	return idx
}

// Allowed reports whether a variable name is on the auth allow-list.
func (idx *Index) Allowed(name string) bool { return idx.allowed[name] }

func (idx *Index) indexFile(f *types.File) {
	base := BaseName(f.Source.Path)

	f.Root.Walk(func(b *types.Block) {
		switch b.Kind {
		case types.KindVariable:
			def := &VariableDef{
				Name: b.NameLabel,
				Path: f.Source.Path,
				Line: b.StartLine(),
			}
			if p := b.Param("default"); p != nil {
				def.HasDefault = true
			}
			if p := b.Param("type"); p != nil {
				def.TypeExpr = p.RawValue
			}
			if p := b.Param("sensitive"); p != nil {
				def.Sensitive = strings.TrimSpace(p.RawValue) == "true"
			}
			idx.Variables[b.NameLabel] = def
			if base == VariablesFile {
				idx.DefOrder = append(idx.DefOrder, b.NameLabel)
			}
		case types.KindOutput:
			idx.Outputs = append(idx.Outputs, &OutputDef{
				Name: b.NameLabel,
				Path: f.Source.Path,
				Line: b.StartLine(),
			})
		case types.KindLocals:
			for _, p := range b.Params {
				if p.Nesting > 0 {
					continue
				}
				idx.Locals[p.Name] = &LocalDef{
					Name:    p.Name,
					Path:    f.Source.Path,
					Line:    p.Line,
					ForExpr: localForExpr(f, p),
				}
			}
		}
	})

	if base == TfvarsFile {
		for _, p := range f.Root.Params {
			if _, seen := idx.TfvarsKeys[p.Name]; !seen {
				idx.TfvarsKeys[p.Name] = p.Line
			}
		}
		return // tfvars assignments are not variable references
	}

	seenFirst := make(map[string]bool)
	for n := 1; n <= f.Source.LineCount(); n++ {
		if f.InHeredoc(n) {
			continue
		}
		code := StripComment(f.Source.Line(n))
		for _, m := range varRefRe.FindAllStringSubmatch(code, -1) {
			name := m[1]
			idx.References[name] = append(idx.References[name], Reference{Path: f.Source.Path, Line: n})
			if base == MainFile && !seenFirst[name] {
				seenFirst[name] = true
				idx.FirstUseOrder = append(idx.FirstUseOrder, name)
			}
		}
	}
}

// SortedVariableNames returns variable names in a deterministic order so
// rule output does not depend on map iteration.
func (idx *Index) SortedVariableNames() []string {
	names := make([]string, 0, len(idx.Variables))
	for name := range idx.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// localForExpr reports whether a local's value is a for comprehension.
// A multi-line value counts when its opening line is a bare bracket and
// the first non-blank continuation line starts the comprehension.
func localForExpr(f *types.File, p *types.Parameter) bool {
	if forExprRe.MatchString(p.RawValue) {
		return true
	}
	if p.Shape != types.ShapeCollection || strings.TrimSpace(p.RawValue[1:]) != "" {
		return false
	}
	for n := p.Line + 1; n <= p.EndLine; n++ {
		code := strings.TrimSpace(StripComment(f.Source.Line(n)))
		if code == "" {
			continue
		}
		return forKeywordRe.MatchString(code)
	}
	return false
}

// StripComment drops the '#' / '//' comment tail of a line, honoring
// quoted strings. Safety rules share it when scanning expressions.
func StripComment(line string) string {
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
		case c == '#':
			return line[:i]
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

// BaseName returns the file name component of a slash-separated path.
// Rules compare it, never a path suffix, against the canonical file
// names above.
func BaseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
