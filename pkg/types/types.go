// Package types defines the core data structures used throughout the tf-style-check application.
package types

import "github.com/hashicorp/hcl/v2"

// Severity classifies how serious a violation is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category groups rules by the kind of analysis they perform.
type Category string

const (
	CategoryStyle     Category = "style"
	CategoryCrossFile Category = "crossfile"
	CategorySafety    Category = "safety"
	// CategoryParse is reserved for parse diagnostics emitted by the
	// extractor itself; it is not selectable and cannot be excluded.
	CategoryParse Category = "parse"
)

// BlockKind identifies the construct a Block represents.
type BlockKind string

const (
	KindRoot      BlockKind = "root" // synthetic file-level block
	KindResource  BlockKind = "resource"
	KindData      BlockKind = "data"
	KindVariable  BlockKind = "variable"
	KindOutput    BlockKind = "output"
	KindLocals    BlockKind = "locals"
	KindTerraform BlockKind = "terraform"
	KindProvider  BlockKind = "provider"
	KindModule    BlockKind = "module"
	KindDynamic   BlockKind = "dynamic"
	KindStructure BlockKind = "structure" // bare nested block like lifecycle { ... }
)

// ParamShape classifies the value form of a Parameter.
type ParamShape string

const (
	ShapeScalar     ParamShape = "scalar"
	ShapeCollection ParamShape = "collection" // list/map/object literal
)

// SourceFile is one configuration file held in memory. Lines are stored
// raw, without trailing newlines, and addressed 1-indexed.
type SourceFile struct {
	Path  string
	Dir   string
	Lines []string
	// EndsWithNewline records whether the raw content ended with "\n",
	// which the line split above cannot preserve.
	EndsWithNewline bool
}

// Line returns the 1-indexed line n, or "" when out of range.
func (f *SourceFile) Line(n int) string {
	if n < 1 || n > len(f.Lines) {
		return ""
	}
	return f.Lines[n-1]
}

// LineCount returns the number of lines in the file.
func (f *SourceFile) LineCount() int { return len(f.Lines) }

// Block represents one brace-delimited construct with its metadata.
// A Block exclusively owns its child Blocks and its Parameters; the
// synthetic root Block (KindRoot) owns everything at depth 0.
type Block struct {
	Kind       BlockKind
	TypeLabel  string // resource/data type, provider name, dynamic target
	NameLabel  string // instance name, variable name, output name
	TypeQuoted bool
	NameQuoted bool
	DefRange   hcl.Range // header start through closing brace
	Depth      int       // 0 for top-level blocks, -1 for the root
	Parent     *Block
	Children   []*Block
	Params     []*Parameter
}

// StartLine returns the line the block header appears on.
func (b *Block) StartLine() int { return b.DefRange.Start.Line }

// EndLine returns the line of the closing brace.
func (b *Block) EndLine() int { return b.DefRange.End.Line }

// Walk visits b and every descendant block in document order.
func (b *Block) Walk(fn func(*Block)) {
	fn(b)
	for _, child := range b.Children {
		child.Walk(fn)
	}
}

// Param returns the first parameter named name, or nil.
func (b *Block) Param(name string) *Parameter {
	for _, p := range b.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Parameter is a single name = value entry inside a Block.
type Parameter struct {
	Name       string
	RawValue   string // value text as written on the opening line
	Line       int
	EndLine    int // last line of the value; equals Line for single-line values
	QuotedName bool
	Meta       bool       // count/for_each/provider/lifecycle/depends_on
	Shape      ParamShape // scalar or collection literal
	Nesting    int        // collection-literal depth relative to the owning block
}

// File is the extractor's output for one SourceFile: the block tree plus
// the heredoc body lines that every formatting rule must skip.
type File struct {
	Source  *SourceFile
	Root    *Block
	Heredoc map[int]bool // heredoc body lines, 1-indexed
}

// InHeredoc reports whether line n is part of a heredoc body.
func (f *File) InHeredoc(n int) bool { return f.Heredoc[n] }

// Violation is one finding against one file. It is immutable once
// created; the runner may drop it (suppression, filters) but never
// rewrites it.
type Violation struct {
	Path     string   `json:"file"`
	RuleID   string   `json:"rule"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
}

// Diagnostic is a tool-level problem (a rule crashed, a file could not
// be read), kept separate from lint findings.
type Diagnostic struct {
	Path    string `json:"file,omitempty"`
	RuleID  string `json:"rule,omitempty"`
	Message string `json:"message"`
}
