// Package extract converts raw Terraform source text into an addressable
// block/parameter tree without a full grammar. It walks lines with a
// small state machine (normal, quoted string, line comment, heredoc) and
// counts unescaped braces to recover block structure; value expressions
// are never evaluated. The regex-driven approach is deliberate: rules
// only need line-accurate structure, and the extractor's interface hides
// the technique so a real parser could replace it later.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// ParseError reports malformed structure in one file. The file is skipped
// for structural rules; other files are unaffected.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

var (
	// keyword ["type"] ["name"] { ...
	headerRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(?:\s+("[^"]*"|[A-Za-z0-9_.-]+))?(?:\s+("[^"]*"|[A-Za-z0-9_.-]+))?\s*\{`)
	// name = value  (name optionally quoted)
	paramRe = regexp.MustCompile(`^("?)([A-Za-z_][A-Za-z0-9_-]*)("?)\s*=(?:[^=].*|$)`)
	// <<MARKER or <<-MARKER outside strings and comments
	heredocRe = regexp.MustCompile(`<<(-?)([A-Za-z_][A-Za-z0-9_]*)`)
)

var topLevelKinds = map[string]types.BlockKind{
	"resource":  types.KindResource,
	"data":      types.KindData,
	"variable":  types.KindVariable,
	"output":    types.KindOutput,
	"locals":    types.KindLocals,
	"terraform": types.KindTerraform,
	"provider":  types.KindProvider,
	"module":    types.KindModule,
}

var metaParams = map[string]bool{
	"count":      true,
	"for_each":   true,
	"provider":   true,
	"lifecycle":  true,
	"depends_on": true,
}

type scanner struct {
	src      *types.SourceFile
	root     *types.Block
	stack    []*types.Block
	heredoc  map[int]bool
	litDepth int // braces opened by collection literals / expressions

	inString   bool
	hdMarker   string // active heredoc delimiter, "" when none
	hdIndented bool   // <<- variant
	byteOffset int    // offset of the current line's first byte

	// openParam is the collection parameter whose multi-line value is
	// still open; openDepth is its outstanding bracket balance.
	openParam *types.Parameter
	openDepth int
}

// Parse extracts the block tree of one source file. On malformed nesting,
// an unterminated string, or an unterminated heredoc it returns a
// *ParseError and no tree.
func Parse(src *types.SourceFile) (*types.File, error) {
	root := &types.Block{
		Kind:  types.KindRoot,
		Depth: -1,
		DefRange: hcl.Range{
			Filename: src.Path,
			Start:    hcl.Pos{Line: 1, Column: 1, Byte: 0},
		},
	}
	s := &scanner{
		src:     src,
		root:    root,
		stack:   []*types.Block{root},
		heredoc: make(map[int]bool),
	}

	for n := 1; n <= src.LineCount(); n++ {
		line := src.Line(n)
		if err := s.scanLine(n, line); err != nil {
			return nil, err
		}
		s.byteOffset += len(line) + 1
	}

	if s.hdMarker != "" {
		return nil, &ParseError{Path: src.Path, Line: src.LineCount(), Message: fmt.Sprintf("unterminated heredoc %q", s.hdMarker)}
	}
	if s.inString {
		return nil, &ParseError{Path: src.Path, Line: src.LineCount(), Message: "unterminated string"}
	}
	if len(s.stack) > 1 {
		open := s.stack[len(s.stack)-1]
		return nil, &ParseError{Path: src.Path, Line: open.StartLine(), Message: fmt.Sprintf("unterminated block opened at line %d", open.StartLine())}
	}

	root.DefRange.End = hcl.Pos{Line: src.LineCount(), Column: 1, Byte: s.byteOffset}
	return &types.File{Source: src, Root: root, Heredoc: s.heredoc}, nil
}

func (s *scanner) scanLine(n int, line string) error {
	if s.hdMarker != "" {
		s.heredoc[n] = true
		body := line
		if s.hdIndented {
			body = strings.TrimLeft(body, " \t")
		}
		if body == s.hdMarker {
			s.hdMarker = ""
		}
		return nil
	}

	codeRaw, codeMasked := s.stripLine(line)

	// A heredoc opener takes effect from the next line; everything after
	// the marker token on this line is ignored.
	if m := heredocRe.FindStringSubmatchIndex(codeMasked); m != nil {
		s.hdIndented = codeMasked[m[2]:m[3]] == "-"
		s.hdMarker = codeMasked[m[4]:m[5]]
		codeRaw = codeRaw[:m[5]]
		codeMasked = codeMasked[:m[5]]
	}

	indent := len(codeMasked) - len(strings.TrimLeft(codeMasked, " \t"))
	trimmedMasked := strings.TrimSpace(codeMasked)
	trimmedRaw := strings.TrimSpace(codeRaw)

	// Continuation lines of an open multi-line collection value extend
	// the owning parameter until its brackets balance out.
	if s.openParam != nil {
		s.openParam.EndLine = n
		if s.openDepth += bracketDelta(trimmedMasked); s.openDepth <= 0 {
			s.openParam = nil
		}
	}

	headerBrace := -1
	if hm := headerRe.FindStringSubmatchIndex(trimmedMasked); hm != nil {
		headerBrace = hm[1] - 1 // index of '{' within trimmedMasked
		// Structural matching runs on the masked text, but label capture
		// wants the real characters; masking is byte-length preserving,
		// so the match indices carry over to the raw text.
		s.pushBlock(n, indent, trimmedRaw, hm)
		// Inline bodies: `resource "x" "this" { name = "a" }` carries a
		// parameter on the header line itself.
		if headerBrace+1 < len(trimmedRaw) {
			inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmedRaw[headerBrace+1:]), "}"))
			if pm := paramRe.FindStringSubmatch(inner); pm != nil {
				s.addParam(n, inner, pm)
			}
		}
	} else if pm := paramRe.FindStringSubmatch(trimmedRaw); pm != nil && paramRe.MatchString(trimmedMasked) {
		p := s.addParam(n, trimmedRaw, pm)
		if s.openParam == nil && p.Shape == types.ShapeCollection {
			eq := strings.Index(trimmedMasked, "=")
			if d := bracketDelta(trimmedMasked[eq+1:]); d > 0 {
				s.openParam, s.openDepth = p, d
			}
		}
	}

	// Brace events drive depth. The header's own opening brace has
	// already pushed a block; every other unescaped '{' belongs to a
	// collection literal or expression.
	for i, r := range trimmedMasked {
		switch r {
		case '{':
			if i == headerBrace {
				continue
			}
			if i > 0 && trimmedMasked[i-1] == '\\' {
				continue
			}
			s.litDepth++
		case '}':
			if i > 0 && trimmedMasked[i-1] == '\\' {
				continue
			}
			if s.litDepth > 0 {
				s.litDepth--
				continue
			}
			if err := s.popBlock(n, indent+i); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *scanner) pushBlock(n, indent int, trimmed string, match []int) {
	group := func(i int) string {
		if match[2*i] < 0 {
			return ""
		}
		return trimmed[match[2*i]:match[2*i+1]]
	}

	keyword := group(1)
	typeLabel, typeQuoted := unquoteLabel(group(2))
	nameLabel, nameQuoted := unquoteLabel(group(3))

	kind := types.KindStructure
	switch {
	case keyword == "dynamic":
		kind = types.KindDynamic
	case len(s.stack) == 1:
		if k, ok := topLevelKinds[keyword]; ok {
			kind = k
		}
	}
	if kind == types.KindStructure || kind == types.KindDynamic {
		// structure blocks carry their keyword as the type label
		if typeLabel == "" {
			typeLabel = keyword
		}
	}
	// single-label kinds name their only label
	if nameLabel == "" && typeLabel != "" {
		switch kind {
		case types.KindVariable, types.KindOutput, types.KindProvider, types.KindModule:
			nameLabel, nameQuoted = typeLabel, typeQuoted
			typeLabel, typeQuoted = "", false
		}
	}

	parent := s.stack[len(s.stack)-1]
	block := &types.Block{
		Kind:       kind,
		TypeLabel:  typeLabel,
		NameLabel:  nameLabel,
		TypeQuoted: typeQuoted,
		NameQuoted: nameQuoted,
		Depth:      len(s.stack) - 1,
		Parent:     parent,
		DefRange: hcl.Range{
			Filename: s.src.Path,
			Start:    hcl.Pos{Line: n, Column: indent + 1, Byte: s.byteOffset + indent},
		},
	}
	parent.Children = append(parent.Children, block)
	s.stack = append(s.stack, block)
}

func (s *scanner) popBlock(n, col int) error {
	if len(s.stack) == 1 {
		return &ParseError{Path: s.src.Path, Line: n, Message: "closing brace without matching block"}
	}
	top := s.stack[len(s.stack)-1]
	top.DefRange.End = hcl.Pos{Line: n, Column: col + 2, Byte: s.byteOffset + col + 1}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

func (s *scanner) addParam(n int, trimmed string, match []string) *types.Parameter {
	name := match[2]
	quoted := match[1] == `"` && match[3] == `"`

	eq := strings.Index(trimmed, "=")
	value := strings.TrimSpace(trimmed[eq+1:])

	shape := types.ShapeScalar
	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		shape = types.ShapeCollection
	}

	owner := s.stack[len(s.stack)-1]
	p := &types.Parameter{
		Name:       name,
		RawValue:   value,
		Line:       n,
		EndLine:    n,
		QuotedName: quoted,
		Meta:       metaParams[name] && s.litDepth == 0,
		Shape:      shape,
		Nesting:    s.litDepth,
	}
	owner.Params = append(owner.Params, p)
	return p
}

// stripLine removes the line-comment tail and returns the code portion
// twice: raw (string contents intact, for value capture) and masked
// (string contents replaced with 'x', so braces, '#', and '=' inside
// strings cannot confuse structural matching). Masking is byte-length
// preserving, keeping raw and masked indices interchangeable. The
// quoted-string state survives line breaks so an unterminated string is
// caught at EOF.
func (s *scanner) stripLine(line string) (raw, masked string) {
	var rawB, maskB strings.Builder
	escaped := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if s.inString {
			rawB.WriteRune(r)
			if escaped {
				escaped = false
				maskB.WriteString(strings.Repeat("x", utf8.RuneLen(r)))
				continue
			}
			switch r {
			case '\\':
				escaped = true
				maskB.WriteByte('x')
			case '"':
				s.inString = false
				maskB.WriteRune(r)
			default:
				maskB.WriteString(strings.Repeat("x", utf8.RuneLen(r)))
			}
			continue
		}
		switch {
		case r == '"':
			s.inString = true
			rawB.WriteRune(r)
			maskB.WriteRune(r)
		case r == '#':
			return rawB.String(), maskB.String()
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return rawB.String(), maskB.String()
		default:
			rawB.WriteRune(r)
			maskB.WriteRune(r)
		}
	}
	return rawB.String(), maskB.String()
}

// bracketDelta is the net count of unescaped brackets and braces on a
// masked code line.
func bracketDelta(masked string) int {
	d := 0
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '[', '{':
			if i == 0 || masked[i-1] != '\\' {
				d++
			}
		case ']', '}':
			if i == 0 || masked[i-1] != '\\' {
				d--
			}
		}
	}
	return d
}

func unquoteLabel(s string) (label string, quoted bool) {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], true
	}
	return s, false
}
