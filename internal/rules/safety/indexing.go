// Package safety implements the pattern detectors for unsafe list
// indexing, missing sensitivity flags, and provider version-constraint
// compatibility.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules/crossfile"
)

var (
	dataIndexRe  = regexp.MustCompile(`\bdata\.[A-Za-z0-9_]+(?:\.[A-Za-z0-9_-]+)+\[\d+\]`)
	varIndexRe   = regexp.MustCompile(`\bvar\.([A-Za-z_][A-Za-z0-9_]*)(?:\.[A-Za-z0-9_]+)*\[\d+\]`)
	localIndexRe = regexp.MustCompile(`\blocal\.([A-Za-z_][A-Za-z0-9_]*)(?:\.[A-Za-z0-9_]+)*\[\d+\]`)
)

// CheckUnsafeIndexing flags integer index accesses that can raise at plan
// time: chains rooted in a data-source attribute, a list-typed variable,
// or a for-comprehension local, unless wrapped in try(...). The variable
// and local classifications come from the directory index, so the rule
// sees definitions living in other files.
func CheckUnsafeIndexing(idx *crossfile.Index, report crossfile.Reporter) {
	for _, f := range idx.Files {
		for n := 1; n <= f.Source.LineCount(); n++ {
			if f.InHeredoc(n) {
				continue
			}
			code := crossfile.StripComment(f.Source.Line(n))

			for _, m := range dataIndexRe.FindAllStringIndex(code, -1) {
				if !insideTry(code, m[0]) {
					report(f.Source.Path, n, fmt.Sprintf("unguarded index access %q; wrap it in try()", code[m[0]:m[1]]))
				}
			}
			for _, m := range varIndexRe.FindAllStringSubmatchIndex(code, -1) {
				name := code[m[2]:m[3]]
				def, ok := idx.Variables[name]
				if !ok || !listTyped(def.TypeExpr) {
					continue
				}
				if !insideTry(code, m[0]) {
					report(f.Source.Path, n, fmt.Sprintf("unguarded index access %q on list variable; wrap it in try()", code[m[0]:m[1]]))
				}
			}
			for _, m := range localIndexRe.FindAllStringSubmatchIndex(code, -1) {
				name := code[m[2]:m[3]]
				def, ok := idx.Locals[name]
				if !ok || !def.ForExpr {
					continue
				}
				if !insideTry(code, m[0]) {
					report(f.Source.Path, n, fmt.Sprintf("unguarded index access %q on computed local; wrap it in try()", code[m[0]:m[1]]))
				}
			}
		}
	}
}

// listTyped reports whether a variable type expression is a list or set,
// including optional(list(...)) forms.
func listTyped(typeExpr string) bool {
	t := strings.TrimSpace(typeExpr)
	return strings.Contains(t, "list(") || strings.Contains(t, "set(") ||
		t == "list" || t == "set"
}

// insideTry reports whether position pos of the line falls within the
// argument list of a try(...) call.
func insideTry(code string, pos int) bool {
	depth := 0
	tryDepths := make(map[int]bool)
	for i := 0; i < len(code) && i < pos; i++ {
		switch code[i] {
		case '(':
			depth++
			if i >= 3 && code[i-3:i] == "try" && !identByte(code, i-4) {
				tryDepths[depth] = true
			}
		case ')':
			delete(tryDepths, depth)
			depth--
		}
	}
	return len(tryDepths) > 0
}

// identByte reports whether the byte at i extends an identifier, so
// "xtry(" is not mistaken for a try call.
func identByte(code string, i int) bool {
	if i < 0 || i >= len(code) {
		return false
	}
	c := code[i]
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
