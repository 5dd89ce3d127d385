package pyast

import "fmt"

// indent is the column of a line's first token with tab stops of 8 (col)
// and of 1 (alt). Both must agree for two lines to be at the same level.
type indent struct {
	col, alt int
}

// clauses continue their parent statement and sit at its level.
var clauses = map[Kind]bool{
	"elif_clause":         true,
	"else_clause":         true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
}

// lineIndent measures the whitespace before offset start on its line. ok is
// false when another token precedes start on that line.
func lineIndent(src []byte, start int) (in indent, ok bool) {
	ls := start
	for ls > 0 && src[ls-1] != '\n' {
		ls--
	}
	for _, b := range src[ls:start] {
		switch b {
		case ' ':
			in.col++
			in.alt++
		case '\t':
			in.col = (in.col/8 + 1) * 8
			in.alt++
		case '\f':
			in = indent{}
		default:
			return indent{}, false
		}
	}
	return in, true
}

// checkIndentation finds indentation the grammar tolerates but the Python
// tokenizer rejects. It returns an empty reason for a well-indented tree.
func checkIndentation(n, parent *Node) string {
	switch {
	case n.Kind == KindModule:
		if reason := checkSuite(n, indent{}, true); reason != "" {
			return reason
		}
	case n.Kind == KindBlock && parent != nil:
		outer, _ := lineIndent(n.src, parent.start)
		if reason := checkSuite(n, outer, false); reason != "" {
			return reason
		}
	case clauses[n.Kind] && parent != nil:
		got, ok := lineIndent(n.src, n.start)
		want, _ := lineIndent(n.src, parent.start)
		if ok && got != want {
			return indentReason(got, want, n.Line)
		}
	}
	for _, c := range n.Children {
		if reason := checkIndentation(c, n); reason != "" {
			return reason
		}
	}
	return ""
}

// checkSuite requires statements that start a line to share one level. In a
// module that level is column 0; in a block it lies deeper than outer.
func checkSuite(suite *Node, outer indent, module bool) string {
	var level *indent
	for _, stmt := range suite.Children {
		if !stmt.Named || stmt.Kind == KindComment || stmt.Kind == KindLineContinuation {
			continue
		}
		in, ok := lineIndent(stmt.src, stmt.start)
		if !ok {
			continue
		}
		if level == nil {
			switch {
			case module && in != (indent{}):
				return fmt.Sprintf("indentation error: unexpected indent at line %d", stmt.Line)
			case !module && (in.col <= outer.col || in.alt <= outer.alt):
				if in.col > outer.col || in.alt > outer.alt {
					return fmt.Sprintf("indentation error: inconsistent use of tabs and spaces at line %d", stmt.Line)
				}
				return fmt.Sprintf("indentation error: expected an indented block at line %d", stmt.Line)
			}
			level = &in
			continue
		}
		if in != *level {
			return indentReason(in, *level, stmt.Line)
		}
	}
	return ""
}

func indentReason(got, want indent, line int) string {
	switch {
	case got.col == want.col || got.alt == want.alt:
		return fmt.Sprintf("indentation error: inconsistent use of tabs and spaces at line %d", line)
	case got.col > want.col:
		return fmt.Sprintf("indentation error: unexpected indent at line %d", line)
	default:
		return fmt.Sprintf("indentation error: unindent does not match any outer indentation level at line %d", line)
	}
}
