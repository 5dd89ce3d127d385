// Package pyast parses Python source into an immutable syntax tree.
//
// The tree mirrors tree-sitter's Python grammar: every node carries the
// grammar kind (for example "call" or "assignment"), the field name it
// occupies in its parent, and its source position. Parsing never panics and
// never returns an error; callers branch on the Outcome instead.
package pyast

// Kind is a grammar node type.
type Kind string

const (
	KindModule               Kind = "module"
	KindBlock                Kind = "block"
	KindCall                 Kind = "call"
	KindAssignment           Kind = "assignment"
	KindAttribute            Kind = "attribute"
	KindIdentifier           Kind = "identifier"
	KindString               Kind = "string"
	KindConcatenatedString   Kind = "concatenated_string"
	KindBinaryOperator       Kind = "binary_operator"
	KindArgumentList         Kind = "argument_list"
	KindKeywordArgument      Kind = "keyword_argument"
	KindDictionarySplat      Kind = "dictionary_splat"
	KindParenthesized        Kind = "parenthesized_expression"
	KindGeneratorExpression  Kind = "generator_expression"
	KindInterpolation        Kind = "interpolation"
	KindComment              Kind = "comment"
	KindPrintStatement       Kind = "print_statement"
	KindExecStatement        Kind = "exec_statement"
	KindLineContinuation     Kind = "line_continuation"
)

// Node is one syntax tree node. Line is 1-based, Column is the 0-based byte
// offset within the line.
type Node struct {
	Kind     Kind
	Field    string
	Named    bool
	Line     int
	Column   int
	Children []*Node

	start, end int
	src        []byte
}

// Text returns the source text spanned by the node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return string(n.src[n.start:n.end])
}

// Child returns the first child stored under field, or nil.
func (n *Node) Child(field string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named (non-punctuation) children.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first in source order. When fn
// returns false the children of that node are not visited.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Inspect calls fn for every node of the given kind.
func Inspect(root *Node, kind Kind, fn func(*Node)) {
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			fn(n)
		}
		return true
	})
}
