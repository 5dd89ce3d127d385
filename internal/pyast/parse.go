package pyast

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Outcome is the result of Parse: either Parsed or Failed.
type Outcome interface {
	outcome()
}

// Parsed holds the tree of a syntactically valid module.
type Parsed struct {
	Root *Node
}

// Failed records why a source could not be parsed.
type Failed struct {
	Reason string
}

func (Parsed) outcome() {}
func (Failed) outcome() {}

// fields the converter records on children; tree-sitter only exposes them by lookup.
var knownFields = []string{
	"left", "right", "type", "operator",
	"function", "arguments",
	"object", "attribute",
	"name", "value", "body", "argument",
}

// Parse parses Python 3 source. Sources with syntax or indentation errors,
// or with statements only Python 2 accepts, yield Failed.
func Parse(src []byte) Outcome {
	if len(src) == 0 {
		return Parsed{Root: &Node{Kind: KindModule, Named: true, Line: 1, src: src}}
	}
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return Failed{Reason: err.Error()}
	}
	root := tree.RootNode()
	if root == nil {
		return Failed{Reason: "empty parse tree"}
	}
	if root.HasError() {
		return Failed{Reason: syntaxErrorReason(root)}
	}

	conv := &converter{src: src}
	out := conv.convert(root, "")
	if conv.legacy != nil {
		return Failed{Reason: fmt.Sprintf("python 2 %s at line %d", strings.ReplaceAll(string(conv.legacy.Kind), "_", " "), conv.legacy.Line)}
	}
	if reason := checkIndentation(out, nil); reason != "" {
		return Failed{Reason: reason}
	}
	return Parsed{Root: out}
}

type converter struct {
	src    []byte
	legacy *Node
}

func (c *converter) convert(n *sitter.Node, field string) *Node {
	pt := n.StartPoint()
	out := &Node{
		Kind:   Kind(n.Type()),
		Field:  field,
		Named:  n.IsNamed(),
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column),
		start:  int(n.StartByte()),
		end:    int(n.EndByte()),
		src:    c.src,
	}
	if c.legacy == nil && isLegacyStatement(out) {
		c.legacy = out
	}

	count := int(n.ChildCount())
	if count == 0 {
		return out
	}
	fieldOf := c.fieldIndex(n)
	out.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		out.Children = append(out.Children, c.convert(child, fieldOf(child)))
	}
	return out
}

// fieldIndex resolves field names of n's children by span and kind.
func (c *converter) fieldIndex(n *sitter.Node) func(*sitter.Node) string {
	type span struct {
		start, end uint32
		kind       string
	}
	var index map[span]string
	for _, name := range knownFields {
		f := n.ChildByFieldName(name)
		if f == nil {
			continue
		}
		if index == nil {
			index = make(map[span]string)
		}
		key := span{f.StartByte(), f.EndByte(), f.Type()}
		if _, ok := index[key]; !ok {
			index[key] = name
		}
	}
	return func(child *sitter.Node) string {
		if index == nil {
			return ""
		}
		return index[span{child.StartByte(), child.EndByte(), child.Type()}]
	}
}

// isLegacyStatement matches `exec "code"` and `print x` (not `print(x)`).
func isLegacyStatement(n *Node) bool {
	switch n.Kind {
	case KindExecStatement:
		return true
	case KindPrintStatement:
		rest := strings.TrimLeft(strings.TrimPrefix(n.Text(), "print"), " \t")
		return !strings.HasPrefix(rest, "(")
	}
	return false
}

func syntaxErrorReason(root *sitter.Node) string {
	var bad *sitter.Node
	var find func(n *sitter.Node)
	find = func(n *sitter.Node) {
		if bad != nil || !n.HasError() && !n.IsMissing() && n.Type() != "ERROR" {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			bad = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				find(child)
			}
		}
	}
	find(root)
	if bad == nil {
		return "syntax error"
	}
	pt := bad.StartPoint()
	return fmt.Sprintf("syntax error at line %d, column %d", pt.Row+1, pt.Column)
}
