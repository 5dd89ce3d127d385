package pyast

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Literal describes a string literal expression.
type Literal struct {
	Value        string
	Interpolated bool // f-string; not a constant
	Bytes        bool // b"..." literal; not a str
}

// Constant reports whether the literal is a plain str constant.
func (l Literal) Constant() bool {
	return !l.Interpolated && !l.Bytes
}

// Len is the literal length in code points.
func (l Literal) Len() int {
	return utf8.RuneCountInString(l.Value)
}

// StringLiteral decodes a string or implicitly concatenated string node.
func StringLiteral(n *Node) (Literal, bool) {
	if n == nil {
		return Literal{}, false
	}
	switch n.Kind {
	case KindString:
		return decodeString(n.Text()), true
	case KindConcatenatedString:
		var out Literal
		var sb strings.Builder
		for _, part := range n.NamedChildren() {
			if part.Kind != KindString {
				continue
			}
			lit := decodeString(part.Text())
			sb.WriteString(lit.Value)
			out.Interpolated = out.Interpolated || lit.Interpolated
			out.Bytes = out.Bytes || lit.Bytes
		}
		out.Value = sb.String()
		return out, true
	}
	return Literal{}, false
}

func decodeString(text string) Literal {
	i := 0
	for i < len(text) && text[i] != '"' && text[i] != '\'' {
		i++
	}
	prefix := strings.ToLower(text[:i])
	body := text[i:]

	quote := 1
	if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`) {
		quote = 3
	}
	if len(body) >= 2*quote {
		body = body[quote : len(body)-quote]
	} else {
		body = ""
	}

	lit := Literal{
		Interpolated: strings.Contains(prefix, "f"),
		Bytes:        strings.Contains(prefix, "b"),
	}
	if strings.Contains(prefix, "r") {
		lit.Value = body
	} else {
		lit.Value = unescape(body, lit.Bytes)
	}
	return lit
}

// unescape decodes Python backslash escapes, each escape yielding one
// character. Unknown escapes keep their backslash; \N{name} becomes U+FFFD.
func unescape(s string, bytesLit bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		c := s[i]
		switch c {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			sb.WriteByte(c)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			sb.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			digits := 2
			switch c {
			case 'u':
				digits = 4
			case 'U':
				digits = 8
			}
			if c != 'x' && bytesLit {
				sb.WriteByte('\\')
				sb.WriteByte(c)
				continue
			}
			if i+digits >= len(s) {
				sb.WriteByte('\\')
				sb.WriteByte(c)
				continue
			}
			v, err := strconv.ParseUint(s[i+1:i+1+digits], 16, 32)
			if err != nil {
				sb.WriteByte('\\')
				sb.WriteByte(c)
				continue
			}
			sb.WriteRune(rune(v))
			i += digits
		case 'N':
			end := strings.IndexByte(s[i:], '}')
			if bytesLit || i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				sb.WriteByte('\\')
				sb.WriteByte(c)
				continue
			}
			sb.WriteRune(utf8.RuneError)
			i += end
		default:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Unparen strips redundant parentheses around an expression.
func Unparen(n *Node) *Node {
	for n != nil && n.Kind == KindParenthesized {
		inner := n.NamedChildren()
		if len(inner) != 1 || inner[0].Kind == KindComment {
			return n
		}
		n = inner[0]
	}
	return n
}

// Callee describes the function part of a call.
type Callee struct {
	Name   string // bare identifier or attribute name
	Object *Node  // receiver of an attribute call, nil for bare names
}

// Bare reports whether the callee is a plain identifier such as eval.
func (c Callee) Bare() bool {
	return c.Name != "" && c.Object == nil
}

// CalleeOf resolves the callee of a call node.
func CalleeOf(call *Node) (Callee, bool) {
	if call == nil || call.Kind != KindCall {
		return Callee{}, false
	}
	fn := Unparen(call.Child("function"))
	if fn == nil {
		return Callee{}, false
	}
	switch fn.Kind {
	case KindIdentifier:
		return Callee{Name: fn.Text()}, true
	case KindAttribute:
		attr := fn.Child("attribute")
		if attr == nil {
			return Callee{}, false
		}
		return Callee{Name: attr.Text(), Object: Unparen(fn.Child("object"))}, true
	}
	return Callee{}, false
}

// FirstArg returns the first positional argument of a call, without parentheses.
func FirstArg(call *Node) *Node {
	args := call.Child("arguments")
	if args == nil {
		return nil
	}
	if args.Kind == KindGeneratorExpression {
		return args
	}
	for _, a := range args.NamedChildren() {
		switch a.Kind {
		case KindKeywordArgument, KindDictionarySplat, KindComment:
			continue
		}
		return Unparen(a)
	}
	return nil
}

// BinaryOp returns the operator and operands of a binary_operator node.
func BinaryOp(n *Node) (op string, left, right *Node, ok bool) {
	if n == nil || n.Kind != KindBinaryOperator {
		return "", nil, nil, false
	}
	if o := n.Child("operator"); o != nil {
		op = o.Text()
	}
	return op, Unparen(n.Child("left")), Unparen(n.Child("right")), true
}

// Assignment is a plain (non-annotated) assignment statement, with chained
// targets flattened: a = b = "x" has targets a and b.
type Assignment struct {
	Targets []*Node
	Value   *Node
}

// AssignmentOf flattens an assignment node. Annotated assignments and the
// inner links of a chain are not reported.
func AssignmentOf(n *Node) (Assignment, bool) {
	if n == nil || n.Kind != KindAssignment || n.Field == "right" {
		return Assignment{}, false
	}
	var a Assignment
	cur := n
	for {
		if cur.Child("type") != nil {
			return Assignment{}, false
		}
		left := cur.Child("left")
		right := cur.Child("right")
		if left == nil || right == nil {
			return Assignment{}, false
		}
		a.Targets = append(a.Targets, left)
		if right.Kind != KindAssignment {
			a.Value = Unparen(right)
			return a, true
		}
		cur = right
	}
}

// TargetName is the identifier or attribute name an assignment target binds.
func TargetName(target *Node) string {
	switch target.Kind {
	case KindIdentifier:
		return target.Text()
	case KindAttribute:
		if attr := target.Child("attribute"); attr != nil {
			return attr.Text()
		}
	}
	return ""
}
