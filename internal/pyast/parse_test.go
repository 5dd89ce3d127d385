package pyast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	out := Parse([]byte(src))
	parsed, ok := out.(Parsed)
	require.True(t, ok, "expected Parsed, got %#v", out)
	return parsed.Root
}

func TestParse_Valid(t *testing.T) {
	root := mustParse(t, "import os\n\npassword = \"abcd1234\"\nos.system(cmd)\n")
	assert.Equal(t, KindModule, root.Kind)

	var calls []*Node
	Inspect(root, KindCall, func(n *Node) { calls = append(calls, n) })
	require.Len(t, calls, 1)
	assert.Equal(t, 4, calls[0].Line)
	assert.Equal(t, 0, calls[0].Column)
	assert.Equal(t, "os.system(cmd)", calls[0].Text())
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed paren", "def broken(:\n    pass\n"},
		{"stray operator", "x = = 3\n"},
		{"python 2 print", "print \"hello\"\n"},
		{"unexpected indent", "x = 1\n    eval(y)\n"},
		{"indented first statement", "    x = 1\n"},
		{"dedent to unknown level", "if a:\n        eval(y)\n    eval(z)\n"},
		{"tabs and spaces", "if a:\n\tx = 1\n        y = 2\n"},
		{"misaligned else", "if a:\n    x = 1\n  else:\n    y = 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Parse([]byte(tt.src))
			failed, ok := out.(Failed)
			require.True(t, ok, "expected Failed, got %#v", out)
			assert.NotEmpty(t, failed.Reason)
		})
	}
}

func TestParse_IndentationReasons(t *testing.T) {
	tests := []struct {
		src    string
		reason string
	}{
		{"x = 1\n    eval(y)\n", "indentation error: unexpected indent at line 2"},
		{"if a:\n\tx = 1\n        y = 2\n", "indentation error: inconsistent use of tabs and spaces at line 3"},
	}
	for _, tt := range tests {
		failed, ok := Parse([]byte(tt.src)).(Failed)
		require.True(t, ok, tt.src)
		assert.Equal(t, tt.reason, failed.Reason)
	}
}

func TestParse_IndentationAccepted(t *testing.T) {
	src := `import os
# comment at column 0
def f(a):
        # comment deeper than the block
    x = (1,
  2)
    s = """
no indent inside a string
    """
    if a: return x
    elif a is None:
        pass
    else:
        y = 1; z = 2
    try:
        pass
    except ValueError:
        pass
    finally:
        pass
    return \
        x

@decorator
class C:
	def m(self):
		return 1
`
	mustParse(t, src)
}

func TestParse_Python3Print(t *testing.T) {
	mustParse(t, "print(\"hello\")\n")
}

func TestParse_Empty(t *testing.T) {
	root := mustParse(t, "")
	assert.Equal(t, KindModule, root.Kind)
	assert.Empty(t, root.Children)
}

func TestWalk_SourceOrderAndPrune(t *testing.T) {
	root := mustParse(t, "a(b(c()))\nd()\n")

	var names []string
	Walk(root, func(n *Node) bool {
		if n.Kind == KindCall {
			callee, _ := CalleeOf(n)
			names = append(names, callee.Name)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)

	names = nil
	Walk(root, func(n *Node) bool {
		if n.Kind == KindCall {
			callee, _ := CalleeOf(n)
			names = append(names, callee.Name)
			return false
		}
		return true
	})
	assert.Equal(t, []string{"a", "d"}, names)
}

func TestAssignmentOf(t *testing.T) {
	root := mustParse(t, "a = b = 'xyz'\nself.token: str = 'abcd'\nx, y = 1, 2\n")

	var got []Assignment
	Inspect(root, KindAssignment, func(n *Node) {
		if a, ok := AssignmentOf(n); ok {
			got = append(got, a)
		}
	})
	require.Len(t, got, 2)

	assert.Equal(t, "a", TargetName(got[0].Targets[0]))
	assert.Equal(t, "b", TargetName(got[0].Targets[1]))
	lit, ok := StringLiteral(got[0].Value)
	require.True(t, ok)
	assert.Equal(t, "xyz", lit.Value)

	assert.Len(t, got[1].Targets, 1)
	assert.Equal(t, "", TargetName(got[1].Targets[0]))
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		src          string
		value        string
		interpolated bool
		bytes        bool
	}{
		{`x = "plain"`, "plain", false, false},
		{`x = 'single'`, "single", false, false},
		{`x = """triple"""`, "triple", false, false},
		{`x = f"SELECT {a}"`, "SELECT {a}", true, false},
		{`x = rb"raw\n"`, `raw\n`, false, true},
		{`x = "a\tb"`, "a\tb", false, false},
		{`x = "ab" "cd"`, "abcd", false, false},
		{`x = "ab" f"{c}"`, "ab{c}", true, false},
		{`x = "\x41\x42"`, "AB", false, false},
		{`x = "\u00e9\U0001F600"`, "é😀", false, false},
		{`x = "\101\7z"`, "A\az", false, false},
		{`x = "\q\\"`, `\q\`, false, false},
		{`x = b"\x41\u00e9"`, `A\u00e9`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			root := mustParse(t, tt.src+"\n")
			var lit Literal
			var found bool
			Inspect(root, KindAssignment, func(n *Node) {
				a, ok := AssignmentOf(n)
				require.True(t, ok)
				lit, found = StringLiteral(a.Value)
			})
			require.True(t, found)
			assert.Equal(t, tt.value, lit.Value)
			assert.Equal(t, tt.interpolated, lit.Interpolated)
			assert.Equal(t, tt.bytes, lit.Bytes)
		})
	}
}

func TestFirstArgAndBinaryOp(t *testing.T) {
	root := mustParse(t, "cur.execute((\"SELECT \" + uid), timeout=3)\nrun(key=1)\n")

	var calls []*Node
	Inspect(root, KindCall, func(n *Node) { calls = append(calls, n) })
	require.Len(t, calls, 2)

	callee, ok := CalleeOf(calls[0])
	require.True(t, ok)
	assert.Equal(t, "execute", callee.Name)
	assert.False(t, callee.Bare())
	assert.Equal(t, "cur", callee.Object.Text())

	op, left, right, ok := BinaryOp(FirstArg(calls[0]))
	require.True(t, ok)
	assert.Equal(t, "+", op)
	assert.Equal(t, KindString, left.Kind)
	assert.Equal(t, "uid", right.Text())

	assert.Nil(t, FirstArg(calls[1]))
}

func TestStringLiteral_NamedEscapeLength(t *testing.T) {
	root := mustParse(t, "x = \"\\N{BULLET}ab\"\n")
	var lit Literal
	Inspect(root, KindString, func(n *Node) { lit, _ = StringLiteral(n) })
	assert.Equal(t, 3, lit.Len())
}
