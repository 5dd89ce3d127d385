package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestFilterAccept(t *testing.T) {
	f := DefaultFilter()

	tests := []struct {
		path string
		size int64
		want bool
	}{
		{"app.py", 10, true},
		{"src/Main.JAVA", 10, true},
		{"README.md", 10, false},
		{"Makefile", 10, false},
		{".env", 10, false},
		{".github/workflows/ci.yml", 10, false},
		{"node_modules/lib/index.js", 10, false},
		{"pkg/__pycache__/mod.py", 10, false},
		{"venv/lib/site.py", 10, false},
		{"big.py", 1_000_000, true},
		{"huge.py", 1_000_001, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Accept(tt.path, tt.size))
		})
	}
}

func TestCollectDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":                  "print('hi')\n",
		"web/index.html":          "<p>hi</p>\n",
		"notes.txt":               "ignored\n",
		".git/config":             "[core]\n",
		"node_modules/x/index.js": "eval(x)\n",
		".hidden/secret.py":       "password = 'x'\n",
	})

	files, err := CollectDir(root, DefaultFilter())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"app.py", "web/index.html"}, paths)
	assert.Equal(t, "print('hi')\n", string(files[0].Content))
}

func TestCollectDirSingleFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"one.py": "x = 1\n"})

	files, err := CollectDir(filepath.Join(root, "one.py"), DefaultFilter())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "one.py", files[0].Path)
}

func TestCollectDirMissing(t *testing.T) {
	_, err := CollectDir(filepath.Join(t.TempDir(), "missing"), DefaultFilter())
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	text, ok := decode([]byte("plain"))
	assert.True(t, ok)
	assert.Equal(t, "plain", text)

	text, ok = decode([]byte("ab\xffcd"))
	assert.True(t, ok)
	assert.Equal(t, "abcd", text)

	_, ok = decode([]byte("bin\x00ary"))
	assert.False(t, ok)
}
