package adapter

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/wibhim/codemorph/internal/model"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestGoFilesExpandsDirectories(t *testing.T) {
	dir := t.TempDir()

	writeTestFile(t, dir, "a.go", "package p\n")
	writeTestFile(t, dir, "b.go", "package p\n")
	writeTestFile(t, dir, "b_test.go", "package p\n")
	writeTestFile(t, dir, "notes.txt", "not go\n")

	fs := NewLocalSourceFSAdapter()

	files, err := fs.GoFiles([]m.Path{m.Path(dir)}, nil)
	require.NoError(t, err)

	assert.Len(t, files, 2)

	for _, f := range files {
		assert.NotContains(t, string(f), "_test.go")
		assert.NotContains(t, string(f), ".txt")
	}
}

func TestGoFilesHonorsExcludes(t *testing.T) {
	dir := t.TempDir()

	writeTestFile(t, dir, "keep.go", "package p\n")
	writeTestFile(t, dir, "generated.go", "package p\n")

	fs := NewLocalSourceFSAdapter()

	files, err := fs.GoFiles([]m.Path{m.Path(dir)}, []string{"generated"})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Contains(t, string(files[0]), "keep.go")
}

func TestGoFilesRejectsBadPattern(t *testing.T) {
	fs := NewLocalSourceFSAdapter()

	_, err := fs.GoFiles([]m.Path{"."}, []string{"("})
	assert.Error(t, err)
}

func TestGoFileAdapterRoundTrip(t *testing.T) {
	src := "package p\n\nfunc f() int {\n\treturn 1\n}\n"

	ga := NewLocalGoFileAdapter()

	fset := token.NewFileSet()

	file, err := ga.Parse(fset, "f.go", []byte(src))
	require.NoError(t, err)

	out, err := ga.Format(fset, file)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestGoFileAdapterParseError(t *testing.T) {
	ga := NewLocalGoFileAdapter()

	_, err := ga.Parse(token.NewFileSet(), "broken.go", []byte("not go"))
	assert.Error(t, err)
}
