package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(sensorLine), 0o644))
	}
}

func TestResolveInputs_Directory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"a.txt",
		"nested/b.md",
		"nested/deep/c.csv",
		"notes.pdf",
		".git/d.txt",
	)

	got, err := ResolveInputs([]string{root}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "nested", "b.md"),
		filepath.Join(root, "nested", "deep", "c.csv"),
	}, got)
}

func TestResolveInputs_GlobAndDedupe(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.md", "sub/b.md", "sub/c.txt")

	got, err := ResolveInputs([]string{
		filepath.Join(root, "**", "*.md"),
		filepath.Join(root, "a.md"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "sub", "b.md"),
	}, got)
}

func TestResolveInputs_ExplicitFileKeptWithoutDecoder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "reqs.pdf")

	got, err := ResolveInputs([]string{filepath.Join(root, "reqs.pdf")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "reqs.pdf")}, got)
}

func TestResolveInputs_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := ResolveInputs([]string{filepath.Join(root, "missing.txt")}, nil)
	assert.Error(t, err)

	_, err = ResolveInputs([]string{filepath.Join(root, "*.txt")}, nil)
	assert.ErrorIs(t, err, ErrNoInputs)
}
