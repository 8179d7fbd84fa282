package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	abs, err := EnsureDir(dir)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(abs))
	require.DirExists(t, abs)

	again, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, abs, again)
}

func TestEnsureSubDir(t *testing.T) {
	parent := t.TempDir()

	sub, err := EnsureSubDir(parent, "media")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(parent, "media"), sub)
	require.DirExists(t, sub)
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0o660))

	sub, err := EnsureSubDir(dir, "nested")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b"), make([]byte, 50), 0o660))

	size, err := DirSize(dir)
	require.NoError(t, err)
	require.Equal(t, int64(150), size)
}

func TestDirSize_MissingDir(t *testing.T) {
	size, err := DirSize(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestRemoveContents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("x"), 0o660))
	sub, err := EnsureSubDir(dir, "nested")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b"), []byte("y"), 0o660))

	require.NoError(t, RemoveContents(dir))

	require.DirExists(t, dir, "the directory itself stays")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRemoveContents_MissingDir(t *testing.T) {
	require.NoError(t, RemoveContents(filepath.Join(t.TempDir(), "nope")))
}
