package workspacefinder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
)

func TestFindRoot_FindsWorkspaceFromNestedDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tether.yaml"), []byte("tether: {}\n"), 0o644))

	got, err := NewFinder().FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_FromFilePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tether.yaml"), []byte("tether: {}\n"), 0o644))
	file := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	got, err := NewFinder().FindRoot(file)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_NotFound(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "a", "b")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	f := NewFinder()
	_, err := f.FindRoot(dir)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestFindRoot_EmptyStart(t *testing.T) {
	_, err := NewFinder().FindRoot("")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestFindRoot_IgnoresMarkerDirectory(t *testing.T) {
	root := t.TempDir()
	inner := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(filepath.Join(inner, ConfigFile), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte("tether: {}\n"), 0o644))

	got, err := NewFinder().FindRoot(inner)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
