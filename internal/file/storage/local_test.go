package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)

	base := t.TempDir()
	store, err := NewLocalStore(filepath.Join(base, "uploads"), filepath.Join(base, "tmp"), log)
	require.NoError(t, err)
	return store
}

func TestOwnerDirIsDerivedAndStable(t *testing.T) {
	store := newTestStore(t)

	dir := store.OwnerDir("Alice@Example.COM")
	same := store.OwnerDir("alice@example.com")
	other := store.OwnerDir("bob@example.com")

	// Case-insensitive on email, never the raw address in the path
	assert.Equal(t, dir, same)
	assert.NotEqual(t, dir, other)
	assert.NotContains(t, filepath.Base(dir), "@")
	assert.Len(t, filepath.Base(dir), 16)
}

func TestPathForScopesPerOwner(t *testing.T) {
	store := newTestStore(t)

	a := store.PathFor("alice@example.com", "x.pdf")
	b := store.PathFor("bob@example.com", "x.pdf")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "x.pdf", filepath.Base(a))
}

func TestRelocateMovesFile(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(store.TempDir(), "incoming.pdf")
	require.NoError(t, os.WriteFile(src, []byte("file-bytes"), 0o644))

	dst := store.PathFor("alice@example.com", "final.pdf")
	require.NoError(t, store.Relocate(src, dst))

	assert.NoFileExists(t, src)
	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(content))
}

func TestRelocateCreatesDestinationDir(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(store.TempDir(), "incoming.pdf")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	// Owner dir does not exist yet
	dst := store.PathFor("new-user@example.com", "first.pdf")
	assert.NoDirExists(t, filepath.Dir(dst))

	require.NoError(t, store.Relocate(src, dst))
	assert.True(t, store.Exists(dst))
}

func TestCopyFallbackMovesFile(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(store.TempDir(), "incoming.pdf")
	require.NoError(t, os.WriteFile(src, []byte("copied-bytes"), 0o644))

	dst := store.PathFor("alice@example.com", "final.pdf")
	require.NoError(t, store.EnsureOwnerDir("alice@example.com"))
	require.NoError(t, store.copyFallback(src, dst))

	assert.NoFileExists(t, src)
	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "copied-bytes", string(content))
}

func TestCopyFallbackCleansPartialCopy(t *testing.T) {
	store := newTestStore(t)

	// A directory opens fine but cannot be read, so the copy fails
	// after the destination file was created.
	src := filepath.Join(store.TempDir(), "not-a-file")
	require.NoError(t, os.Mkdir(src, 0o755))

	dst := store.PathFor("alice@example.com", "final.pdf")
	require.NoError(t, store.EnsureOwnerDir("alice@example.com"))

	err := store.copyFallback(src, dst)
	require.Error(t, err)
	assert.NoFileExists(t, dst)
	assert.DirExists(t, src)
}

func TestRelocateMissingSource(t *testing.T) {
	store := newTestStore(t)

	err := store.Relocate(
		filepath.Join(store.TempDir(), "ghost.pdf"),
		store.PathFor("alice@example.com", "final.pdf"),
	)
	assert.Error(t, err)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	path := store.PathFor("alice@example.com", "gone.pdf")
	require.NoError(t, store.EnsureOwnerDir("alice@example.com"))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, store.Remove(path))
	require.NoError(t, store.Remove(path))
	assert.False(t, store.Exists(path))
}

func TestExists(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.Exists(store.PathFor("alice@example.com", "nope.pdf")))

	require.NoError(t, store.EnsureOwnerDir("alice@example.com"))
	// Directories are not files
	assert.False(t, store.Exists(store.OwnerDir("alice@example.com")))
}
