package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.epub")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFilesystemBackendStoreAndFetch(t *testing.T) {
	root := t.TempDir()
	b := NewFilesystemBackend(root)
	src := writeSourceFile(t, "book bytes")

	stored, err := b.Store(context.Background(), src, "user-1", "abc123", "file.epub", KindBook)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "books", "user-1", "abc123", "file.epub"), stored)

	fetched, err := b.Fetch(context.Background(), "user-1", "abc123", "file.epub", KindBook)
	require.NoError(t, err)
	assert.Equal(t, stored, fetched)

	data, err := os.ReadFile(fetched)
	require.NoError(t, err)
	assert.Equal(t, "book bytes", string(data))
}

func TestFilesystemBackendStoreCoverNamespace(t *testing.T) {
	root := t.TempDir()
	b := NewFilesystemBackend(root)
	src := writeSourceFile(t, "jpeg bytes")

	stored, err := b.Store(context.Background(), src, "user-1", "abc123", "thumbnail.jpg", KindCover)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "books", "user-1", "abc123", "covers", "thumbnail.jpg"), stored)
}

func TestFilesystemBackendStoreOverwrites(t *testing.T) {
	root := t.TempDir()
	b := NewFilesystemBackend(root)

	first := writeSourceFile(t, "v1")
	_, err := b.Store(context.Background(), first, "u", "k", "f.pdf", KindBook)
	require.NoError(t, err)

	second := writeSourceFile(t, "v2")
	stored, err := b.Store(context.Background(), second, "u", "k", "f.pdf", KindBook)
	require.NoError(t, err)

	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestFilesystemBackendFetchMissing(t *testing.T) {
	b := NewFilesystemBackend(t.TempDir())

	_, err := b.Fetch(context.Background(), "u", "k", "missing.epub", KindBook)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestFilesystemBackendDelete(t *testing.T) {
	root := t.TempDir()
	b := NewFilesystemBackend(root)
	src := writeSourceFile(t, "bytes")

	stored, err := b.Store(context.Background(), src, "u", "k", "f.epub", KindBook)
	require.NoError(t, err)

	removed, err := b.Delete(context.Background(), "u", "k", "f.epub", KindBook)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, stored)

	// Empty namespace directories are cleaned up as well
	assert.NoDirExists(t, filepath.Join(root, "books", "u", "k"))
}

func TestFilesystemBackendDeleteMissingIsNotError(t *testing.T) {
	b := NewFilesystemBackend(t.TempDir())

	removed, err := b.Delete(context.Background(), "u", "k", "ghost.epub", KindBook)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFilesystemBackendDeleteKeepsSiblings(t *testing.T) {
	root := t.TempDir()
	b := NewFilesystemBackend(root)

	book := writeSourceFile(t, "book")
	cover := writeSourceFile(t, "cover")
	_, err := b.Store(context.Background(), book, "u", "k", "f.epub", KindBook)
	require.NoError(t, err)
	coverPath, err := b.Store(context.Background(), cover, "u", "k", "original.jpg", KindCover)
	require.NoError(t, err)

	removed, err := b.Delete(context.Background(), "u", "k", "f.epub", KindBook)
	require.NoError(t, err)
	assert.True(t, removed)

	// Cover dir still has content, must not be swept
	assert.FileExists(t, coverPath)
}

func TestFilesystemBackendIsLocal(t *testing.T) {
	assert.True(t, NewFilesystemBackend(t.TempDir()).IsLocal())
}
