package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	digest, err := FileDigest(path)
	require.NoError(t, err)
	// md5("hello world")
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", digest)
}

func TestFileDigestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	digest, err := FileDigest(path)
	require.NoError(t, err)
	// md5("")
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest)
}

func TestFileDigestStableAcrossReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")
	// Larger than the 4KB streaming buffer
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	first, err := FileDigest(path)
	require.NoError(t, err)
	second, err := FileDigest(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileDigestMissingFile(t *testing.T) {
	_, err := FileDigest(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
	assert.False(t, FileExists(dir), "directories are not regular files")
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, RemoveIfExists(path))
	assert.False(t, FileExists(path))

	// Second removal is not an error
	assert.NoError(t, RemoveIfExists(path))
}
