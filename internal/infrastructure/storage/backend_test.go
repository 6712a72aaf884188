package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		kind FileKind
		want string
	}{
		{"book file", KindBook, "books/owner/hash/file.epub"},
		{"cover file", KindCover, "books/owner/hash/covers/file.epub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, objectKey("owner", "hash", "file.epub", tt.kind))
		})
	}
}

func TestFactoryCreateFilesystemBackend(t *testing.T) {
	f := NewFactory(t.TempDir(), t.TempDir())

	b, err := f.CreateBackend(context.Background(), TypeFileSystem, nil)
	require.NoError(t, err)
	assert.True(t, b.IsLocal())
}

func TestFactoryCreateBackendUnknownType(t *testing.T) {
	f := NewFactory(t.TempDir(), t.TempDir())

	_, err := f.CreateBackend(context.Background(), "DROPBOX", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendNotFound)
}

func TestFactoryCreateMinIOBackendMissingConfig(t *testing.T) {
	f := NewFactory(t.TempDir(), t.TempDir())

	tests := []struct {
		name   string
		config map[string]interface{}
	}{
		{"nil config", nil},
		{"empty config", map[string]interface{}{}},
		{"missing secret", map[string]interface{}{
			"bucket_name": "books",
			"endpoint":    "localhost:9000",
			"access_key":  "key",
		}},
		{"blank endpoint", map[string]interface{}{
			"bucket_name": "books",
			"endpoint":    "",
			"access_key":  "key",
			"secret_key":  "secret",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.CreateBackend(context.Background(), TypeMinIO, tt.config)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBackendNotConfigured)
		})
	}
}

func TestFactoryDefault(t *testing.T) {
	f := NewFactory(t.TempDir(), t.TempDir())

	b := f.Default()
	require.NotNil(t, b)
	assert.True(t, b.IsLocal(), "default backend is the local filesystem")
}
