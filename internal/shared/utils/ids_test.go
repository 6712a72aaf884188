package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)
	assert.Len(t, id, IDLength)

	for _, r := range id {
		assert.True(t, strings.ContainsRune(crockfordAlphabet, r), "unexpected character %q in id %s", r, id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid id", "0123456789ABC", true},
		{"generated id", mustNewID(t), true},
		{"too short", "ABC123", false},
		{"too long", "0123456789ABCD", false},
		{"empty", "", false},
		{"excluded letter I", "0123456789ABI", false},
		{"excluded letter L", "0123456789ABL", false},
		{"excluded letter O", "0123456789ABO", false},
		{"excluded letter U", "0123456789ABU", false},
		{"lowercase", "0123456789abc", false},
		{"uuid", "550e8400-e29b-41d4-a716", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidID(tt.id))
		})
	}
}

func mustNewID(t *testing.T) string {
	t.Helper()
	id, err := NewID()
	require.NoError(t, err)
	return id
}
