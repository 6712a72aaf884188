package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford Base32 alphabet: no I, L, O, U to avoid misreading.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// IDLength is the number of characters in record identifiers.
const IDLength = 13

// NewID returns a random Crockford Base32 identifier. 13 chars of a
// 32-symbol alphabet gives 65 bits of entropy, enough to be externally
// unguessable while staying short and URL-safe.
func NewID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	var sb strings.Builder
	sb.Grow(IDLength)
	for _, b := range buf {
		// len(alphabet) divides 256 evenly, modulo stays unbiased
		sb.WriteByte(crockfordAlphabet[int(b)%len(crockfordAlphabet)])
	}
	return sb.String(), nil
}

// ValidID reports whether s looks like an identifier produced by NewID.
func ValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(crockfordAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
