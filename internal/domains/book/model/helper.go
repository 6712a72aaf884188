package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Helper: Generate cache key from list request
func GenerateCacheKey(prefix string, userID uuid.UUID, req ListBooksRequest) string {
	parts := []string{
		prefix,
		userID.String(),
		strconv.Itoa(req.Skip),
		strconv.Itoa(req.Limit),
		req.Q,
		req.Tag,
	}
	// Hash this to create a short cache key
	keyStr := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%s:%x", prefix, userID.String(), hashString(keyStr))
}

// Helper: Cache key cho book detail
func GenerateBookDetailCacheKey(userID uuid.UUID, bookID string) string {
	return fmt.Sprintf("books:detail:%s:%s", userID.String(), bookID)
}

// Helper: Pattern match mọi list cache entries của một user (để invalidate)
func ListCachePattern(userID uuid.UUID) string {
	return fmt.Sprintf("books:list:%s:*", userID.String())
}

// djb2
func hashString(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) + uint32(s[i])
	}
	return h
}
