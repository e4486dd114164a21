package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores model replies keyed by a content hash.
type Cache interface {
	// GetReply returns the cached reply and true on a hit.
	GetReply(ctx context.Context, key string) (string, bool, error)

	// SetReply stores a reply with TTL
	SetReply(ctx context.Context, key, reply string, ttl time.Duration) error

	// Purge removes every cached reply and reports how many were dropped
	Purge(ctx context.Context) (int, error)

	Close() error
}

// Key hashes its parts into a stable cache key. Parts are NUL-separated so
// ("ab","c") and ("a","bc") differ.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
