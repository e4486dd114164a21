package cache

import (
	"context"
	"time"
)

// NoOpCache is used when Redis is not configured: every lookup misses and
// writes are dropped.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetReply(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (c *NoOpCache) SetReply(ctx context.Context, key, reply string, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Purge(ctx context.Context) (int, error) {
	return 0, nil
}

func (c *NoOpCache) Close() error {
	return nil
}
