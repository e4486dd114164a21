package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	_, hit, err := c.GetReply(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetReply(ctx, "k", `{"violenceScore":1}`, time.Hour))

	_, hit, err = c.GetReply(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "no-op cache never stores")

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	a := Key("anthropic", "v1", "payload")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("anthropic", "v1", "payload"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.NotEqual(t, a, Key("openrouter", "v1", "payload"))
}
