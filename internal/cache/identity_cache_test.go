package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dive-auth/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewIdentityCache(client, ttl), mr
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	identity := model.Identity{
		UserID:       "u1",
		Role:         model.RoleDiveOperator,
		IsActive:     true,
		Verification: model.VerificationPending,
	}
	require.NoError(t, c.Set(ctx, identity))

	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, model.Identity{UserID: "u2", Role: model.RoleAdmin, IsActive: true}))
	require.NoError(t, c.Invalidate(ctx, "u2"))

	_, ok, err := c.Get(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCacheCorruptValue(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, mr.Set(identityKeyPrefix+"u3", "{not json"))
	_, _, err := c.Get(ctx, "u3")
	require.Error(t, err)
}

func TestNilIdentityCacheIsNoop(t *testing.T) {
	t.Parallel()

	var c *IdentityCache
	require.Nil(t, NewIdentityCache(nil, time.Minute))

	require.NoError(t, c.Set(context.Background(), model.Identity{UserID: "x"}))
	require.NoError(t, c.Invalidate(context.Background(), "x"))
	_, ok, err := c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnectRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), "://nope", "")
	require.Error(t, err)
}
