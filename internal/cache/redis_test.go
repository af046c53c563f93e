package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return &Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

func TestSetGet(t *testing.T) {
	c, _ := newTestCache(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set("key-1", payload{Name: "pro", Count: 7}, time.Minute))

	var got payload
	found, err := c.Get("key-1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "pro", Count: 7}, got)
}

func TestGet_Missing(t *testing.T) {
	c, _ := newTestCache(t)

	var got string
	found, err := c.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("key-1", "value", time.Minute))
	require.NoError(t, c.Invalidate("key-1"))

	var got string
	found, err := c.Get("key-1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSet_Expiration(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Set("key-1", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var got string
	found, err := c.Get("key-1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIncrWindow(t *testing.T) {
	c, _ := newTestCache(t)

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrWindow(ctx, "bucket-1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIncrWindow_ExpiresByTTL(t *testing.T) {
	c, mr := newTestCache(t)

	ctx := context.Background()
	_, err := c.IncrWindow(ctx, "bucket-1", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := c.IncrWindow(ctx, "bucket-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestIncrWindow_KeysAreIndependent(t *testing.T) {
	c, _ := newTestCache(t)

	ctx := context.Background()
	_, err := c.IncrWindow(ctx, "bucket-1", time.Minute)
	require.NoError(t, err)

	got, err := c.IncrWindow(ctx, "bucket-2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
