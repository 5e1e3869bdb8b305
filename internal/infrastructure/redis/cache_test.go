package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

func setupTestCache(t *testing.T, prefix string) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, prefix)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := setupTestCache(t, "hc")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "family:f1:summary", []byte(`{"members":3}`), time.Hour))
	assert.True(t, mr.Exists("hc:family:f1:summary"))
	assert.Equal(t, time.Hour, mr.TTL("hc:family:f1:summary"))

	val, found, err := c.Get(ctx, "family:f1:summary")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"members":3}`, string(val))

	require.NoError(t, c.Delete(ctx, "family:f1:summary"))
	require.NoError(t, c.Delete(ctx, "family:f1:summary"))

	_, found, err = c.Get(ctx, "family:f1:summary")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupTestCache(t, "hc")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte(`1`), time.Minute))
	mr.FastForward(59 * time.Second)
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	mr.FastForward(time.Second)
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_MatchIsolatesUsers(t *testing.T) {
	c, _ := setupTestCache(t, "hc")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "health:user1:steps:1", []byte(`1`), time.Hour))
	require.NoError(t, c.Set(ctx, "health:user1:sleep:2", []byte(`2`), time.Hour))
	require.NoError(t, c.Set(ctx, "health:user2:steps:3", []byte(`3`), time.Hour))

	got, err := c.Match(ctx, cache.CompilePattern("health:user1:*"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "health:user1:sleep:2", got[0].Key)
	assert.Equal(t, "health:user1:steps:1", got[1].Key)
	assert.JSONEq(t, `2`, string(got[0].Value))
}

func TestRedisCache_ClearOnlyTouchesNamespace(t *testing.T) {
	c, mr := setupTestCache(t, "hc")
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "keep"))
	require.NoError(t, c.Set(ctx, "a", []byte(`1`), time.Hour))
	require.NoError(t, c.Set(ctx, "b", []byte(`2`), time.Hour))

	require.NoError(t, c.Clear(ctx))

	assert.False(t, mr.Exists("hc:a"))
	assert.False(t, mr.Exists("hc:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCache_ClearWithoutPrefixFlushes(t *testing.T) {
	c, mr := setupTestCache(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte(`1`), time.Hour))
	require.NoError(t, c.Clear(ctx))
	assert.Empty(t, mr.Keys())
}

func TestParseMemoryInfo(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nmaxmemory_policy:noeviction\r\nmem_fragmentation_ratio:1.2\r\n"
	got := ParseMemoryInfo(info)
	assert.Equal(t, map[string]string{
		"used_memory":       "1048576",
		"used_memory_human": "1.00M",
		"maxmemory_policy":  "noeviction",
	}, got)
}
