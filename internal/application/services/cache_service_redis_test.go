package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/avatarctic/health-cache/configs"
	impl "github.com/avatarctic/health-cache/internal/application/services"
	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/infrastructure/memory"
	rediscache "github.com/avatarctic/health-cache/internal/infrastructure/redis"
)

func TestCacheService_RedisFailover(t *testing.T) {
	mr := miniredis.RunT(t)
	logger, hook := logtest.NewNullLogger()

	dialer, err := rediscache.NewDialer(&config.RedisConfig{
		URL:        "redis://" + mr.Addr(),
		KeyPrefix:  "hc",
		MaxRetries: -1,
	})
	require.NoError(t, err)
	require.NotNil(t, dialer)

	conn := impl.NewConnectionManager(dialer, fastRetry(2), nil, logger)
	require.Equal(t, cache.BackendRemote, conn.Initialize(context.Background()))

	svc := impl.NewCacheService(conn, memory.NewStore(), nil, nil, &impl.CacheServiceConfig{OperationTimeout: time.Second}, logger)
	defer svc.Close(context.Background())
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "health:u1:hr:1", map[string]int{"bpm": 61}, time.Hour))
	assert.True(t, mr.Exists("hc:health:u1:hr:1"))
	assert.Equal(t, time.Hour, mr.TTL("hc:health:u1:hr:1"))

	entries, err := svc.GetByPattern(ctx, "health:u1:*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"bpm":61}`, string(entries[0].Value))

	mr.Close()

	// the failing call is served by the local store
	found, err := svc.Get(ctx, "health:u1:hr:1", nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, conn.IsRemoteAvailable())

	require.NoError(t, svc.Set(ctx, "health:u1:hr:2", 62, time.Hour))
	found, err = svc.Get(ctx, "health:u1:hr:2", nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cache.BackendLocal, svc.HealthStatus(ctx).Backend)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Remote cache error, using in-memory cache" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestCacheService_ExpiredCallerDeadlineKeepsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	logger, _ := logtest.NewNullLogger()

	dialer, err := rediscache.NewDialer(&config.RedisConfig{URL: "redis://" + mr.Addr(), MaxRetries: -1})
	require.NoError(t, err)
	conn := impl.NewConnectionManager(dialer, fastRetry(1), nil, logger)
	require.Equal(t, cache.BackendRemote, conn.Initialize(context.Background()))

	svc := impl.NewCacheService(conn, memory.NewStore(), nil, nil, nil, logger)
	defer svc.Close(context.Background())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = svc.Get(ctx, "k", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, conn.IsRemoteAvailable())

	require.NoError(t, svc.Set(context.Background(), "k", 1, time.Minute))
	assert.True(t, mr.Exists("k"))
}
