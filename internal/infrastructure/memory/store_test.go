package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/infrastructure/memory"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte(`1`), time.Hour))
	v, found, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `1`, string(v))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, found, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_RejectsNonPositiveTTL(t *testing.T) {
	s := memory.NewStore()
	require.ErrorIs(t, s.Set(context.Background(), "a", []byte(`1`), 0), cache.ErrInvalidTTL)
}

func TestStore_ExpiredEntriesReadAsAbsent(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", []byte(`1`), 30*time.Millisecond))
	require.NoError(t, s.Set(ctx, "long", []byte(`2`), time.Hour))

	_, found, _ := s.Get(ctx, "short")
	require.True(t, found)

	time.Sleep(60 * time.Millisecond)

	_, found, _ = s.Get(ctx, "short")
	assert.False(t, found)

	got, err := s.Match(ctx, cache.CompilePattern("*"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "long", got[0].Key)

	// still counted until swept
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.DeleteExpired())
	assert.Equal(t, 1, s.Len())
}

func TestStore_MatchIsolatesUsers(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "health:user1:steps:1", []byte(`1`), time.Hour))
	require.NoError(t, s.Set(ctx, "health:user1:sleep:2", []byte(`2`), time.Hour))
	require.NoError(t, s.Set(ctx, "health:user2:steps:3", []byte(`3`), time.Hour))
	require.NoError(t, s.Set(ctx, "xhealth:user1:steps:4", []byte(`4`), time.Hour))

	got, err := s.Match(ctx, cache.CompilePattern("health:user1:*"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "health:user1:sleep:2", got[0].Key)
	assert.Equal(t, "health:user1:steps:1", got[1].Key)
}

func TestStore_Clear(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("k%d", i), []byte(`1`), time.Hour))
	}
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, key, []byte(`1`), time.Millisecond)
				_, _, _ = s.Get(ctx, key)
				_, _ = s.Match(ctx, cache.CompilePattern("k*"))
				s.DeleteExpired()
			}
		}(i)
	}
	wg.Wait()
}
