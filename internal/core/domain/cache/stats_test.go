package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

func TestStats_HitRate(t *testing.T) {
	var s cache.Stats
	require.Equal(t, 0.0, s.Snapshot().HitRate)

	s.RecordHit()
	s.RecordHit()
	s.RecordHit()
	s.RecordMiss()

	snap := s.Snapshot()
	assert.Equal(t, uint64(3), snap.Hits)
	assert.Equal(t, uint64(1), snap.Misses)
	assert.InDelta(t, 0.75, snap.HitRate, 1e-9)
}

func TestStats_ConcurrentUpdates(t *testing.T) {
	var s cache.Stats
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordSet()
			s.RecordDelete()
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	require.Equal(t, uint64(50), snap.Sets)
	require.Equal(t, uint64(50), snap.Deletes)
}

func TestHitRate_ZeroDenominator(t *testing.T) {
	require.Equal(t, 0.0, cache.HitRate(0, 0))
	require.Equal(t, 1.0, cache.HitRate(4, 0))
}
