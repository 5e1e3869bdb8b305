package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

func TestStore_AbsentAtExactExpiry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "health:u1:hr:1", []byte(`1`), time.Hour))

	_, exp, ok := s.items.GetWithExpiration("health:u1:hr:1")
	require.True(t, ok)

	s.now = func() time.Time { return exp.Add(-time.Nanosecond) }
	_, found, err := s.Get(ctx, "health:u1:hr:1")
	require.NoError(t, err)
	assert.True(t, found)

	s.now = func() time.Time { return exp }
	_, found, err = s.Get(ctx, "health:u1:hr:1")
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := s.Match(ctx, cache.CompilePattern("health:*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
