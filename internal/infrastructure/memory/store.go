package memory

import (
	"context"
	"sort"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	gocache "github.com/patrickmn/go-cache"
)

// Store is the in-process fallback store. It keeps encoded values with a
// per-entry expiration. An entry reads as absent from the instant it expires
// (now >= expiresAt) and is physically removed by DeleteExpired.
type Store struct {
	items *gocache.Cache
	now   func() time.Time
}

// NewStore creates an empty store. go-cache's own janitor is disabled; the
// Sweeper decides when expired entries are evicted.
func NewStore() *Store {
	return &Store{items: gocache.New(gocache.NoExpiration, 0), now: time.Now}
}

// Get implements ports.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	// go-cache only expires strictly after the deadline
	v, exp, ok := s.items.GetWithExpiration(key)
	if !ok || (!exp.IsZero() && !s.now().Before(exp)) {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

// Set implements ports.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return cache.ErrInvalidTTL
	}
	s.items.Set(key, value, ttl)
	return nil
}

// Delete implements ports.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

// Clear implements ports.Store.
func (s *Store) Clear(ctx context.Context) error {
	s.items.Flush()
	return nil
}

// Match implements ports.Store.
func (s *Store) Match(ctx context.Context, pattern *cache.Pattern) ([]cache.KeyValue, error) {
	now := s.now().UnixNano()
	var out []cache.KeyValue
	for k, item := range s.items.Items() {
		if item.Expiration > 0 && now >= item.Expiration {
			continue
		}
		if !pattern.Match(k) {
			continue
		}
		b, ok := item.Object.([]byte)
		if !ok {
			continue
		}
		out = append(out, cache.KeyValue{Key: k, Value: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Len reports stored entries, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.items.ItemCount()
}

// DeleteExpired implements ports.LocalStore.
func (s *Store) DeleteExpired() int {
	before := s.items.ItemCount()
	s.items.DeleteExpired()
	if removed := before - s.items.ItemCount(); removed > 0 {
		return removed
	}
	return 0
}
