package ports

import (
	"context"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

// Store defines the byte-level key-value contract shared by the remote and
// local backends. Values are already encoded; TTLs are always positive.
type Store interface {
	// Get returns the raw bytes for key. ok=false if not found or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the store's namespace.
	Clear(ctx context.Context) error
	// Match returns the live entries whose keys match pattern.
	Match(ctx context.Context, pattern *cache.Pattern) ([]cache.KeyValue, error)
}

// RemoteStore is a shared store reached over the network.
type RemoteStore interface {
	Store
	Ping(ctx context.Context) error
	// MemoryInfo returns backend memory diagnostics.
	MemoryInfo(ctx context.Context) (map[string]string, error)
	Close() error
}

// LocalStore is the in-process fallback store.
type LocalStore interface {
	Store
	Len() int
	// DeleteExpired evicts expired entries and returns how many were removed.
	DeleteExpired() int
}

// RemoteEvents receives transport-level notifications from a remote client.
type RemoteEvents interface {
	OnConnect()
	OnError(err error)
}

// RemoteDialer opens a connection to a remote store. Implementations report
// later transport events to events.
type RemoteDialer interface {
	Dial(ctx context.Context, events RemoteEvents) (RemoteStore, error)
}

// CacheMetrics receives cache observations. Implementations must be safe for
// concurrent use.
type CacheMetrics interface {
	ObserveOperation(operation string, backend cache.Backend, result string)
	SetBackend(backend cache.Backend)
	IncDemotions()
	AddSweepEvictions(n int)
}

// CacheService is the programmatic contract offered to the rest of the
// application. Callers never learn which backend served a call.
type CacheService interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	GetRaw(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetByPattern(ctx context.Context, pattern string) ([]cache.KeyValue, error)
	SetMultiple(ctx context.Context, entries []cache.BatchEntry, ttl time.Duration) cache.BatchResult
	HealthStatus(ctx context.Context) cache.HealthStatus
	Stats() cache.StatsSnapshot
}

// Sweeper evicts expired entries from the local store on a schedule.
type Sweeper interface {
	Start()
	Stop()
	Sweep() int
}
