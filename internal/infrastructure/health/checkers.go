package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/health-cache/internal/core/ports"
)

const checkKeyPrefix = "__health__:"

// ErrRemoteUnavailable is reported while the cache is serving from the local store.
var ErrRemoteUnavailable = errors.New("remote cache unavailable, serving from local store")

// localCacheChecker round-trips a short-lived entry through the local store.
// It bypasses the cache service so hit/miss counters are not affected. Each
// check writes its own key so concurrent checks never observe each other.
type localCacheChecker struct{ store ports.LocalStore }

func (l *localCacheChecker) Name() string { return "local_cache" }
func (l *localCacheChecker) Check(ctx context.Context) error {
	key := checkKeyPrefix + uuid.NewString()
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := l.store.Set(ctx, key, want, time.Minute); err != nil {
		return err
	}
	defer l.store.Delete(ctx, key)
	got, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || string(got) != string(want) {
		return fmt.Errorf("local cache round trip mismatch for %s", key)
	}
	return nil
}

type remoteProber interface {
	Probe(ctx context.Context) bool
}

// remoteCacheChecker pings the remote backend through the connection manager,
// which demotes to local mode when the ping fails.
type remoteCacheChecker struct{ conn remoteProber }

func (r *remoteCacheChecker) Name() string { return "redis" }
func (r *remoteCacheChecker) Check(ctx context.Context) error {
	if !r.conn.Probe(ctx) {
		return ErrRemoteUnavailable
	}
	return nil
}

// NewLocalCacheHealthChecker creates a health checker for the in-process store.
func NewLocalCacheHealthChecker(store ports.LocalStore) ports.HealthChecker {
	return &localCacheChecker{store: store}
}

// NewRemoteCacheHealthChecker creates a health checker for the remote backend.
func NewRemoteCacheHealthChecker(conn remoteProber) ports.HealthChecker {
	return &remoteCacheChecker{conn: conn}
}
