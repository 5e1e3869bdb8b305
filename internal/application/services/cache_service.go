package services

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	opGet     = "get"
	opSet     = "set"
	opDelete  = "delete"
	opClear   = "clear"
	opPattern = "get_by_pattern"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultOK    = "ok"
	resultError = "error"
)

// CacheServiceConfig groups the tunables of the cache core.
type CacheServiceConfig struct {
	DefaultTTL       time.Duration
	OperationTimeout time.Duration
	BatchConcurrency int
}

// CacheService implements ports.CacheService over a remote store with a
// local fallback. The backend is resolved on every call.
type CacheService struct {
	conn    *ConnectionManager
	local   ports.LocalStore
	sweeper ports.Sweeper
	metrics ports.CacheMetrics
	logger  *logrus.Logger

	defaultTTL       time.Duration
	operationTimeout time.Duration
	batchConcurrency int

	stats   cache.Stats
	started time.Time
	now     func() time.Time
}

var _ ports.CacheService = (*CacheService)(nil)

func NewCacheService(conn *ConnectionManager, local ports.LocalStore, sweeper ports.Sweeper, metrics ports.CacheMetrics, cfg *CacheServiceConfig, logger *logrus.Logger) *CacheService {
	// Apply defaults
	ttl := cache.DefaultTTL
	timeout := 2 * time.Second
	concurrency := 16
	if cfg != nil {
		if cfg.DefaultTTL > 0 {
			ttl = cfg.DefaultTTL
		}
		if cfg.OperationTimeout > 0 {
			timeout = cfg.OperationTimeout
		}
		if cfg.BatchConcurrency > 0 {
			concurrency = cfg.BatchConcurrency
		}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CacheService{
		conn:             conn,
		local:            local,
		sweeper:          sweeper,
		metrics:          metrics,
		logger:           logger,
		defaultTTL:       ttl,
		operationTimeout: timeout,
		batchConcurrency: concurrency,
		started:          time.Now(),
		now:              time.Now,
	}
}

// Start launches background maintenance of the local store.
func (s *CacheService) Start() {
	if s.sweeper != nil {
		s.sweeper.Start()
	}
}

// onRemote runs fn against the remote store while Remote mode is active.
// served=false means the caller must fall through to the local store, either
// because Local is active or because fn failed and the manager was demoted.
// A failure caused by the caller's own context is returned without demoting.
func onRemote[T any](ctx context.Context, s *CacheService, op string, fn func(context.Context, ports.RemoteStore) (T, error)) (T, bool, error) {
	var zero T
	remote, ok := s.conn.Remote()
	if !ok {
		return zero, false, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	v, err := fn(opCtx, remote)
	if err == nil {
		return v, true, nil
	}
	if ctx.Err() != nil {
		return zero, true, ctx.Err()
	}
	s.conn.demoteStore(remote, op, err)
	return zero, false, nil
}

// GetRaw returns the encoded value stored under key.
func (s *CacheService) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, cache.ErrEmptyKey
	}
	type lookup struct {
		value []byte
		found bool
	}
	backend := cache.BackendRemote
	res, served, err := onRemote(ctx, s, opGet, func(ctx context.Context, r ports.RemoteStore) (lookup, error) {
		v, found, err := r.Get(ctx, key)
		return lookup{value: v, found: found}, err
	})
	if err == nil && !served {
		backend = cache.BackendLocal
		res.value, res.found, err = s.local.Get(ctx, key)
	}
	if err != nil {
		s.metrics.ObserveOperation(opGet, backend, resultError)
		return nil, false, err
	}
	if !res.found {
		s.stats.RecordMiss()
		s.metrics.ObserveOperation(opGet, backend, resultMiss)
		return nil, false, nil
	}
	s.stats.RecordHit()
	s.metrics.ObserveOperation(opGet, backend, resultHit)
	return res.value, true, nil
}

// Get decodes the value stored under key into dest. A nil dest only reports
// presence.
func (s *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, found, err := s.GetRaw(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return true, fmt.Errorf("%w: decode %q: %v", cache.ErrSerialization, key, err)
		}
	}
	return true, nil
}

// GetAs is a typed convenience over Get.
func GetAs[T any](ctx context.Context, svc ports.CacheService, key string) (T, bool, error) {
	var v T
	found, err := svc.Get(ctx, key, &v)
	return v, found, err
}

// Set encodes value and stores it for ttl. A zero ttl selects the default.
func (s *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return cache.ErrEmptyKey
	}
	ttl, err := cache.ResolveTTL(ttl, s.defaultTTL)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", cache.ErrSerialization, key, err)
	}

	backend := cache.BackendRemote
	_, served, err := onRemote(ctx, s, opSet, func(ctx context.Context, r ports.RemoteStore) (struct{}, error) {
		return struct{}{}, r.Set(ctx, key, data, ttl)
	})
	if err == nil && !served {
		backend = cache.BackendLocal
		err = s.local.Set(ctx, key, data, ttl)
	}
	if err != nil {
		s.metrics.ObserveOperation(opSet, backend, resultError)
		return err
	}
	s.stats.RecordSet()
	s.metrics.ObserveOperation(opSet, backend, resultOK)
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return cache.ErrEmptyKey
	}
	backend := cache.BackendRemote
	_, served, err := onRemote(ctx, s, opDelete, func(ctx context.Context, r ports.RemoteStore) (struct{}, error) {
		return struct{}{}, r.Delete(ctx, key)
	})
	if err == nil && !served {
		backend = cache.BackendLocal
		err = s.local.Delete(ctx, key)
	}
	if err != nil {
		s.metrics.ObserveOperation(opDelete, backend, resultError)
		return err
	}
	s.stats.RecordDelete()
	s.metrics.ObserveOperation(opDelete, backend, resultOK)
	return nil
}

// Clear removes every entry from the active backend.
func (s *CacheService) Clear(ctx context.Context) error {
	backend := cache.BackendRemote
	_, served, err := onRemote(ctx, s, opClear, func(ctx context.Context, r ports.RemoteStore) (struct{}, error) {
		return struct{}{}, r.Clear(ctx)
	})
	if err == nil && !served {
		backend = cache.BackendLocal
		err = s.local.Clear(ctx)
	}
	if err != nil {
		s.metrics.ObserveOperation(opClear, backend, resultError)
		return err
	}
	s.metrics.ObserveOperation(opClear, backend, resultOK)
	s.logger.WithField("backend", backend.String()).Info("Cache cleared")
	return nil
}

// GetByPattern returns the live entries whose keys match a glob where only
// '*' is special. Results are sorted by key and never nil.
func (s *CacheService) GetByPattern(ctx context.Context, pattern string) ([]cache.KeyValue, error) {
	p := cache.CompilePattern(pattern)

	backend := cache.BackendRemote
	entries, served, err := onRemote(ctx, s, opPattern, func(ctx context.Context, r ports.RemoteStore) ([]cache.KeyValue, error) {
		return r.Match(ctx, p)
	})
	if err == nil && !served {
		backend = cache.BackendLocal
		entries, err = s.local.Match(ctx, p)
	}
	if err != nil {
		s.metrics.ObserveOperation(opPattern, backend, resultError)
		return nil, err
	}
	s.metrics.ObserveOperation(opPattern, backend, resultOK)
	if entries == nil {
		entries = []cache.KeyValue{}
	}
	return entries, nil
}

// SetMultiple stores every entry independently and concurrently. A failing
// entry never aborts the others; failures are reported per key.
func (s *CacheService) SetMultiple(ctx context.Context, entries []cache.BatchEntry, ttl time.Duration) cache.BatchResult {
	result := cache.BatchResult{
		Succeeded: make([]string, 0, len(entries)),
		Failed:    make(map[string]error),
	}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for _, e := range entries {
		g.Go(func() error {
			err := s.Set(ctx, e.Key, e.Value, ttl)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[e.Key] = err
			} else {
				result.Succeeded = append(result.Succeeded, e.Key)
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(result.Succeeded)

	fields := logrus.Fields{"total": len(entries), "succeeded": len(result.Succeeded), "failed": len(result.Failed)}
	if !result.OK() {
		s.logger.WithFields(fields).WithField("failed_keys", result.FailedKeys()).Warn("Bulk cache set partially failed")
	} else {
		s.logger.WithFields(fields).Info("Bulk cache set")
	}
	return result
}

// HealthStatus reports the current backend, counters and memory usage. It
// never fails; remote diagnostics are left out when they cannot be read.
func (s *CacheService) HealthStatus(ctx context.Context) cache.HealthStatus {
	snap := s.stats.Snapshot()
	now := s.now()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	status := cache.HealthStatus{
		Backend:   s.conn.Backend(),
		Connected: s.conn.IsRemoteAvailable(),
		Stats:     snap,
		HitRate:   snap.HitRate,
		LocalSize: s.local.Len(),
		Uptime:    now.Sub(s.started),
		Memory: cache.ProcessMemory{
			HeapAlloc:  ms.HeapAlloc,
			HeapSys:    ms.HeapSys,
			Sys:        ms.Sys,
			NumGC:      ms.NumGC,
			Goroutines: runtime.NumGoroutine(),
		},
		CheckedAt: now.UTC(),
	}
	status.UptimeSecs = status.Uptime.Seconds()

	if remote, ok := s.conn.Remote(); ok {
		infoCtx, cancel := context.WithTimeout(ctx, s.operationTimeout)
		info, err := remote.MemoryInfo(infoCtx)
		cancel()
		if err != nil {
			s.logger.WithError(err).Debug("remote memory info unavailable")
		} else {
			status.RemoteMemory = info
		}
	}
	return status
}

func (s *CacheService) Stats() cache.StatsSnapshot {
	return s.stats.Snapshot()
}

// Close stops the sweeper and releases the remote connection.
func (s *CacheService) Close(ctx context.Context) error {
	if s.sweeper != nil {
		done := make(chan struct{})
		go func() {
			s.sweeper.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.conn.Close()
}
