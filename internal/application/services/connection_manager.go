package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RetryPolicy bounds connection attempts to the remote backend.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
	MaxElapsed      time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     3 * time.Second,
		MaxAttempts:     10,
		MaxElapsed:      30 * time.Second,
	}
}

// remoteHandle is one dialed connection. gen identifies the dial attempt so
// events from a replaced connection can be told apart from the current one.
type remoteHandle struct {
	store ports.RemoteStore
	gen   uint64
}

// connEvents receives transport events for a single dial attempt.
type connEvents struct {
	m   *ConnectionManager
	gen uint64
}

// OnError implements ports.RemoteEvents.
func (e *connEvents) OnError(err error) {
	e.m.demote("transport", err, func(h *remoteHandle) bool { return h.gen == e.gen })
}

// OnConnect implements ports.RemoteEvents. Connections opened outside of
// Initialize never promote the manager back to Remote.
func (e *connEvents) OnConnect() {
	if e.m.initializing.Load() {
		e.m.logger.Debug("remote cache connection established")
		return
	}
	e.m.logger.Debug("remote cache reconnect ignored until re-initialization")
}

// ConnectionManager owns the remote store handle and the Remote/Local state.
// Callers read the state lock-free; transitions are serialized by mu.
type ConnectionManager struct {
	dialer       ports.RemoteDialer
	retry        RetryPolicy
	probeTimeout time.Duration
	metrics      ports.CacheMetrics
	logger       *logrus.Logger

	mu           sync.Mutex
	remote       atomic.Pointer[remoteHandle]
	connected    atomic.Bool
	initializing atomic.Bool
	generation   atomic.Uint64
	initGroup    singleflight.Group
}

// NewConnectionManager creates a manager in Local mode. A nil dialer means no
// remote backend is configured.
func NewConnectionManager(dialer ports.RemoteDialer, retry RetryPolicy, metrics ports.CacheMetrics, logger *logrus.Logger) *ConnectionManager {
	def := DefaultRetryPolicy()
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = def.InitialInterval
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = def.MaxInterval
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = def.MaxAttempts
	}
	if retry.MaxElapsed <= 0 {
		retry.MaxElapsed = def.MaxElapsed
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	m := &ConnectionManager{
		dialer:       dialer,
		retry:        retry,
		probeTimeout: 2 * time.Second,
		metrics:      metrics,
		logger:       logger,
	}
	m.metrics.SetBackend(cache.BackendLocal)
	return m
}

// Initialize attempts to connect to the remote backend. It never fails: when
// the remote cannot be reached the manager stays in Local mode. Concurrent
// calls share one attempt, and calling it while Remote is active is a no-op.
func (m *ConnectionManager) Initialize(ctx context.Context) cache.Backend {
	if m.dialer == nil {
		m.logger.Info("No remote cache configured, using in-memory cache")
		return m.Backend()
	}
	_, _, _ = m.initGroup.Do("initialize", func() (any, error) {
		m.connect(ctx)
		return nil, nil
	})
	return m.Backend()
}

func (m *ConnectionManager) connect(ctx context.Context) {
	if m.IsRemoteAvailable() {
		return
	}
	m.initializing.Store(true)
	defer m.initializing.Store(false)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = m.retry.InitialInterval
	eb.MaxInterval = m.retry.MaxInterval

	attempts := 0
	handle, err := backoff.Retry(ctx, func() (*remoteHandle, error) {
		attempts++
		gen := m.generation.Add(1)
		s, err := m.dialer.Dial(ctx, &connEvents{m: m, gen: gen})
		if err != nil {
			if errors.Is(err, syscall.ECONNREFUSED) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return &remoteHandle{store: s, gen: gen}, nil
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(m.retry.MaxAttempts)),
		backoff.WithMaxElapsedTime(m.retry.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.logger.WithError(err).WithField("retry_in", next.String()).Debug("remote cache connection attempt failed")
		}),
	)
	if err != nil {
		m.logger.WithError(err).WithField("attempts", attempts).Warn("Failed to connect to remote cache, using in-memory cache")
		return
	}

	m.attach(handle)
	m.logger.WithField("attempts", attempts).Info("Connected to remote cache")
}

func (m *ConnectionManager) attach(h *remoteHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old := m.remote.Swap(h); old != nil {
		_ = old.store.Close()
	}
	m.connected.Store(true)
	m.metrics.SetBackend(cache.BackendRemote)
}

// Demote switches to Local mode after a remote failure. Only the first
// failure of a connection is logged; the handle is detached and closed.
func (m *ConnectionManager) Demote(operation string, err error) {
	m.demote(operation, err, func(*remoteHandle) bool { return true })
}

// demoteStore demotes only while store is still the attached connection, so a
// failure on a replaced connection cannot detach a fresh one.
func (m *ConnectionManager) demoteStore(store ports.RemoteStore, operation string, err error) {
	m.demote(operation, err, func(h *remoteHandle) bool { return h.store == store })
}

func (m *ConnectionManager) demote(operation string, err error, current func(*remoteHandle) bool) {
	m.mu.Lock()
	h := m.remote.Load()
	if h == nil || !current(h) || !m.connected.CompareAndSwap(true, false) {
		m.mu.Unlock()
		return
	}
	m.remote.Store(nil)
	m.mu.Unlock()

	m.metrics.IncDemotions()
	m.metrics.SetBackend(cache.BackendLocal)
	m.logger.WithError(err).WithField("operation", operation).Warn("Remote cache error, using in-memory cache")

	go func() { _ = h.store.Close() }()
}

// IsRemoteAvailable reports the latest known connectivity.
func (m *ConnectionManager) IsRemoteAvailable() bool {
	return m.connected.Load() && m.remote.Load() != nil
}

// Remote returns the active remote store, if Remote mode is active.
func (m *ConnectionManager) Remote() (ports.RemoteStore, bool) {
	if !m.connected.Load() {
		return nil, false
	}
	h := m.remote.Load()
	if h == nil {
		return nil, false
	}
	return h.store, true
}

func (m *ConnectionManager) Backend() cache.Backend {
	if m.IsRemoteAvailable() {
		return cache.BackendRemote
	}
	return cache.BackendLocal
}

// Probe pings the remote while Remote mode is active and demotes on failure.
// It reports whether the remote is still serving.
func (m *ConnectionManager) Probe(ctx context.Context) bool {
	remote, ok := m.Remote()
	if !ok {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	if err := remote.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return m.IsRemoteAvailable()
		}
		m.demoteStore(remote, "ping", err)
		return false
	}
	return true
}

// Watch probes the remote every interval until ctx is done, so a silently
// dropped connection is noticed without waiting for caller traffic.
func (m *ConnectionManager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Close releases the remote handle and leaves the manager in Local mode.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	h := m.remote.Swap(nil)
	m.connected.Store(false)
	m.mu.Unlock()

	m.metrics.SetBackend(cache.BackendLocal)
	if h == nil {
		return nil
	}
	return h.store.Close()
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, cache.Backend, string) {}
func (noopMetrics) SetBackend(cache.Backend)                      {}
func (noopMetrics) IncDemotions()                                 {}
func (noopMetrics) AddSweepEvictions(int)                         {}
