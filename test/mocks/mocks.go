package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/core/ports"
)

// RemoteStoreMock is a lightweight mock for ports.RemoteStore
type RemoteStoreMock struct {
	GetFn        func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn        func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFn     func(ctx context.Context, key string) error
	ClearFn      func(ctx context.Context) error
	MatchFn      func(ctx context.Context, pattern *cache.Pattern) ([]cache.KeyValue, error)
	PingFn       func(ctx context.Context) error
	MemoryInfoFn func(ctx context.Context) (map[string]string, error)
	CloseFn      func() error

	Closed atomic.Int32
}

func (m *RemoteStoreMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false, nil
}
func (m *RemoteStoreMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return nil
}
func (m *RemoteStoreMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}
func (m *RemoteStoreMock) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}
func (m *RemoteStoreMock) Match(ctx context.Context, pattern *cache.Pattern) ([]cache.KeyValue, error) {
	if m.MatchFn != nil {
		return m.MatchFn(ctx, pattern)
	}
	return nil, nil
}
func (m *RemoteStoreMock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}
func (m *RemoteStoreMock) MemoryInfo(ctx context.Context) (map[string]string, error) {
	if m.MemoryInfoFn != nil {
		return m.MemoryInfoFn(ctx)
	}
	return map[string]string{}, nil
}
func (m *RemoteStoreMock) Close() error {
	m.Closed.Add(1)
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// RemoteDialerMock is a lightweight mock for ports.RemoteDialer. It counts
// calls and keeps the events sink of the last dial.
type RemoteDialerMock struct {
	DialFn func(ctx context.Context, events ports.RemoteEvents) (ports.RemoteStore, error)

	mu     sync.Mutex
	calls  int
	events ports.RemoteEvents
}

func (m *RemoteDialerMock) Dial(ctx context.Context, events ports.RemoteEvents) (ports.RemoteStore, error) {
	m.mu.Lock()
	m.calls++
	m.events = events
	m.mu.Unlock()
	if m.DialFn != nil {
		return m.DialFn(ctx, events)
	}
	return &RemoteStoreMock{}, nil
}

func (m *RemoteDialerMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *RemoteDialerMock) Events() ports.RemoteEvents {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

// CacheServiceMock is a lightweight mock for ports.CacheService
type CacheServiceMock struct {
	GetFn          func(ctx context.Context, key string, dest any) (bool, error)
	GetRawFn       func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn          func(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteFn       func(ctx context.Context, key string) error
	ClearFn        func(ctx context.Context) error
	GetByPatternFn func(ctx context.Context, pattern string) ([]cache.KeyValue, error)
	SetMultipleFn  func(ctx context.Context, entries []cache.BatchEntry, ttl time.Duration) cache.BatchResult
	HealthStatusFn func(ctx context.Context) cache.HealthStatus
	StatsFn        func() cache.StatsSnapshot
}

func (m *CacheServiceMock) Get(ctx context.Context, key string, dest any) (bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key, dest)
	}
	return false, nil
}
func (m *CacheServiceMock) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetRawFn != nil {
		return m.GetRawFn(ctx, key)
	}
	return nil, false, nil
}
func (m *CacheServiceMock) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return nil
}
func (m *CacheServiceMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}
func (m *CacheServiceMock) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}
func (m *CacheServiceMock) GetByPattern(ctx context.Context, pattern string) ([]cache.KeyValue, error) {
	if m.GetByPatternFn != nil {
		return m.GetByPatternFn(ctx, pattern)
	}
	return []cache.KeyValue{}, nil
}
func (m *CacheServiceMock) SetMultiple(ctx context.Context, entries []cache.BatchEntry, ttl time.Duration) cache.BatchResult {
	if m.SetMultipleFn != nil {
		return m.SetMultipleFn(ctx, entries, ttl)
	}
	return cache.BatchResult{Failed: map[string]error{}}
}
func (m *CacheServiceMock) HealthStatus(ctx context.Context) cache.HealthStatus {
	if m.HealthStatusFn != nil {
		return m.HealthStatusFn(ctx)
	}
	return cache.HealthStatus{Backend: cache.BackendLocal}
}
func (m *CacheServiceMock) Stats() cache.StatsSnapshot {
	if m.StatsFn != nil {
		return m.StatsFn()
	}
	return cache.StatsSnapshot{}
}

// CacheMetricsMock records observations in memory.
type CacheMetricsMock struct {
	mu         sync.Mutex
	Operations []string
	Backend    cache.Backend
	Demotions  int
	Evictions  int
}

func (m *CacheMetricsMock) ObserveOperation(operation string, backend cache.Backend, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations = append(m.Operations, operation+"/"+backend.String()+"/"+result)
}
func (m *CacheMetricsMock) SetBackend(backend cache.Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Backend = backend
}
func (m *CacheMetricsMock) IncDemotions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Demotions++
}
func (m *CacheMetricsMock) AddSweepEvictions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Evictions += n
}

// Snapshot returns a copy of the recorded operations.
func (m *CacheMetricsMock) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Operations...)
}

func (m *CacheMetricsMock) DemotionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Demotions
}

// HealthDataServiceMock is a lightweight mock for ports.HealthDataService
type HealthDataServiceMock struct {
	CacheHealthDataFn func(ctx context.Context, userID, dataType string, data any, ttl time.Duration) (string, error)
	GetHealthDataFn   func(ctx context.Context, userID, dataType string) ([]cache.KeyValue, error)
	CacheFamilyDataFn func(ctx context.Context, familyID string, data any, ttl time.Duration) error
	GetFamilyDataFn   func(ctx context.Context, familyID string, dest any) (bool, error)
	CacheAnalysisFn   func(ctx context.Context, userID, analysisID string, data any, ttl time.Duration) error
	GetAnalysisFn     func(ctx context.Context, userID, analysisID string, dest any) (bool, error)
	ListAnalysesFn    func(ctx context.Context, userID string) ([]cache.KeyValue, error)
}

func (m *HealthDataServiceMock) CacheHealthData(ctx context.Context, userID, dataType string, data any, ttl time.Duration) (string, error) {
	if m.CacheHealthDataFn != nil {
		return m.CacheHealthDataFn(ctx, userID, dataType, data, ttl)
	}
	return "", nil
}
func (m *HealthDataServiceMock) GetHealthData(ctx context.Context, userID, dataType string) ([]cache.KeyValue, error) {
	if m.GetHealthDataFn != nil {
		return m.GetHealthDataFn(ctx, userID, dataType)
	}
	return []cache.KeyValue{}, nil
}
func (m *HealthDataServiceMock) CacheFamilyData(ctx context.Context, familyID string, data any, ttl time.Duration) error {
	if m.CacheFamilyDataFn != nil {
		return m.CacheFamilyDataFn(ctx, familyID, data, ttl)
	}
	return nil
}
func (m *HealthDataServiceMock) GetFamilyData(ctx context.Context, familyID string, dest any) (bool, error) {
	if m.GetFamilyDataFn != nil {
		return m.GetFamilyDataFn(ctx, familyID, dest)
	}
	return false, nil
}
func (m *HealthDataServiceMock) CacheAnalysis(ctx context.Context, userID, analysisID string, data any, ttl time.Duration) error {
	if m.CacheAnalysisFn != nil {
		return m.CacheAnalysisFn(ctx, userID, analysisID, data, ttl)
	}
	return nil
}
func (m *HealthDataServiceMock) GetAnalysis(ctx context.Context, userID, analysisID string, dest any) (bool, error) {
	if m.GetAnalysisFn != nil {
		return m.GetAnalysisFn(ctx, userID, analysisID, dest)
	}
	return false, nil
}
func (m *HealthDataServiceMock) ListAnalyses(ctx context.Context, userID string) ([]cache.KeyValue, error) {
	if m.ListAnalysesFn != nil {
		return m.ListAnalysesFn(ctx, userID)
	}
	return []cache.KeyValue{}, nil
}
