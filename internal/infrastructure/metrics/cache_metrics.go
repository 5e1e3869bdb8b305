package metrics

import (
	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics implements ports.CacheMetrics with Prometheus collectors.
type CacheMetrics struct {
	operations     *prometheus.CounterVec
	remoteActive   prometheus.Gauge
	demotions      prometheus.Counter
	sweepEvictions prometheus.Counter
	localEntries   prometheus.GaugeFunc
}

// NewCacheMetrics registers the cache collectors on reg. localSize, when
// non-nil, backs the cache_local_entries gauge.
func NewCacheMetrics(reg prometheus.Registerer, localSize func() int) *CacheMetrics {
	m := &CacheMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Cache operations by operation, serving backend and result",
			},
			[]string{"operation", "backend", "result"},
		),
		remoteActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_remote_active",
			Help: "1 when the remote backend is serving, 0 when the local fallback is",
		}),
		demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_demotions_total",
			Help: "Transitions from the remote backend to the local fallback",
		}),
		sweepEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_sweep_evictions_total",
			Help: "Expired entries evicted from the local fallback by the sweeper",
		}),
	}
	reg.MustRegister(m.operations, m.remoteActive, m.demotions, m.sweepEvictions)

	if localSize != nil {
		m.localEntries = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cache_local_entries",
			Help: "Entries held by the local fallback store, including unswept expired ones",
		}, func() float64 { return float64(localSize()) })
		reg.MustRegister(m.localEntries)
	}
	return m
}

func (m *CacheMetrics) ObserveOperation(operation string, backend cache.Backend, result string) {
	m.operations.WithLabelValues(operation, backend.String(), result).Inc()
}

func (m *CacheMetrics) SetBackend(backend cache.Backend) {
	if backend == cache.BackendRemote {
		m.remoteActive.Set(1)
		return
	}
	m.remoteActive.Set(0)
}

func (m *CacheMetrics) IncDemotions() { m.demotions.Inc() }

func (m *CacheMetrics) AddSweepEvictions(n int) {
	if n > 0 {
		m.sweepEvictions.Add(float64(n))
	}
}
