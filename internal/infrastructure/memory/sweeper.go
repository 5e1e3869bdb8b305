package memory

import (
	"sync"
	"time"

	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSweepInterval matches the documented fallback sweep cadence.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically evicts expired entries from a LocalStore. A tick is a
// no-op while skip reports true (the remote backend is serving).
type Sweeper struct {
	store    ports.LocalStore
	skip     func() bool
	metrics  ports.CacheMetrics
	logger   *logrus.Logger
	interval time.Duration
	cron     *cron.Cron

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewSweeper(store ports.LocalStore, interval time.Duration, skip func() bool, metrics ports.CacheMetrics, logger *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = logrus.New()
	}
	cronLogger := cron.PrintfLogger(logger)
	s := &Sweeper{
		store:    store,
		skip:     skip,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.Sweep() }))
	return s
}

// Start begins the periodic sweep. Calling it more than once has no effect.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()
		s.logger.WithField("interval", s.interval.String()).Debug("local cache sweeper started")
	})
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
	})
}

// Sweep evicts expired entries once and returns how many were removed.
func (s *Sweeper) Sweep() int {
	if s.skip != nil && s.skip() {
		return 0
	}
	removed := s.store.DeleteExpired()
	if removed > 0 {
		if s.metrics != nil {
			s.metrics.AddSweepEvictions(removed)
		}
		s.logger.WithField("expired", removed).Debug("cleaned up expired cache entries")
	}
	return removed
}
