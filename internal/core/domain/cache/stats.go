package cache

import "sync/atomic"

// Stats holds process-lifetime operation counters. The zero value is ready to use.
type Stats struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
}

type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Deletes uint64  `json:"deletes"`
	HitRate float64 `json:"hit_rate"`
}

func (s *Stats) RecordHit()    { s.hits.Add(1) }
func (s *Stats) RecordMiss()   { s.misses.Add(1) }
func (s *Stats) RecordSet()    { s.sets.Add(1) }
func (s *Stats) RecordDelete() { s.deletes.Add(1) }

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Sets:    s.sets.Load(),
		Deletes: s.deletes.Load(),
	}
	snap.HitRate = HitRate(snap.Hits, snap.Misses)
	return snap
}

// HitRate returns hits/(hits+misses), or 0 when nothing was read yet.
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
