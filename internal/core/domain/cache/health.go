package cache

import "time"

// HealthStatus is a point-in-time view of the cache used by health endpoints.
type HealthStatus struct {
	Backend      Backend           `json:"cache_type"`
	Connected    bool              `json:"is_connected"`
	Stats        StatsSnapshot     `json:"stats"`
	HitRate      float64           `json:"hit_rate"`
	LocalSize    int               `json:"memory_cache_size"`
	Uptime       time.Duration     `json:"-"`
	UptimeSecs   float64           `json:"uptime_seconds"`
	Memory       ProcessMemory     `json:"memory_usage"`
	RemoteMemory map[string]string `json:"remote_memory,omitempty"`
	CheckedAt    time.Time         `json:"checked_at"`
}

// ProcessMemory is a subset of runtime.MemStats.
type ProcessMemory struct {
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}
