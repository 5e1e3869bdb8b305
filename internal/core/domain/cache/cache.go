package cache

import (
	"encoding/json"
	"sort"
	"time"
)

// DefaultTTL is the retention applied when a caller passes a zero TTL.
const DefaultTTL = 720 * time.Hour

type Backend int

const (
	BackendLocal Backend = iota
	BackendRemote
)

func (b Backend) String() string {
	switch b {
	case BackendRemote:
		return "remote"
	case BackendLocal:
		return "local"
	default:
		return "unknown"
	}
}

func (b Backend) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// KeyValue is a single entry returned by a pattern query.
type KeyValue struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// BatchEntry is one element of a SetMultiple call.
type BatchEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// BatchResult reports the per-key outcome of SetMultiple.
type BatchResult struct {
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"-"`
}

// OK reports whether every entry of the batch was stored.
func (r BatchResult) OK() bool { return len(r.Failed) == 0 }

func (r BatchResult) SuccessCount() int { return len(r.Succeeded) }

// FailedKeys returns the keys that were not stored, sorted.
func (r BatchResult) FailedKeys() []string {
	keys := make([]string, 0, len(r.Failed))
	for k := range r.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolveTTL maps a caller TTL onto the effective one: zero selects def,
// negative is rejected.
func ResolveTTL(ttl, def time.Duration) (time.Duration, error) {
	switch {
	case ttl < 0:
		return 0, ErrInvalidTTL
	case ttl == 0:
		if def <= 0 {
			return DefaultTTL, nil
		}
		return def, nil
	default:
		return ttl, nil
	}
}

// Hours converts an hour count from configuration into a duration.
func Hours(h int) time.Duration { return time.Duration(h) * time.Hour }
