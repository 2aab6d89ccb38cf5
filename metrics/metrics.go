package metrics

import (
	"context"
	"time"
)

// Snapshot represents the current state of the integration layer.
type Snapshot struct {
	// SystemsByKind maps kind name to the number of registered systems
	SystemsByKind map[string]int64 `json:"systems_by_kind"`

	// InactiveSystems is the number of registered systems with active=false
	InactiveSystems int64 `json:"inactive_systems"`

	// Online is the connection monitor's current flag
	Online bool `json:"online"`

	// CacheEntries is the number of keys under the cache prefix, expired ones included
	CacheEntries int64 `json:"cache_entries"`

	// Timestamp when the snapshot was collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for reading point-in-time state for the gauges.
type Collector interface {
	// Collect gathers a full snapshot
	Collect(ctx context.Context) (Snapshot, error)

	// GetSystemsByKind returns the number of registered systems per kind
	GetSystemsByKind(ctx context.Context) (map[string]int64, error)

	// GetOnline reports the connection flag
	GetOnline(ctx context.Context) (bool, error)

	// GetCacheEntries returns the number of cache keys in the backend
	GetCacheEntries(ctx context.Context) (int64, error)
}
