package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/cache"
	"github.com/marcelsud/pixbridge/connection"
	"github.com/marcelsud/pixbridge/integration"
)

// StateCollector implements Collector over the live registry, monitor and cache backend
type StateCollector struct {
	registry    *integration.Registry
	monitor     *connection.Monitor
	cache       cache.Reader
	cachePrefix string
}

// NewStateCollector creates a collector; cacheReader may be nil when no cache is wired
func NewStateCollector(registry *integration.Registry, monitor *connection.Monitor, cacheReader cache.Reader, cachePrefix string) *StateCollector {
	return &StateCollector{
		registry:    registry,
		monitor:     monitor,
		cache:       cacheReader,
		cachePrefix: cachePrefix,
	}
}

// Collect gathers all gauges at once
func (c *StateCollector) Collect(ctx context.Context) (Snapshot, error) {
	systemsByKind, err := c.GetSystemsByKind(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting systems by kind: %w", err)
	}

	online, err := c.GetOnline(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting connection state: %w", err)
	}

	cacheEntries, err := c.GetCacheEntries(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting cache entries: %w", err)
	}

	var inactive int64
	for _, system := range c.registry.List() {
		if !system.Active {
			inactive++
		}
	}

	return Snapshot{
		SystemsByKind:   systemsByKind,
		InactiveSystems: inactive,
		Online:          online,
		CacheEntries:    cacheEntries,
		Timestamp:       time.Now(),
	}, nil
}

// GetSystemsByKind counts registered systems, reporting every kind even when zero
func (c *StateCollector) GetSystemsByKind(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{
		integration.API.String():      0,
		integration.Webhook.String():  0,
		integration.Database.String(): 0,
		integration.Service.String():  0,
	}

	for _, system := range c.registry.List() {
		counts[system.Kind.String()]++
	}

	return counts, nil
}

func (c *StateCollector) GetOnline(ctx context.Context) (bool, error) {
	if c.monitor == nil {
		return false, nil
	}
	return c.monitor.IsOnline(), nil
}

// GetCacheEntries counts keys under the cache prefix
func (c *StateCollector) GetCacheEntries(ctx context.Context) (int64, error) {
	if c.cache == nil {
		return 0, nil
	}

	keys, err := c.cache.Keys(ctx, c.cachePrefix)
	if err != nil {
		return 0, fmt.Errorf("listing cache keys: %w", err)
	}
	return int64(len(keys)), nil
}
