package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

/* Backend is an in-process cache.Backend
 * Values never expire on their own; expiry is left to the cache.Store
 */
type Backend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewBackend creates an empty in-memory backend
func NewBackend() *Backend {
	return &Backend{values: make(map[string]string)}
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok, nil
}

// Keys returns the keys starting with prefix, sorted
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for k := range b.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Backend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.values, k)
	}
	return nil
}

func (b *Backend) Close(ctx context.Context) error {
	return nil
}
