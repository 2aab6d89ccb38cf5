package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Source tells where a Fallback result came from
type Source int

const (
	Live Source = iota + 1
	Cached
)

func (s Source) String() string {
	switch s {
	case Live:
		return "live"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

// FetchFunc loads fresh data for a Fallback call
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

/* Fallback serves key from the network when possible and from the cache otherwise
 * Offline with a cached value: the cached value, fetch is not called
 * Online (or offline without a cached value): fetch, cache the result on success
 * Fetch failure: the cached value if any, else the fetch error
 */
func (s *Store) Fallback(ctx context.Context, key string, online bool, ttl time.Duration, fetch FetchFunc) (json.RawMessage, Source, error) {
	if !online {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, Cached, nil
		}
	}

	fresh, err := fetch(ctx)
	if err != nil {
		if cached, ok := s.Get(ctx, key); ok {
			s.logger.Info().Err(err).Str("key", key).Msg("serving cached data after fetch failure")
			return cached, Cached, nil
		}
		return nil, 0, fmt.Errorf("fetching %s: %w", key, err)
	}

	if err := s.Set(ctx, key, fresh, ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("caching fetched data")
	}
	return fresh, Live, nil
}
