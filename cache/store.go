package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is used when Set is called without a ttl
	DefaultTTL = 5 * time.Minute

	// DefaultPrefix namespaces cache keys so Clear leaves other persisted state alone
	DefaultPrefix = "dmccrypto_cache_"
)

// entry is the persisted form: {"data": ..., "timestamp": unix ms, "expiry": ms}
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Expiry    int64           `json:"expiry"`
}

func (e entry) expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.Expiry
}

/* Store is an expiring cache over a Backend
 * Reads never fail: backend and decoding problems are logged and read as absent
 */
type Store struct {
	backend Backend
	prefix  string
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a cache over backend
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		prefix:  DefaultPrefix,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores data under key for ttl (DefaultTTL when ttl <= 0)
func (s *Store) Set(ctx context.Context, key string, data any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling cache data: %w", err)
	}
	encoded, err := json.Marshal(entry{
		Data:      raw,
		Timestamp: s.now().UnixMilli(),
		Expiry:    ttl.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	if err := s.backend.Set(ctx, s.prefix+key, string(encoded), ttl); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

/* Get returns the cached data for key
 * An expired entry is deleted and reported as absent
 */
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	value, ok, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("reading cache entry")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(value), &e); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("decoding cache entry")
		return nil, false
	}

	if e.expired(s.now()) {
		s.Remove(ctx, key)
		return nil, false
	}
	return e.Data, true
}

// GetInto decodes the cached data for key into v
func (s *Store) GetInto(ctx context.Context, key string, v any) bool {
	data, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("decoding cached data")
		return false
	}
	return true
}

// Remove deletes key unconditionally
func (s *Store) Remove(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("removing cache entry")
	}
}

// Clear deletes every entry under the store's prefix
func (s *Store) Clear(ctx context.Context) {
	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		s.logger.Warn().Err(err).Msg("listing cache entries")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Msg("clearing cache entries")
	}
}
