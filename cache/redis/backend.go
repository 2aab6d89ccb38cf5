package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Redis implementation of cache.Backend
 * Plain string keys; entries written with a ttl also get a native Redis expiry
 */

const scanBatch = 100

type Backend struct {
	client *redis.Client
}

// NewBackend connects to Redis and verifies the connection
func NewBackend(addr, password string, db int) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewBackendFromClient(client), nil
}

// NewBackendFromClient wraps an existing client without pinging it
func NewBackendFromClient(client *redis.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, true, nil
}

// Keys scans for keys starting with prefix
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"
	var keys []string

	var cursor uint64
	for {
		batch, next, err := b.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning keys: %w", err)
		}
		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (b *Backend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client
func (b *Backend) Client() *redis.Client {
	return b.client
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close()
}

func escapeGlob(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(s)
}
