package cache

import (
	"context"
	"time"
)

/* Backend is the persistent key-value store under the cache
 * Small interfaces composed the same way as the rest of the repository
 */

// Reader provides read access to raw values
type Reader interface {
	/* Get returns the stored value and whether it exists
	 * A missing key is not an error
	 */
	Get(ctx context.Context, key string) (string, bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Writer provides write access to raw values
type Writer interface {
	/* Set stores value under key
	 * ttl > 0 lets the backend evict the key on its own at or after ttl
	 */
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Backend composes the operations the Store needs
type Backend interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
