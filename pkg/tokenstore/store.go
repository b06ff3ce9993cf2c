package tokenstore

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTTL is returned by Put for non-positive TTLs.
var ErrInvalidTTL = errors.New("tokenstore: ttl must be positive")

// Store keeps keys alive for a bounded time.
type Store interface {
	// Put records key for ttl. An existing key has its ttl replaced.
	Put(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether key is recorded and not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// Consume removes key and reports whether it was present.
	// Of concurrent callers at most one observes true.
	Consume(ctx context.Context, key string) (bool, error)
}
