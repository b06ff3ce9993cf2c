package tokenstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores keys as Redis strings with native expiry.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Redis store.
type Option func(*Redis)

// WithPrefix namespaces every key as "<prefix>:<key>".
func WithPrefix(p string) Option {
	return func(r *Redis) { r.prefix = p }
}

// NewRedis creates a store on an open client. The caller owns the client.
func NewRedis(client redis.UniversalClient, opts ...Option) *Redis {
	r := &Redis{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Put(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return r.client.Set(ctx, r.key(key), "1", ttl).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Consume relies on DEL returning the number of removed keys.
func (r *Redis) Consume(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Store = (*Redis)(nil)
