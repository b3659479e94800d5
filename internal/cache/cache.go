// Package cache is the key-value store behind OTP codes, login-attempt
// counters, trial flags, the token blacklist and the request rate limiter.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is implemented by RedisCache and MemoryCache. Every write carries a TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Incr increments key and arms ttl when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL is the remaining lifetime of key, zero when missing.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
