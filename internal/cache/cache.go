// Package cache provides short-lived key/value storage with per-entry expiry.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a TTL key/value store. Expiry is checked on every read.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Taker is implemented by stores that can read and delete a key in one step
type Taker interface {
	Take(ctx context.Context, key string) ([]byte, error)
}

// Take reads a key and deletes it, for single-use values such as OAuth state.
// Stores implementing Taker guarantee at most one caller receives the value.
func Take(ctx context.Context, s Store, key string) ([]byte, error) {
	if t, ok := s.(Taker); ok {
		return t.Take(ctx, key)
	}
	value, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(ctx, key); err != nil {
		return nil, err
	}
	return value, nil
}
