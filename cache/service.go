package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidValue is returned by Get when a cached payload cannot be decoded
// into the requested type.
var ErrInvalidValue = errors.New("cache: invalid cached value")

// CacheService is the key/value contract the todo service reads through and
// invalidates. Values are opaque serialized payloads; Get reports a miss with
// ok == false and a nil error.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Get is a type-safe wrapper that fetches key from service and decodes it into T.
func Get[T any](ctx context.Context, service CacheService, key string) (T, bool, error) {
	var zero T

	raw, ok, err := service.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var out T
	if err := Unmarshal(raw, &out); err != nil {
		return zero, false, errors.Wrapf(ErrInvalidValue, "key %s: %v", key, err)
	}
	return out, true, nil
}

// Set encodes value and stores it under key for ttl.
func Set[T any](ctx context.Context, service CacheService, key string, value T, ttl time.Duration) error {
	raw, err := Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "cache: encode %s", key)
	}
	return service.Set(ctx, key, raw, ttl)
}
