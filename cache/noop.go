package cache

import (
	"context"
	"time"
)

// noopCache stores nothing; every Get is a miss.
type noopCache struct{}

// NewNoopCache returns a CacheService that never caches. Use it when caching
// is disabled so every read goes to the store.
func NewNoopCache() CacheService {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopCache) Delete(context.Context, string) error {
	return nil
}
