// Package cache provides the cache contract used by the todo service and its
// default implementations.
//
// # Overview
//
// CacheService is a plain key/value store with per-entry TTL:
//
//   - Get returns the payload and whether it was present
//   - Set stores a payload for a given TTL
//   - Delete removes a key
//
// Payloads are byte slices. The Get and Set helpers encode and decode typed
// values with msgpack so callers never share mutable state with the cache:
//
//	if err := cache.Set(ctx, svc, "todo_42", todo, time.Minute); err != nil {
//		// best-effort, log and continue
//	}
//	cached, ok, err := cache.Get[todo.Todo](ctx, svc, "todo_42")
//
// # Implementations
//
// NewCacheService builds the in-process backend on top of sturdyc. Each entry
// carries its own expiry, so the TTL passed to Set is honored; Config.TTL is the
// upper bound an entry can live for.
//
// NewNoopCache returns a backend that never stores anything, which turns the
// service into a store-only pass-through.
//
// # Error Handling
//
// Backend errors are returned as-is. A payload that cannot be decoded into the
// requested type yields ErrInvalidValue so callers can treat it as a miss and
// drop the key.
package cache
