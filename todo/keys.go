package todo

import "time"

const (
	// AllTodosKey caches the full collection snapshot.
	AllTodosKey = "all_todos"

	// TodoKeyPrefix prefixes per-todo snapshot keys.
	TodoKeyPrefix = "todo_"

	// CacheTTL is how long any snapshot lives without invalidation.
	CacheTTL = 60 * time.Second
)

// TodoKey returns the cache key for a single todo snapshot.
func TodoKey(id string) string {
	return TodoKeyPrefix + id
}
