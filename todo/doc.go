// Package todo holds the todo model, the Store contract and the Service that
// fronts the store with a cache.
//
// # Cache keys
//
// Two kinds of snapshot are cached, both for CacheTTL:
//
//   - AllTodosKey ("all_todos") holds the whole collection
//   - TodoKey(id) ("todo_<id>") holds a single record
//
// # Invalidation
//
// Any operation that changes the persisted set or a persisted record drops
// every key whose value could depend on that change, after the store write
// succeeds and before returning:
//
//   - Create drops AllTodosKey
//   - Update and Remove drop TodoKey(id) and then AllTodosKey
//   - Update and Remove of a missing id drop nothing
//
// A concurrent reader can still repopulate a key with pre-write data between
// the store write and the invalidation; such an entry lives at most CacheTTL.
package todo
