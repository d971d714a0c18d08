package todo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/goliatone/go-todos/cache"
	"github.com/goliatone/go-todos/logging"
)

// keyInvalidator is implemented by cache backends that can drop several keys
// in one call.
type keyInvalidator interface {
	InvalidateKeys(ctx context.Context, keys []string) error
}

// Service provides CRUD over a Store with cache-aside reads.
//
// Reads check the cache first and populate it on a miss. Writes go to the
// store first and, once the store reports success, invalidate every key whose
// value could have changed before returning. The cache is accelerative only:
// cache failures are logged and never fail an operation.
type Service struct {
	store  Store
	cache  cache.CacheService
	logger logging.Logger
}

// NewService wires a Service. A nil cache disables caching and a nil logger
// discards output.
func NewService(store Store, cacheService cache.CacheService, logger logging.Logger) *Service {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:  store,
		cache:  cacheService,
		logger: logger.Named("TodoService"),
	}
}

// Create persists a new todo and invalidates the collection snapshot.
// No per-id key can exist yet for a fresh id, so only AllTodosKey is dropped.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Todo, error) {
	s.logger.Info("Creating new todo", createFields(in))

	created, err := s.store.Insert(ctx, in)
	if err != nil {
		s.logger.Error("Failed to create todo", err)
		return nil, errors.Wrap(err, "create todo")
	}

	s.invalidate(ctx, AllTodosKey)
	return created, nil
}

// FindAll returns every todo in the store's natural order.
func (s *Service) FindAll(ctx context.Context) ([]Todo, error) {
	s.logger.Info("Fetching all todos")

	if cached, ok := lookup[[]Todo](ctx, s, AllTodosKey); ok {
		s.logger.Debug("Returning cached todos", logging.Fields{"count": len(cached)})
		for i := range cached {
			cached[i].normalize()
		}
		if cached == nil {
			cached = []Todo{}
		}
		return cached, nil
	}

	todos, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch todos", err)
		return nil, errors.Wrap(err, "find all todos")
	}
	if todos == nil {
		todos = []Todo{}
	}

	populate(ctx, s, AllTodosKey, todos)
	return todos, nil
}

// FindOne returns the todo with id, or nil if there is none. Absence is
// never cached, so repeated lookups of a missing id always reach the store.
func (s *Service) FindOne(ctx context.Context, id string) (*Todo, error) {
	s.logger.Info("Fetching todo by id", logging.Fields{"id": id})

	key := TodoKey(id)
	if cached, ok := lookup[Todo](ctx, s, key); ok {
		s.logger.Debug("Returning cached todo", logging.Fields{"id": id})
		cached.normalize()
		return &cached, nil
	}

	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch todo", err, logging.Fields{"id": id})
		return nil, errors.Wrapf(err, "find todo %s", id)
	}
	if found == nil {
		return nil, nil
	}

	populate(ctx, s, key, *found)
	return found, nil
}

// Update applies the present fields of in to the todo with id. It returns
// nil without touching the cache when the todo does not exist.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Todo, error) {
	s.logger.Info("Updating todo", updateFields(id, in))

	updated, err := s.store.UpdateByID(ctx, id, in)
	if err != nil {
		s.logger.Error("Failed to update todo", err, logging.Fields{"id": id})
		return nil, errors.Wrapf(err, "update todo %s", id)
	}
	if updated == nil {
		return nil, nil
	}

	s.invalidate(ctx, TodoKey(id), AllTodosKey)
	return updated, nil
}

// Remove deletes the todo with id. It reports false without touching the
// cache when the todo does not exist.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	s.logger.Info("Removing todo", logging.Fields{"id": id})

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to remove todo", err, logging.Fields{"id": id})
		return false, errors.Wrapf(err, "remove todo %s", id)
	}
	if !deleted {
		return false, nil
	}

	s.invalidate(ctx, TodoKey(id), AllTodosKey)
	return true, nil
}

// lookup reads key from the cache. Backend errors and undecodable payloads
// count as a miss; undecodable payloads are also dropped.
func lookup[T any](ctx context.Context, s *Service, key string) (T, bool) {
	value, ok, err := cache.Get[T](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store", logging.Fields{"key": key, "error": err.Error()})
		if errors.Is(err, cache.ErrInvalidValue) {
			s.invalidate(ctx, key)
		}
		var zero T
		return zero, false
	}
	return value, ok
}

func populate[T any](ctx context.Context, s *Service, key string, value T) {
	if err := cache.Set(ctx, s.cache, key, value, CacheTTL); err != nil {
		s.logger.Warn("Cache write failed", logging.Fields{"key": key, "error": err.Error()})
	}
}

// invalidate drops keys in order. Failures are logged and the remaining keys
// are still attempted.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if inv, ok := s.cache.(keyInvalidator); ok {
		if err := inv.InvalidateKeys(ctx, keys); err != nil {
			s.logger.Warn("Cache invalidation failed", logging.Fields{"keys": keys, "error": err.Error()})
		}
		return
	}

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Cache invalidation failed", logging.Fields{"key": key, "error": err.Error()})
		}
	}
}

func createFields(in CreateInput) logging.Fields {
	f := logging.Fields{"title": in.Title}
	if in.Completed != nil {
		f["completed"] = *in.Completed
	}
	return f
}

func updateFields(id string, in UpdateInput) logging.Fields {
	f := logging.Fields{"id": id}
	if in.Title != nil {
		f["title"] = *in.Title
	}
	if in.Completed != nil {
		f["completed"] = *in.Completed
	}
	return f
}
