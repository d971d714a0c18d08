package di

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/goliatone/go-todos/cache"
	"github.com/goliatone/go-todos/config"
	"github.com/goliatone/go-todos/graph"
	"github.com/goliatone/go-todos/logging"
	"github.com/goliatone/go-todos/store"
	"github.com/goliatone/go-todos/todo"
)

// Container wires the application components from a Config.
// It owns the store connection and the cache and releases them on Close.
type Container struct {
	config       *config.Config
	logger       logging.Logger
	store        store.Backend
	ownsStore    bool
	cacheService cache.CacheService
	service      *todo.Service
	schema       *graphql.Schema
}

// newSchema is replaced in tests.
var newSchema = graph.NewSchema

// Option customizes a Container before its components are built.
type Option func(*Container)

// WithLogger replaces the logger built from the log section.
func WithLogger(logger logging.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithStore uses backend instead of opening database.dsn.
func WithStore(backend store.Backend) Option {
	return func(c *Container) {
		c.store = backend
	}
}

// WithCacheService uses svc instead of building one from the cache section.
func WithCacheService(svc cache.CacheService) Option {
	return func(c *Container) {
		c.cacheService = svc
	}
}

// NewContainer builds the logger, store, cache, todo service and GraphQL
// schema described by cfg. The store is opened but not migrated.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is required")
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.New(cfg.LogSettings())
	}

	if c.cacheService == nil {
		if cfg.Cache.Enabled {
			svc, err := cache.NewCacheService(cfg.CacheSettings())
			if err != nil {
				return nil, errors.Wrap(err, "di: build cache")
			}
			c.cacheService = svc
		} else {
			c.logger.Info("Cache disabled")
			c.cacheService = cache.NewNoopCache()
		}
	}

	if c.store == nil {
		backend, err := store.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "di: open store")
		}
		c.store = backend
		c.ownsStore = true
	}

	c.service = todo.NewService(c.store, c.cacheService, c.logger)

	schema, err := newSchema(c.service, c.logger)
	if err != nil {
		if c.ownsStore {
			_ = c.store.Close()
		}
		return nil, err
	}
	c.schema = schema

	return c, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Logger() logging.Logger {
	return c.logger
}

func (c *Container) Store() store.Backend {
	return c.store
}

func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

func (c *Container) TodoService() *todo.Service {
	return c.service
}

func (c *Container) Schema() *graphql.Schema {
	return c.schema
}

// Server returns a new echo instance serving the GraphQL schema.
func (c *Container) Server() *echo.Echo {
	return graph.NewServer(c.schema, c.logger)
}

// Migrate prepares the store schema.
func (c *Container) Migrate(ctx context.Context) error {
	return c.store.Migrate(ctx)
}

// Close releases the store.
func (c *Container) Close() error {
	return c.store.Close()
}
