package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-todos/logging"
	"github.com/goliatone/go-todos/todo"
)

// ErrInjected is returned by doubles configured to fail.
var ErrInjected = errors.New("testsupport: injected failure")

// CountingStore wraps a todo.Store and counts calls per method. Setting Err
// makes every call fail without reaching the wrapped store.
type CountingStore struct {
	base todo.Store

	mu    sync.Mutex
	calls map[string]int
	Err   error
}

// NewCountingStore wraps base.
func NewCountingStore(base todo.Store) *CountingStore {
	return &CountingStore{base: base, calls: make(map[string]int)}
}

func (s *CountingStore) track(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	return s.Err
}

// Calls returns how many times method was invoked.
func (s *CountingStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Fail sets or clears the injected error.
func (s *CountingStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *CountingStore) FindAll(ctx context.Context) ([]todo.Todo, error) {
	if err := s.track("FindAll"); err != nil {
		return nil, err
	}
	return s.base.FindAll(ctx)
}

func (s *CountingStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	if err := s.track("FindByID"); err != nil {
		return nil, err
	}
	return s.base.FindByID(ctx, id)
}

func (s *CountingStore) Insert(ctx context.Context, in todo.CreateInput) (*todo.Todo, error) {
	if err := s.track("Insert"); err != nil {
		return nil, err
	}
	return s.base.Insert(ctx, in)
}

func (s *CountingStore) UpdateByID(ctx context.Context, id string, in todo.UpdateInput) (*todo.Todo, error) {
	if err := s.track("UpdateByID"); err != nil {
		return nil, err
	}
	return s.base.UpdateByID(ctx, id, in)
}

func (s *CountingStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := s.track("DeleteByID"); err != nil {
		return false, err
	}
	return s.base.DeleteByID(ctx, id)
}

// RecordingCache is a map-backed cache.CacheService that records every
// operation as "get:<key>", "set:<key>" or "delete:<key>". Each Fail* flag makes
// the matching operation return ErrInjected without touching the map.
type RecordingCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	ops     []string

	FailGets    bool
	FailSets    bool
	FailDeletes bool
}

// NewRecordingCache returns an empty RecordingCache.
func NewRecordingCache() *RecordingCache {
	return &RecordingCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *RecordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "get:"+key)
	if c.FailGets {
		return nil, false, ErrInjected
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *RecordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "set:"+key)
	if c.FailSets {
		return ErrInjected
	}
	c.entries[key] = append([]byte(nil), value...)
	c.ttls[key] = ttl
	return nil
}

func (c *RecordingCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "delete:"+key)
	if c.FailDeletes {
		return ErrInjected
	}
	delete(c.entries, key)
	delete(c.ttls, key)
	return nil
}

// Put stores raw bytes without recording an operation.
func (c *RecordingCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Has reports whether key is currently cached.
func (c *RecordingCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// TTL returns the ttl key was last written with.
func (c *RecordingCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// Snapshot returns a copy of the cached entries.
func (c *RecordingCache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = string(v)
	}
	return out
}

// Ops returns the recorded operations in order.
func (c *RecordingCache) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

// Mutations returns the recorded set and delete operations in order.
func (c *RecordingCache) Mutations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, op := range c.ops {
		if len(op) > 4 && op[:4] == "get:" {
			continue
		}
		out = append(out, op)
	}
	return out
}

// ResetOps clears the operation log but keeps entries.
func (c *RecordingCache) ResetOps() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
}

// LogEntry is one record captured by RecordingLogger.
type LogEntry struct {
	Level     string
	Component string
	Msg       string
	Err       error
	Fields    logging.Fields
}

// RecordingLogger captures log records for assertions.
type RecordingLogger struct {
	mu        *sync.Mutex
	entries   *[]LogEntry
	component string
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *RecordingLogger) record(level, msg string, err error, fields []logging.Fields) {
	merged := logging.Fields{}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{
		Level:     level,
		Component: l.component,
		Msg:       msg,
		Err:       err,
		Fields:    merged,
	})
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Fields) {
	l.record("debug", msg, nil, fields)
}

func (l *RecordingLogger) Info(msg string, fields ...logging.Fields) {
	l.record("info", msg, nil, fields)
}

func (l *RecordingLogger) Warn(msg string, fields ...logging.Fields) {
	l.record("warn", msg, nil, fields)
}

func (l *RecordingLogger) Error(msg string, err error, fields ...logging.Fields) {
	l.record("error", msg, err, fields)
}

// Named shares the record buffer with the parent.
func (l *RecordingLogger) Named(component string) logging.Logger {
	return &RecordingLogger{mu: l.mu, entries: l.entries, component: component}
}

// Entries returns the captured records.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), *l.entries...)
}

// ByLevel returns the captured records at level.
func (l *RecordingLogger) ByLevel(level string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
