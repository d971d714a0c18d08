package store

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-todos/todo"
)

type memRecord struct {
	seq  uint64
	todo todo.Todo
}

// MemoryStore keeps todos in a concurrent map. Natural order is insertion order.
type MemoryStore struct {
	records *xsync.MapOf[string, memRecord]
	seq     atomic.Uint64
	now     func() time.Time
}

var _ todo.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: xsync.NewMapOf[string, memRecord](),
		now:     now,
	}
}

func (m *MemoryStore) FindAll(ctx context.Context) ([]todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs := make([]memRecord, 0, m.records.Size())
	m.records.Range(func(_ string, rec memRecord) bool {
		recs = append(recs, rec)
		return true
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]todo.Todo, len(recs))
	for i, rec := range recs {
		out[i] = rec.todo
	}
	return out, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := m.records.Load(id)
	if !ok {
		return nil, nil
	}
	t := rec.todo
	return &t, nil
}

func (m *MemoryStore) Insert(ctx context.Context, in todo.CreateInput) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := m.now()
	rec := memRecord{
		seq: m.seq.Add(1),
		todo: todo.Todo{
			ID:        uuid.NewString(),
			Title:     in.Title,
			Completed: in.CompletedOrDefault(),
			CreatedAt: ts,
			UpdatedAt: ts,
		},
	}
	m.records.Store(rec.todo.ID, rec)

	t := rec.todo
	return &t, nil
}

func (m *MemoryStore) UpdateByID(ctx context.Context, id string, in todo.UpdateInput) (*todo.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := m.records.Compute(id, func(old memRecord, loaded bool) (memRecord, bool) {
		if !loaded {
			return old, true
		}
		in.Apply(&old.todo)
		old.todo.UpdatedAt = m.now()
		return old, false
	})
	if !ok {
		return nil, nil
	}

	t := rec.todo
	return &t, nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, ok := m.records.LoadAndDelete(id)
	return ok, nil
}

// Migrate is a no-op for the memory store.
func (m *MemoryStore) Migrate(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
