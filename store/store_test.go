package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-todos/todo"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	var mu sync.Mutex
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ts = ts.Add(time.Second)
		return ts
	}
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	s := NewSQLStore(bun.NewDB(sqldb, sqlitedialect.New()))
	s.now = tick()
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMemory(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	m.now = tick()
	return m
}

// runStoreContract exercises the todo.Store contract against every backend.
func runStoreContract(t *testing.T, factory func(t *testing.T) Backend) {
	ctx := context.Background()

	t.Run("insert assigns id and timestamps", func(t *testing.T) {
		s := factory(t)

		created, err := s.Insert(ctx, todo.CreateInput{Title: "buy milk"})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "buy milk", created.Title)
		assert.False(t, created.Completed)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		other, err := s.Insert(ctx, todo.CreateInput{Title: "walk dog", Completed: boolPtr(true)})
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, other.ID)
		assert.True(t, other.Completed)
	})

	t.Run("find by id", func(t *testing.T) {
		s := factory(t)

		created, err := s.Insert(ctx, todo.CreateInput{Title: "read book"})
		require.NoError(t, err)

		found, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Title, found.Title)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

		missing, err := s.FindByID(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, missing)

		malformed, err := s.FindByID(ctx, "not-an-id")
		require.NoError(t, err)
		assert.Nil(t, malformed)
	})

	t.Run("find all keeps insertion order", func(t *testing.T) {
		s := factory(t)

		empty, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		var ids []string
		for _, title := range []string{"one", "two", "three"} {
			created, err := s.Insert(ctx, todo.CreateInput{Title: title})
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, item := range all {
			assert.Equal(t, ids[i], item.ID)
		}
	})

	t.Run("find all returns every row", func(t *testing.T) {
		s := factory(t)

		const n = 60
		for i := 0; i < n; i++ {
			_, err := s.Insert(ctx, todo.CreateInput{Title: fmt.Sprintf("todo %d", i)})
			require.NoError(t, err)
		}

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, n)
		assert.Equal(t, "todo 0", all[0].Title)
		assert.Equal(t, fmt.Sprintf("todo %d", n-1), all[n-1].Title)
	})

	t.Run("update applies only present fields", func(t *testing.T) {
		s := factory(t)

		created, err := s.Insert(ctx, todo.CreateInput{Title: "draft"})
		require.NoError(t, err)

		updated, err := s.UpdateByID(ctx, created.ID, todo.UpdateInput{Completed: boolPtr(true)})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "draft", updated.Title)
		assert.True(t, updated.Completed)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at must be refreshed")
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt), "created_at must not change")

		renamed, err := s.UpdateByID(ctx, created.ID, todo.UpdateInput{Title: strPtr("final")})
		require.NoError(t, err)
		assert.Equal(t, "final", renamed.Title)
		assert.True(t, renamed.Completed)

		reopened, err := s.UpdateByID(ctx, created.ID, todo.UpdateInput{Completed: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, reopened.Completed)

		found, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", found.Title)
		assert.False(t, found.Completed)
	})

	t.Run("update missing returns nil", func(t *testing.T) {
		s := factory(t)

		updated, err := s.UpdateByID(ctx, uuid.NewString(), todo.UpdateInput{Title: strPtr("x")})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("delete", func(t *testing.T) {
		s := factory(t)

		created, err := s.Insert(ctx, todo.CreateInput{Title: "temp"})
		require.NoError(t, err)

		deleted, err := s.DeleteByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		found, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		again, err := s.DeleteByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, again)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Backend { return newMemory(t) })
}

func TestSQLStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Backend { return newSQLiteStore(t) })
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.Insert(ctx, todo.CreateInput{Title: "shared"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateByID(ctx, created.ID, todo.UpdateInput{Completed: boolPtr(i%2 == 0)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", found.Title)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.Insert(ctx, todo.CreateInput{Title: "original"})
	require.NoError(t, err)
	created.Title = "mutated"

	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", found.Title)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)
	require.NoError(t, mem.Close())

	dsn := fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString())
	sqlBackend, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlBackend.Close() })
	assert.IsType(t, &SQLStore{}, sqlBackend)

	require.NoError(t, sqlBackend.Migrate(ctx))
	created, err := sqlBackend.Insert(ctx, todo.CreateInput{Title: "via open"})
	require.NoError(t, err)

	found, err := sqlBackend.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "via open", found.Title)
}

// queryCounter counts statements executed through a bun.DB.
type queryCounter struct {
	mu      sync.Mutex
	queries []string
}

func (c *queryCounter) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (c *queryCounter) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, event.Query)
}

func (c *queryCounter) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = nil
}

func (c *queryCounter) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

func TestSQLStore_FindByIDRunsOneQuery(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	counter := &queryCounter{}
	s.db.AddQueryHook(counter)

	created, err := s.Insert(ctx, todo.CreateInput{Title: "single"})
	require.NoError(t, err)

	counter.reset()
	found, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, counter.snapshot(), 1)

	counter.reset()
	missing, err := s.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Len(t, counter.snapshot(), 1)
}
