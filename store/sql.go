package store

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-todos/todo"
)

// todoRecord is the row mapping for the todos table.
type todoRecord struct {
	bun.BaseModel `bun:"table:todos,alias:todo"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Completed bool      `bun:"completed,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (r *todoRecord) toTodo() *todo.Todo {
	return &todo.Todo{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func todoHandlers() repository.ModelHandlers[*todoRecord] {
	return repository.ModelHandlers[*todoRecord]{
		NewRecord: func() *todoRecord {
			return &todoRecord{}
		},
		GetID: func(r *todoRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			id, err := uuid.Parse(r.ID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(r *todoRecord, id uuid.UUID) {
			r.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
	}
}

// SQLStore persists todos through a go-repository-bun repository.
type SQLStore struct {
	db   *bun.DB
	repo repository.Repository[*todoRecord]
	now  func() time.Time
}

var _ Backend = (*SQLStore)(nil)

// NewSQLStore wraps an open bun database. Call Migrate before first use on a
// fresh database.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{
		db:   db,
		repo: repository.NewRepository[*todoRecord](db, todoHandlers()),
		now:  now,
	}
}

// Migrate creates the todos table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*todoRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return errors.Wrap(err, "sql store: create todos table")
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) FindAll(ctx context.Context) ([]todo.Todo, error) {
	records, _, err := s.repo.List(ctx, naturalOrder)
	if err != nil {
		return nil, errors.Wrap(err, "sql store: list todos")
	}

	out := make([]todo.Todo, len(records))
	for i, rec := range records {
		out[i] = *rec.toTodo()
	}
	return out, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	rec, err := selectRecord(ctx, s.db, id, false)
	if err != nil {
		return nil, errors.Wrapf(err, "sql store: find todo %s", id)
	}
	if rec == nil {
		return nil, nil
	}
	return rec.toTodo(), nil
}

func (s *SQLStore) Insert(ctx context.Context, in todo.CreateInput) (*todo.Todo, error) {
	ts := s.now()
	rec := &todoRecord{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Completed: in.CompletedOrDefault(),
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, errors.Wrap(err, "sql store: insert todo")
	}
	if created == nil {
		created = rec
	}
	return created.toTodo(), nil
}

// UpdateByID reads, patches and writes the row inside one transaction. Only
// the present fields and updated_at are written.
func (s *SQLStore) UpdateByID(ctx context.Context, id string, in todo.UpdateInput) (*todo.Todo, error) {
	var updated *todoRecord

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec, err := s.lockRecord(ctx, tx, id)
		if err != nil || rec == nil {
			return err
		}

		columns := []string{"updated_at"}
		if in.Title != nil {
			rec.Title = *in.Title
			columns = append(columns, "title")
		}
		if in.Completed != nil {
			rec.Completed = *in.Completed
			columns = append(columns, "completed")
		}
		rec.UpdatedAt = s.now()

		if _, err := tx.NewUpdate().
			Model(rec).
			Column(columns...).
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "sql store: update todo %s", id)
	}
	if updated == nil {
		return nil, nil
	}
	return updated.toTodo(), nil
}

func (s *SQLStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	deleted := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec, err := s.lockRecord(ctx, tx, id)
		if err != nil || rec == nil {
			return err
		}

		if err := s.repo.DeleteWhereTx(ctx, tx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("id = ?", id)
		}); err != nil {
			return err
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "sql store: delete todo %s", id)
	}
	return deleted, nil
}

// lockRecord loads the row for id inside tx, taking a row lock on Postgres.
// SQLite serializes writers already. It returns nil when the row is absent.
func (s *SQLStore) lockRecord(ctx context.Context, tx bun.Tx, id string) (*todoRecord, error) {
	return selectRecord(ctx, tx, id, s.db.Dialect().Name() == dialect.PG)
}

// selectRecord runs a single-row select without the count query that
// repository List adds. It returns nil when the row is absent.
func selectRecord(ctx context.Context, db bun.IDB, id string, forUpdate bool) (*todoRecord, error) {
	rec := new(todoRecord)
	q := db.NewSelect().Model(rec).Apply(byID(id))
	if forUpdate {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func byID(id string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id).Limit(1)
	}
}

// naturalOrder also clears the default page size List applies, since
// FindAll returns the whole set.
func naturalOrder(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").Limit(0).Offset(0)
}
