// Package store provides todo.Store implementations: an SQL store built on
// go-repository-bun and an in-process memory store.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-todos/todo"
)

// DefaultDSN is the local SQLite database used when no DSN is configured.
const DefaultDSN = "file:todos.db?cache=shared"

// MemoryDSN selects the in-process memory store.
const MemoryDSN = "memory://"

// Backend is a todo.Store that owns resources.
type Backend interface {
	todo.Store
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a Backend for dsn:
//
//   - memory:// selects MemoryStore
//   - postgres:// and postgresql:// use lib/pq
//   - sqlite:// prefixed or bare SQLite DSNs use go-sqlite3
//
// An empty dsn falls back to DefaultDSN. The connection is verified before returning.
func Open(ctx context.Context, dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultDSN
	}

	if strings.HasPrefix(dsn, MemoryDSN) {
		return NewMemoryStore(), nil
	}

	db, err := openBun(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: ping database")
	}

	return NewSQLStore(db), nil
}

func openBun(dsn string) (*bun.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "store: open postgres")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil

	default:
		sqldb, err := sql.Open("sqlite3", strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, errors.Wrap(err, "store: open sqlite")
		}
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY
		// between the read and write halves of an update transaction.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

// now is the timestamp source for every store: UTC at microsecond precision,
// which is what Postgres keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
