package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// execQuerier is implemented by *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlRepo carries the handle and dialect shared by every repository. Queries
// are built with ent's dialect-aware builders so the same code serves SQLite
// and Postgres.
type sqlRepo struct {
	db      execQuerier
	dialect string
}

func (r sqlRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.dialect)
}

func (r sqlRepo) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return r.db.ExecContext(ctx, query, args...)
}

func (r sqlRepo) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return r.db.QueryContext(ctx, query, args...)
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func timePtrValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
