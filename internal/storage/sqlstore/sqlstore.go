// Package sqlstore implements storage.Store on top of database/sql.
//
// Backend packages (sqlite, postgres) open the *sql.DB and supply a Dialect
// with their schema and placeholder style; all queries live here.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/classroll/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	// Name is used in log lines and error messages.
	Name string

	// Schema creates all tables and indexes. It must be idempotent.
	Schema string

	// DropSchema removes all tables created by Schema.
	DropSchema string

	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string

	// TxOptions are passed to BeginTx by InTx.
	TxOptions *sql.TxOptions
}

// QuestionMark is the placeholder style used by SQLite and MySQL.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style used by PostgreSQL.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// rebind rewrites a query written with ? placeholders into the dialect's style.
func (d *Dialect) rebind(query string) string {
	if d.Placeholder == nil {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Queries against an execer.
type queries struct {
	conn    execer
	dialect *Dialect
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.conn.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.conn.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.conn.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// Store implements storage.Store using a *sql.DB.
type Store struct {
	*queries
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect}
	s.queries = &queries{conn: db, dialect: &s.dialect}
	return s
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", s.dialect.Name, err)
	}
	return nil
}

// Reset drops every table and recreates the schema.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.DropSchema); err != nil {
		return fmt.Errorf("failed to drop %s schema: %w", s.dialect.Name, err)
	}
	return s.Migrate(ctx)
}

// InTx runs fn in a transaction. The deferred rollback is a no-op after a
// successful commit, so the transaction is released on every path.
func (s *Store) InTx(ctx context.Context, fn func(q storage.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{conn: tx, dialect: &s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
