// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mmynk/classroll/internal/storage/sqlstore"
)

// Dialect is the PostgreSQL flavour of the shared SQL store.
// Serializable isolation makes concurrent check-then-write transactions on
// the same group fail instead of both committing.
var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	Schema:      schema,
	DropSchema:  dropSchema,
	Placeholder: sqlstore.Dollar,
	TxOptions:   &sql.TxOptions{Isolation: sql.LevelSerializable},
}

const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    capacity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    birth_date DATE NOT NULL,
    email TEXT,
    status TEXT NOT NULL,
    group_id BIGINT REFERENCES groups(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_members_group_status ON members(group_id, status);
`

const dropSchema = `
DROP TABLE IF EXISTS members;
DROP TABLE IF EXISTS groups;
`

// New connects to the database at url and runs migrations.
func New(ctx context.Context, url string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := sqlstore.New(db, Dialect)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
