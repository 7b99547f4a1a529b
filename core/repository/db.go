package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// NewDB opens and pings a Postgres database
func NewDB(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: conn}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS session_events (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	at          TIMESTAMPTZ NOT NULL,
	from_state  TEXT,
	to_state    TEXT NOT NULL,
	reason      TEXT NOT NULL,
	meta_json   JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS session_events_session_id_idx ON session_events (session_id, at);

CREATE TABLE IF NOT EXISTS model_reports (
	id          UUID PRIMARY KEY,
	model_id    TEXT NOT NULL,
	uri         TEXT NOT NULL,
	r2          DOUBLE PRECISION NOT NULL,
	bucket      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS model_reports_model_id_idx ON model_reports (model_id, created_at);
`

// EnsureSchema creates the console tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// execer is the subset of *sql.DB the repositories write through
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}
