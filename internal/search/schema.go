// Package search keeps a SQLite full-text index of published posts, with
// FTS5 behind the sqlite_fts5 build tag and a LIKE fallback otherwise.
package search

import (
	"database/sql"
	"fmt"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	slug        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
`

// Index wraps a sql.DB with post search operations.
type Index struct {
	conn *sql.DB
}

// New applies the search schema to conn. The caller owns conn.
func New(conn *sql.DB) (*Index, error) {
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		return nil, fmt.Errorf("search: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &Index{conn: conn}, nil
}
