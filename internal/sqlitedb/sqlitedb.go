// Package sqlitedb opens the SQLite database shared by the search index and
// the contact inbox.
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the database at dsn with WAL and a busy timeout.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitedb: ping: %w", err)
	}
	return conn, nil
}
