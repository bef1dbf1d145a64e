package contact

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contact_messages (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	subject     TEXT NOT NULL,
	message     TEXT NOT NULL,
	remote_addr TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contact_remote ON contact_messages(remote_addr, created_at);
`

// Message is a stored submission.
type Message struct {
	ID         string    `json:"id"`
	Form
	RemoteAddr string    `json:"remoteAddr"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists messages in SQLite.
type Store struct {
	conn *sql.DB
}

// NewStore applies the inbox schema to conn. The caller owns conn.
func NewStore(conn *sql.DB) (*Store, error) {
	if _, err := conn.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("contact: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Save inserts a message.
func (s *Store) Save(ctx context.Context, m *Message) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, remote_addr, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, m.Subject, m.Message, m.RemoteAddr, m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("contact: save: %w", err)
	}
	return nil
}

// CountSince returns how many messages remote sent at or after since.
func (s *Store) CountSince(ctx context.Context, remote string, since time.Time) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM contact_messages WHERE remote_addr = ? AND created_at >= ?`,
		remote, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("contact: count: %w", err)
	}
	return n, nil
}

// List returns the most recent messages, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, email, subject, message, remote_addr, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("contact: list: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.RemoteAddr, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
