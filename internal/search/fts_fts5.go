//go:build sqlite_fts5

package search

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, slug, title, body string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM posts_fts WHERE slug = ?`, slug)
	_, err := tx.ExecContext(ctx, `INSERT INTO posts_fts (slug, title, body) VALUES (?, ?, ?)`,
		slug, title, body)
	if err != nil {
		return fmt.Errorf("search: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, slug string) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM posts_fts WHERE slug = ?`, slug)
}

// Search runs an FTS5 match and returns ranked hits with highlighted snippets.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := ix.conn.QueryContext(ctx, `
		SELECT f.slug,
		       f.title,
		       p.created_at,
		       snippet(posts_fts, 2, '<b>', '</b>', '...', 32)
		FROM posts_fts f
		JOIN posts p ON p.slug = f.slug
		WHERE posts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
