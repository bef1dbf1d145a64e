//go:build !sqlite_fts5

package search

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// Body is stored on the posts table and searched with LIKE.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) {}

// Search performs a LIKE-based search over titles and bodies.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	like := "%" + query + "%"
	rows, err := ix.conn.QueryContext(ctx, `
		SELECT slug, title, created_at, substr(body, 1, 200)
		FROM posts
		WHERE title LIKE ? OR body LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
