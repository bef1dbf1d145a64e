package search

import (
	"context"
	"database/sql"
	"fmt"
)

const defaultLimit = 20

// Doc is one post as stored in the search index.
type Doc struct {
	Slug        string
	Title       string
	Fingerprint string
	CreatedAt   string
	UpdatedAt   string
	Body        string
}

// Result is one search hit.
type Result struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	Snippet   string `json:"snippet"`
}

// Upsert inserts or replaces a post and its FTS entry within a transaction.
func (ix *Index) Upsert(ctx context.Context, d Doc) error {
	tx, err := ix.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (slug, title, fingerprint, created_at, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title       = excluded.title,
			fingerprint = excluded.fingerprint,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at,
			body        = excluded.body
	`, d.Slug, d.Title, d.Fingerprint, d.CreatedAt, d.UpdatedAt, d.Body)
	if err != nil {
		return fmt.Errorf("search: upsert post: %w", err)
	}
	if err := ftsUpsert(ctx, tx, d.Slug, d.Title, d.Body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a post and its FTS entry.
func (ix *Index) Delete(ctx context.Context, slug string) error {
	tx, err := ix.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(ctx, tx, slug)
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("search: delete post: %w", err)
	}
	return tx.Commit()
}

// Fingerprints returns the stored fingerprint of every indexed post.
func (ix *Index) Fingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := ix.conn.QueryContext(ctx, `SELECT slug, fingerprint FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("search: fingerprints: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, fp string
		if err := rows.Scan(&slug, &fp); err != nil {
			return nil, err
		}
		out[slug] = fp
	}
	return out, rows.Err()
}

// Count returns the number of indexed posts.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.conn.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("search: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	out := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Slug, &r.Title, &r.CreatedAt, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
