package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/folio/internal/models"
)

// BodyLoader returns the markdown body of the latest Version of a post.
type BodyLoader func(ctx context.Context, slug string) (string, error)

// Fingerprint identifies the indexed state of a post. It changes whenever
// the index build records a new version or date.
func Fingerprint(e models.IndexEntry) string {
	return fmt.Sprintf("%d|%s|%s|%s", e.Version, e.UpdatedAt, e.CreatedAt, e.Title)
}

// Sync brings the search index in line with the post index:
//   - new/changed posts are loaded and upserted
//   - posts no longer listed are deleted
func Sync(ctx context.Context, ix *Index, entries []models.IndexEntry, load BodyLoader, logger *slog.Logger) error {
	known, err := ix.Fingerprints(ctx)
	if err != nil {
		return err
	}

	listed := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		listed[e.Slug] = struct{}{}

		fp := Fingerprint(e)
		if known[e.Slug] == fp {
			continue
		}

		body, err := load(ctx, e.Slug)
		if err != nil {
			logger.Warn("search: load failed", slog.String("slug", e.Slug), slog.String("error", err.Error()))
			continue
		}
		doc := Doc{
			Slug:        e.Slug,
			Title:       e.Title,
			Fingerprint: fp,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
			Body:        body,
		}
		if err := ix.Upsert(ctx, doc); err != nil {
			logger.Warn("search: index failed", slog.String("slug", e.Slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("search: indexed", slog.String("slug", e.Slug))
		}
	}

	for slug := range known {
		if _, ok := listed[slug]; ok {
			continue
		}
		if err := ix.Delete(ctx, slug); err != nil {
			logger.Warn("search: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("search: removed stale", slog.String("slug", slug))
		}
	}
	return nil
}
