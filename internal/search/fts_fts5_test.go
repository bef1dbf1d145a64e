//go:build sqlite_fts5

package search

import (
	"context"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	ix := testIndex(t)
	var count int
	if err := ix.conn.QueryRow(`SELECT count(*) FROM posts_fts`).Scan(&count); err != nil {
		t.Fatalf("posts_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()
	if err := ix.Upsert(ctx, Doc{Slug: "fts", Title: "FTS Post", Body: "Folio provides powerful full-text search."}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := ix.Search(ctx, "powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "fts" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()
	_ = ix.Upsert(ctx, Doc{Slug: "evo", Title: "Old", Body: "original text"})
	_ = ix.Upsert(ctx, Doc{Slug: "evo", Title: "New", Body: "replacement text"})

	if results, _ := ix.Search(ctx, "original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ := ix.Search(ctx, "replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
