package site

import (
	"sort"

	"github.com/starford/folio/internal/models"
)

// Change kinds reported by DiffIndex.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Change is one post-level difference between two index snapshots.
type Change struct {
	Kind string
	Slug string
}

// DiffIndex compares two index snapshots, ordered by slug.
func DiffIndex(prev, next []models.IndexEntry) []Change {
	old := make(map[string]models.IndexEntry, len(prev))
	for _, e := range prev {
		old[e.Slug] = e
	}

	var out []Change
	seen := make(map[string]struct{}, len(next))
	for _, e := range next {
		seen[e.Slug] = struct{}{}
		before, ok := old[e.Slug]
		switch {
		case !ok:
			out = append(out, Change{Kind: ChangeCreated, Slug: e.Slug})
		case before.Version != e.Version || before.UpdatedAt != e.UpdatedAt ||
			before.Title != e.Title || before.Thumbnail != e.Thumbnail || before.CreatedAt != e.CreatedAt:
			out = append(out, Change{Kind: ChangeUpdated, Slug: e.Slug})
		}
	}
	for slug := range old {
		if _, ok := seen[slug]; !ok {
			out = append(out, Change{Kind: ChangeDeleted, Slug: slug})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
