package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/postindex"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/version"
)

// DefaultNewWindow is how long a post counts as new or updated.
const DefaultNewWindow = 14 * 24 * time.Hour

// PostsOptions configures Posts.
type PostsOptions struct {
	Source    storage.Source
	Root      string
	IndexPath string
	Renderer  *render.Renderer
	NewWindow time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// Posts serves the post index and individual posts.
type Posts struct {
	src       storage.Source
	root      string
	indexPath string
	renderer  *render.Renderer
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewPosts creates a Posts service.
func NewPosts(opts PostsOptions) *Posts {
	p := &Posts{
		src:       opts.Source,
		root:      opts.Root,
		indexPath: opts.IndexPath,
		renderer:  opts.Renderer,
		window:    opts.NewWindow,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if p.window <= 0 {
		p.window = DefaultNewWindow
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.renderer == nil {
		p.renderer = render.New()
	}
	return p
}

// Index returns the generated index decorated with isNew/isUpdated. A
// missing index file yields an empty list.
func (p *Posts) Index(_ context.Context) ([]models.IndexEntry, error) {
	entries, err := p.Entries()
	if err != nil {
		return nil, err
	}
	cutoff := p.now().Add(-p.window)
	for i := range entries {
		entries[i].IsNew, entries[i].IsUpdated = freshness(entries[i].CreatedAt, entries[i].UpdatedAt, cutoff)
	}
	return entries, nil
}

// Entries returns the raw index as written by the build.
func (p *Posts) Entries() ([]models.IndexEntry, error) {
	entries, err := postindex.LoadIndex(p.indexPath)
	if errors.Is(err, apperr.ErrNotFound) {
		p.logger.Warn("posts: index missing", slog.String("path", p.indexPath))
		return []models.IndexEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get resolves the latest Version of a published post.
func (p *Posts) Get(ctx context.Context, slug string) (*models.Post, error) {
	obj, meta, body, err := p.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	html, err := p.renderer.HTML(body)
	if err != nil {
		return nil, err
	}

	created, updated := meta.CreatedAt.String(), meta.UpdatedAt.String()
	isNew, isUpdated := freshness(created, updated, p.now().Add(-p.window))
	return &models.Post{
		Slug: slug,
		FormattedData: models.PostSummary{
			Title:     meta.Title,
			CreatedAt: created,
			UpdatedAt: updated,
			Thumbnail: meta.ThumbnailOrDefault(),
			IsNew:     isNew,
			IsUpdated: isUpdated,
		},
		Content: body,
		HTML:    html,
		Version: meta.EffectiveVersion(),
		Key:     obj.Key,
	}, nil
}

// Body returns the markdown body of a published post.
func (p *Posts) Body(ctx context.Context, slug string) (string, error) {
	_, _, body, err := p.load(ctx, slug)
	return body, err
}

func (p *Posts) load(ctx context.Context, slug string) (*models.Object, frontmatter.PostMeta, string, error) {
	var meta frontmatter.PostMeta
	if err := ValidateSlug(slug); err != nil {
		return nil, meta, "", err
	}
	obj, err := version.Resolve(ctx, p.src, p.root, slug+".md")
	if err != nil {
		return nil, meta, "", err
	}
	meta, body, err := frontmatter.ParsePost(obj.Data)
	if err != nil {
		p.logger.Warn("posts: unreadable front matter", slog.String("key", obj.Key), slog.String("error", err.Error()))
		return nil, meta, "", fmt.Errorf("posts: %s: %w", slug, apperr.ErrNotFound)
	}
	if !meta.Published() {
		return nil, meta, "", fmt.Errorf("posts: %s unpublished: %w", slug, apperr.ErrNotFound)
	}
	return obj, meta, body, nil
}

// freshness reports isNew (created after cutoff) and isUpdated (updated
// after cutoff and not new).
func freshness(created, updated string, cutoff time.Time) (isNew, isUpdated bool) {
	if t, ok := frontmatter.Date(created).Time(); ok && t.After(cutoff) {
		return true, false
	}
	if t, ok := frontmatter.Date(updated).Time(); ok && t.After(cutoff) {
		return false, true
	}
	return false, false
}
