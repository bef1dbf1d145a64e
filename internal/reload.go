package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/watch"
)

// indexReloadDelay coalesces the write bursts of one index rebuild.
const indexReloadDelay = 500 * time.Millisecond

// postEventPublisher receives one event per changed post.
type postEventPublisher interface {
	PublishPostEvent(kind, slug string)
}

// indexReloader keeps the search index and event stream in step with the
// generated post index.
type indexReloader struct {
	posts  *site.Posts
	search *search.Index
	events postEventPublisher
	logger *slog.Logger

	mu   sync.Mutex
	prev []models.IndexEntry
}

func newIndexReloader(posts *site.Posts, ix *search.Index, events postEventPublisher, logger *slog.Logger) *indexReloader {
	return &indexReloader{posts: posts, search: ix, events: events, logger: logger}
}

// Load reads the index once and syncs search without publishing events.
func (r *indexReloader) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.posts.Entries()
	if err != nil {
		r.logger.Warn("reload: read index failed", slog.String("error", err.Error()))
		return
	}
	r.prev = entries
	r.sync(ctx, entries)
}

// Reload reads the index, publishes one event per changed post and
// resyncs search. It reports the changes it found.
func (r *indexReloader) Reload(ctx context.Context) []site.Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.posts.Entries()
	if err != nil {
		r.logger.Warn("reload: read index failed", slog.String("error", err.Error()))
		return nil
	}
	changes := site.DiffIndex(r.prev, entries)
	r.prev = entries
	for _, c := range changes {
		r.events.PublishPostEvent(c.Kind, c.Slug)
	}
	r.logger.Info("reload: index reloaded",
		slog.Int("posts", len(entries)),
		slog.Int("changes", len(changes)))
	r.sync(ctx, entries)
	return changes
}

func (r *indexReloader) sync(ctx context.Context, entries []models.IndexEntry) {
	if r.search == nil {
		return
	}
	if err := search.Sync(ctx, r.search, entries, r.posts.Body, r.logger); err != nil {
		r.logger.Warn("reload: search sync failed", slog.String("error", err.Error()))
	}
}

// Watch reloads after writes to indexPath settle. It blocks until ctx is
// cancelled.
func (r *indexReloader) Watch(ctx context.Context, indexPath string) error {
	name := filepath.Base(indexPath)
	deb := watch.NewDebouncer(indexReloadDelay, func() { r.Reload(ctx) })
	defer deb.Stop()

	return watch.Watch(ctx, watch.Options{
		Root:    filepath.Dir(indexPath),
		Match:   func(rel string) bool { return rel == name },
		OnEvent: func(string, fsnotify.Op) { deb.Trigger() },
		Logger:  r.logger,
	})
}
