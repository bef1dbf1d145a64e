// Package postindex builds the published-post index and version cache from
// a directory of markdown posts.
package postindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/version"
)

const (
	IndexFile        = "index.json"
	CacheFile        = ".version-cache.json"
	PublishCacheFile = ".publish-cache.json"
	templateFile     = "post-template.md"
)

// ErrIncomplete is returned by Build when at least one post failed.
var ErrIncomplete = errors.New("postindex: some posts failed")

// Publisher stores a new Version of a changed post.
type Publisher interface {
	Publish(ctx context.Context, slug string, data []byte) (key string, err error)
}

// Options configures Build.
type Options struct {
	SourceDir string
	IndexPath string // defaults to SourceDir/index.json
	CachePath string // defaults to SourceDir/.version-cache.json
	Publisher Publisher
	// PublishCachePath records the last version stored by Publisher. It
	// defaults to SourceDir/.publish-cache.json and is only used with a
	// Publisher.
	PublishCachePath string
	Logger           *slog.Logger
}

// Stats counts per-file outcomes.
type Stats struct {
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Published int `json:"published"`
	Errors    int `json:"errors"`
}

// Failure records why one file was left out of the index.
type Failure struct {
	File string
	Err  error
}

// Result is the outcome of one build.
type Result struct {
	Entries   []models.IndexEntry
	Cache     Cache
	Published Cache // nil without a Publisher
	Stats     Stats
	Failures  []Failure
}

// Build scans SourceDir, writes the index and cache, and publishes posts
// whose version is newer than the publish cache. Per-file problems are collected in Result; the returned error wraps
// ErrIncomplete when any file failed, or reports a fatal I/O problem.
func Build(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.IndexPath == "" {
		opts.IndexPath = filepath.Join(opts.SourceDir, IndexFile)
	}
	if opts.CachePath == "" {
		opts.CachePath = filepath.Join(opts.SourceDir, CacheFile)
	}
	if opts.PublishCachePath == "" {
		opts.PublishCachePath = filepath.Join(opts.SourceDir, PublishCacheFile)
	}

	files, err := postFiles(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	cache, err := LoadCache(opts.CachePath)
	if err != nil {
		logger.Warn("postindex: cache unreadable, starting fresh", slog.String("error", err.Error()))
	}

	res := &Result{Entries: []models.IndexEntry{}, Cache: cache}
	if opts.Publisher != nil {
		res.Published, err = LoadCache(opts.PublishCachePath)
		if err != nil {
			logger.Warn("postindex: publish cache unreadable, republishing", slog.String("error", err.Error()))
		}
	}
	present := make(map[string]struct{}, len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slug := strings.TrimSuffix(file, ".md")
		present[slug] = struct{}{}

		fail := func(err error) {
			res.Stats.Errors++
			res.Failures = append(res.Failures, Failure{File: file, Err: err})
			logger.Warn("postindex: failed", slog.String("file", file), slog.String("error", err.Error()))
		}

		data, err := os.ReadFile(filepath.Join(opts.SourceDir, file))
		if err != nil {
			fail(err)
			continue
		}
		meta, _, err := frontmatter.ParsePost(data)
		if err != nil {
			fail(err)
			continue
		}
		if meta.Title == "" {
			fail(errors.New("missing title"))
			continue
		}
		if !meta.IsPublished {
			res.Stats.Skipped++
			logger.Info("postindex: skipped unpublished", slog.String("file", file))
			continue
		}
		if !meta.Complete() {
			fail(errors.New("missing createdAt or updatedAt"))
			continue
		}

		current := meta.EffectiveVersion()
		if opts.Publisher != nil && current > res.Published[slug] {
			key, err := opts.Publisher.Publish(ctx, slug, data)
			if err != nil {
				fail(fmt.Errorf("publish: %w", err))
				continue
			}
			logger.Info("postindex: published", slog.String("slug", slug), slog.String("key", key))
			res.Published[slug] = current
			res.Stats.Published++
		}
		if current > cache[slug] {
			logger.Info("postindex: version changed",
				slog.String("slug", slug), slog.Int("from", cache[slug]), slog.Int("to", current))
			cache[slug] = current
			res.Stats.Changed++
		} else {
			res.Stats.Unchanged++
		}

		res.Entries = append(res.Entries, models.IndexEntry{
			Slug:      slug,
			Title:     meta.Title,
			CreatedAt: meta.CreatedAt.String(),
			UpdatedAt: meta.UpdatedAt.String(),
			Thumbnail: meta.ThumbnailOrDefault(),
			Version:   current,
		})
	}

	for slug := range cache {
		if _, ok := present[slug]; !ok {
			delete(cache, slug)
			logger.Info("postindex: dropped from cache", slog.String("slug", slug))
		}
	}
	for slug := range res.Published {
		if _, ok := present[slug]; !ok {
			delete(res.Published, slug)
		}
	}

	SortEntries(res.Entries)

	if err := cache.Save(opts.CachePath); err != nil {
		return res, err
	}
	if res.Published != nil {
		if err := res.Published.Save(opts.PublishCachePath); err != nil {
			return res, err
		}
	}
	if err := writeJSON(opts.IndexPath, res.Entries); err != nil {
		return res, err
	}

	logger.Info("postindex: done",
		slog.Int("indexed", len(res.Entries)),
		slog.Int("changed", res.Stats.Changed),
		slog.Int("published", res.Stats.Published),
		slog.Int("skipped", res.Stats.Skipped),
		slog.Int("errors", res.Stats.Errors))

	if res.Stats.Errors > 0 {
		return res, fmt.Errorf("%w: %d of %d", ErrIncomplete, res.Stats.Errors, len(files))
	}
	return res, nil
}

// SortEntries orders entries newest first by createdAt, then by slug.
func SortEntries(entries []models.IndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt > entries[j].CreatedAt
		}
		return entries[i].Slug < entries[j].Slug
	})
}

// postFiles lists candidate post files in name order.
func postFiles(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("postindex: read source dir: %w", err)
	}
	var out []string
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") || name == templateFile {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// StorePublisher writes each published post as a new Version under Root.
type StorePublisher struct {
	Source storage.Source
	Root   string
	Now    func() time.Time
}

// Publish implements Publisher.
func (p *StorePublisher) Publish(ctx context.Context, slug string, data []byte) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	key, err := version.Key(p.Root, slug+".md", now())
	if err != nil {
		return "", err
	}
	if err := p.Source.Put(ctx, key, data, storage.ContentType(key)); err != nil {
		return "", err
	}
	return key, nil
}
