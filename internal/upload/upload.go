// Package upload writes local files to the content store as new Versions.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/version"
)

// Options configures an Uploader.
type Options struct {
	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

// Uploader stores files under a category root ("resume", "posts").
type Uploader struct {
	src         storage.Source
	root        string
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// Report summarises one directory upload.
type Report struct {
	Keys  []string `json:"keys"`
	Bytes int64    `json:"bytes"`
}

// New creates an Uploader.
func New(src storage.Source, root string, opts Options) *Uploader {
	u := &Uploader{src: src, root: root, concurrency: opts.Concurrency, now: opts.Now, logger: opts.Logger}
	if u.concurrency <= 0 {
		u.concurrency = 4
	}
	if u.now == nil {
		u.now = time.Now
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u
}

// Put stores data as a new Version of the logical path rel and returns its key.
func (u *Uploader) Put(ctx context.Context, rel string, data []byte) (string, error) {
	return u.put(ctx, rel, data, u.now())
}

func (u *Uploader) put(ctx context.Context, rel string, data []byte, at time.Time) (string, error) {
	key, err := version.Key(u.root, rel, at)
	if err != nil {
		return "", err
	}
	if err := u.src.Put(ctx, key, data, storage.ContentType(key)); err != nil {
		return "", fmt.Errorf("upload: %s: %w", rel, err)
	}
	u.logger.Info("upload: stored", slog.String("key", key), slog.Int("size", len(data)))
	return key, nil
}

// UploadDir stores every regular file under dir, skipping dot-files and
// dot-directories. All files share one timestamp. The first failure cancels
// the remaining uploads and is returned.
func (u *Uploader) UploadDir(ctx context.Context, dir string) (*Report, error) {
	files, err := collect(dir)
	if err != nil {
		return nil, err
	}

	at := u.now()
	rep := &Report{Keys: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, rel := range files {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("upload: read %s: %w", rel, err)
			}
			key, err := u.put(gctx, rel, data, at)
			if err != nil {
				return err
			}
			mu.Lock()
			rep.Keys = append(rep.Keys, key)
			rep.Bytes += int64(len(data))
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	sort.Strings(rep.Keys)
	if err != nil {
		u.logger.Error("upload: failed", slog.String("error", err.Error()), slog.Int("stored", len(rep.Keys)))
		return rep, err
	}
	return rep, nil
}

// collect returns slash-separated paths of the files to upload, relative to dir.
func collect(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload: walk %s: %w", dir, err)
	}
	return out, nil
}
