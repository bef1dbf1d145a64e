package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/postindex"
	"github.com/starford/folio/internal/resume"
	"github.com/starford/folio/internal/upload"
)

// Version is reported by the MCP server.
var Version = "dev"

// BuildIndex regenerates the post index and version cache. With publish
// set, posts newer than the publish cache are uploaded as new Versions.
func BuildIndex(ctx context.Context, publish bool, opts ...Option) (*postindex.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	logger := app.logger()

	buildOpts := postindex.Options{
		SourceDir:        cfg.Posts.SourceDir,
		IndexPath:        cfg.Posts.IndexPath,
		CachePath:        cfg.Posts.CachePath,
		PublishCachePath: cfg.Posts.PublishCachePath,
		Logger:           logger,
	}
	if publish {
		src, err := OpenSource(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("init content store: %w", err)
		}
		buildOpts.Publisher = &postindex.StorePublisher{Source: src, Root: cfg.Content.PostsRoot}
	}
	return postindex.Build(ctx, buildOpts)
}

// MergeOptions selects what MergeResume does.
type MergeOptions struct {
	Sections []string
	NoBackup bool
	Watch    bool
}

// MergeResume merges resume fragments once, or keeps merging on change
// when Watch is set.
func MergeResume(ctx context.Context, mo MergeOptions, opts ...Option) ([]resume.MergeResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	logger := app.logger()

	m := &resume.Merger{
		Dir:       cfg.Resume.Dir,
		Sections:  cfg.Resume.Sections,
		BackupDir: cfg.Resume.BackupDir,
		Debounce:  cfg.Resume.Debounce,
		Logger:    logger,
	}
	if mo.NoBackup {
		m.BackupDir = ""
	}

	results, err := m.MergeAll(mo.Sections...)
	if err != nil || !mo.Watch {
		return results, err
	}
	logger.Info("resume: watching for changes", slog.String("dir", cfg.Resume.Dir))
	return results, m.Watch(ctx)
}

// Upload stores every file under dir as a new Version beneath root, which
// defaults to the resume root.
func Upload(ctx context.Context, dir, root string, opts ...Option) (*upload.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	logger := app.logger()

	if root == "" {
		root = cfg.Content.ResumeRoot
	}
	src, err := OpenSource(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init content store: %w", err)
	}
	return upload.New(src, root, upload.Options{Logger: logger}).UploadDir(ctx, dir)
}

// ServeMCP serves the content tools over stdio. Logs go to stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.logger()

	svc, err := openServices(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	reloader := newIndexReloader(svc.posts, svc.search, nopEvents{}, logger)
	reloader.Load(ctx)

	srv := mcpserver.New(mcpserver.Deps{
		Posts:   svc.posts,
		Resume:  svc.resume,
		Search:  svc.search,
		Contact: svc.contact,
		Uploads: svc.uploads,
	}, Version)
	logger.Info("mcp: serving on stdio")
	return srv.ServeStdio()
}

type nopEvents struct{}

func (nopEvents) PublishPostEvent(string, string) {}
