// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/sqlitedb"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/upload"
)

var errConfigRequired = errors.New("config is required")

// proxyEndpoint is where rendered resume HTML points relative images.
const proxyEndpoint = "/api/proxy-image"

// OpenSource opens the configured content store.
func OpenSource(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.Source, error) {
	if cfg.Content.Source == SourceS3 {
		s3, err := storage.NewS3(ctx, storage.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			UseSSL:          cfg.S3.UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}

	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// services are the content services shared by the HTTP and MCP surfaces.
type services struct {
	source  storage.Source
	db      *sql.DB
	posts   *site.Posts
	resume  *site.Resume
	images  *site.Images
	search  *search.Index
	contact *contact.Service
	uploads *upload.Uploader
}

func (s *services) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func openServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	src, err := OpenSource(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init content store: %w", err)
	}

	db, err := sqlitedb.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	svc := &services{source: src, db: db}

	if svc.search, err = search.New(db); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("init search: %w", err)
	}
	store, err := contact.NewStore(db)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("init contact store: %w", err)
	}
	svc.contact = contact.NewService(store, contact.Options{
		Limit:  cfg.Contact.RateLimit,
		Window: cfg.Contact.RateWindow,
		Logger: logger,
	})

	svc.posts = site.NewPosts(site.PostsOptions{
		Source:    src,
		Root:      cfg.Content.PostsRoot,
		IndexPath: cfg.Posts.IndexPath,
		Renderer:  render.New(),
		NewWindow: cfg.Posts.NewWindow(),
		Logger:    logger,
	})
	svc.resume = site.NewResume(src, cfg.Content.ResumeRoot, cfg.Resume.Sections,
		render.New(render.WithImageProxy(proxyEndpoint)), logger)
	svc.images = site.NewImages(src, cfg.Content.ResumeRoot)
	svc.uploads = upload.New(src, cfg.Content.ResumeRoot, upload.Options{Logger: logger})
	return svc, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_source", cfg.Content.Source),
		slog.String("index_path", cfg.Posts.IndexPath),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	trusted, err := api.ParseTrustedProxies(cfg.Contact.TrustedProxies)
	if err != nil {
		return err
	}

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	// SSE broker.
	broker := sse.NewBroker(sse.Options{IndexThrottle: 2 * time.Second})
	defer broker.Close()

	reloader := newIndexReloader(svc.posts, svc.search, broker, logger)
	reloader.Load(ctx)

	apiRouter := api.NewRouter(api.Options{
		Posts:   svc.posts,
		Resume:  svc.resume,
		Images:  svc.images,
		Search:  svc.search,
		Contact: svc.contact,
		Uploads: svc.uploads,
		Events:  broker,
		Auth: api.AuthConfig{
			Enabled:  cfg.Auth.AuthEnabled(),
			Realm:    cfg.Auth.Realm,
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		},
		Proxy: api.ProxyConfig{
			AllowedHosts: cfg.Proxy.AllowedHosts,
			MaxAge:       cfg.Proxy.MaxAge,
		},
		TrustedProxies: trusted,
		Ready:          svc.db.PingContext,
		Logger:         logger,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(api.PeerAddr)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams end when the broker closes, so Shutdown does not wait on them.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the index whenever the build rewrites it.
	g.Go(func() error {
		indexDir := filepath.Dir(cfg.Posts.IndexPath)
		if err := os.MkdirAll(indexDir, 0o755); err != nil {
			logger.Warn("index watcher disabled", slog.String("error", err.Error()))
			return nil
		}
		if err := reloader.Watch(gCtx, cfg.Posts.IndexPath); err != nil {
			logger.Warn("index watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been shut down, which
// stops the index watcher.
var errShutdown = errors.New("shutdown")
