package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/upload"
)

// ProxyConfig restricts the image proxy.
type ProxyConfig struct {
	// AllowedHosts lists hosts the Referer must name. Entries starting with
	// "." match the domain and its subdomains.
	AllowedHosts []string
	MaxAge       time.Duration
}

// Options wires the services behind the router. Search, Contact, Uploads
// and Events are optional; their routes are omitted when nil.
type Options struct {
	Posts   *site.Posts
	Resume  *site.Resume
	Images  *site.Images
	Search  *search.Index
	Contact *contact.Service
	Uploads *upload.Uploader
	Events  http.Handler
	Auth    AuthConfig
	Proxy   ProxyConfig
	// TrustedProxies lists peers whose forwarded client address is used
	// for the contact rate limit. Other peers are limited by their own
	// address whatever headers they send.
	TrustedProxies []netip.Prefix
	// Ready reports readiness for /health/ready. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

// NewRouter creates a chi router with all routes mounted. Resume routes sit
// behind the Basic-Auth gate.
func NewRouter(opts Options) chi.Router {
	h := NewHandler(opts)

	r := chi.NewRouter()
	r.Use(PeerAddr)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{slug}", h.GetPost)
		if opts.Search != nil {
			r.Get("/search", h.Search)
		}
		if opts.Contact != nil {
			r.Post("/contact", h.Contact)
		}
		r.Get("/proxy-image", h.ProxyImage)
		if opts.Events != nil {
			r.Get("/events", opts.Events.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(BasicAuth(opts.Auth))
			r.Get("/resume/{slug}", h.ResumeMarkdown)
			if opts.Uploads != nil {
				r.Post("/resume/images", h.UploadImage)
			}
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(BasicAuth(opts.Auth))
		r.Get("/resume", h.ResumeSections)
	})

	return r
}
