package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/contact"
)

const defaultSearchLimit = 20

// Handler holds API route handlers.
type Handler struct {
	opts   Options
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Proxy.MaxAge <= 0 {
		opts.Proxy.MaxAge = defaultImageMaxAge
	}
	return &Handler{opts: opts, logger: logger}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(r.Context()); err != nil {
			h.logger.Warn("not ready", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List published posts from the generated index
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.opts.Posts.Index(r.Context())
	if err != nil {
		h.logger.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: entries, Total: len(entries)})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Get the latest Version of a published post
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	PostDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.opts.Posts.Get(r.Context(), slug)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, post)
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid slug"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Post not found"))
	default:
		h.logger.Error("get post failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
	}
}

// Search handles GET /api/search?q=...&limit=...
//
//	@Summary		Full-text search over published posts
//	@Tags			posts
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := h.opts.Search.Search(r.Context(), q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("q", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Contact handles POST /api/contact.
//
//	@Summary		Submit the contact form
//	@Tags			contact
//	@Accept			json
//	@Produce		json
//	@Param			body	body		contact.Form	true	"Form fields"
//	@Success		200		{object}	ContactResponse
//	@Failure		400		{object}	ContactResponse
//	@Failure		429		{object}	ContactResponse
//	@Router			/contact [post]
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, ContactResponse{Error: contact.CodeValidation})
		return
	}

	_, err := h.opts.Contact.Submit(r.Context(), form, clientHost(r, h.opts.TrustedProxies))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ContactResponse{OK: true, Message: contact.SuccessMessage})
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, ContactResponse{Error: contact.CodeValidation})
	case errors.Is(err, contact.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, ContactResponse{Error: contact.CodeRateLimit})
	default:
		h.logger.Error("contact submit failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ContactResponse{Error: contact.CodeUnknown})
	}
}
