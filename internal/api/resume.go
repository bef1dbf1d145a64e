package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
)

const defaultImageMaxAge = 7 * 24 * time.Hour

// ResumeMarkdown handles GET /api/resume/{slug}.
//
//	@Summary		Raw markdown of the latest Version of a resume section
//	@Tags			resume
//	@Produce		text/markdown
//	@Param			slug	path		string	true	"Section slug"
//	@Success		200		{string}	string
//	@Failure		401		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BasicAuth
//	@Router			/resume/{slug} [get]
func (h *Handler) ResumeMarkdown(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	obj, err := h.opts.Resume.Markdown(r.Context(), slug)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid slug"))
		return
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Content not found"))
		return
	default:
		h.logger.Error("resume fetch failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}

	etag := checksum.ETag(obj.Data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

// ResumeSections handles GET /resume.
func (h *Handler) ResumeSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.opts.Resume.All(r.Context())
	if err != nil {
		h.logger.Error("resume render failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}
	writeJSON(w, http.StatusOK, ResumeResponse{Sections: sections})
}

// ProxyImage handles GET /api/proxy-image?path=...
//
//	@Summary		Serve the latest Version of a resume image
//	@Tags			resume
//	@Produce		image/png
//	@Param			path	query		string	true	"Logical image path, e.g. images/profile.png"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/proxy-image [get]
func (h *Handler) ProxyImage(w http.ResponseWriter, r *http.Request) {
	if !refererAllowed(r, h.opts.Proxy.AllowedHosts) {
		writeJSON(w, http.StatusForbidden, errorBody("Forbidden"))
		return
	}
	p := strings.TrimSpace(r.URL.Query().Get("path"))
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Image path is required"))
		return
	}

	img, err := h.opts.Images.Get(r.Context(), p)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusNotFound, errorBody("Image not found"))
		return
	default:
		h.logger.Error("image fetch failed", slog.String("path", p), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal Server Error"))
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", int(h.opts.Proxy.MaxAge.Seconds())))
	w.Header().Set("ETag", checksum.ETag(img.Data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
