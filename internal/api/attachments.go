package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/media"
)

const imagesDir = "images"

// multipart framing on top of the image itself
const maxUploadBytes = media.MaxImageBytes + 1<<20

// imageName validates that the filename is a plain image name with no path
// separators or traversal.
func imageName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Base(filepath.Clean(name))
	if cleaned != name || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !media.IsImage(cleaned) {
		return "", fmt.Errorf("unsupported image type: %s", name)
	}
	return cleaned, nil
}

// UploadImage handles POST /api/resume/images (multipart/form-data, field
// "file"). The image is stored as a new Version under the resume root.
//
//	@Summary		Upload a resume image
//	@Tags			resume
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BasicAuth
//	@Router			/resume/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := imageName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, media.MaxImageBytes+1))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read file"))
		return
	}
	if len(data) > media.MaxImageBytes {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large"))
		return
	}
	if err := media.Verify(name, data); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	logical := imagesDir + "/" + name
	key, err := h.opts.Uploads.Put(r.Context(), logical, data)
	if err != nil {
		h.logger.Error("image upload failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to store file"))
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Key:      key,
		Filename: name,
		Size:     len(data),
		URL:      "/api/proxy-image?path=" + url.QueryEscape(logical),
	})
}
