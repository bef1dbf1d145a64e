// Package storage defines the content-store abstraction and its local and S3 backends.
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/models"
)

// Source is a flat key/value object store. Keys use forward slashes.
type Source interface {
	// List returns every object whose key starts with prefix. Order is unspecified.
	List(ctx context.Context, prefix string) ([]models.ObjectInfo, error)
	// Get returns the object stored under key, or apperr.ErrNotFound.
	Get(ctx context.Context, key string) (*models.Object, error)
	// Put stores data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

var textTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".json": "application/json",
}

// ContentType maps a key's extension to a MIME type, defaulting to
// application/octet-stream.
func ContentType(key string) string {
	if ct, ok := media.ImageType(key); ok {
		return ct
	}
	if ct, ok := textTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
