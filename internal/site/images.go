package site

import (
	"context"
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/version"
)

// Image is a resolved image Version.
type Image struct {
	Key         string
	Data        []byte
	ContentType string
}

// Images serves resume images through the proxy.
type Images struct {
	src  storage.Source
	root string
}

// NewImages creates an Images service.
func NewImages(src storage.Source, root string) *Images {
	return &Images{src: src, root: root}
}

// Get resolves the latest Version of an image by logical path. Paths
// without an image extension are reported as not found.
func (i *Images) Get(ctx context.Context, p string) (*Image, error) {
	clean, err := version.CleanLogical(p)
	if err != nil {
		return nil, err
	}
	ct, ok := media.ImageType(clean)
	if !ok {
		return nil, fmt.Errorf("images: %q: %w", p, apperr.ErrNotFound)
	}
	obj, err := version.Resolve(ctx, i.src, i.root, clean)
	if err != nil {
		return nil, err
	}
	return &Image{Key: obj.Key, Data: obj.Data, ContentType: ct}, nil
}
