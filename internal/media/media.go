// Package media identifies image files by name and content.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// MaxImageBytes caps uploaded images.
const MaxImageBytes = 10 << 20

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// canonical extension per MIME type
var mimeExts = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var (
	ErrNotImage = errors.New("not a supported image")
	ErrMismatch = errors.New("content does not match extension")
)

// Extensions lists the accepted image extensions for messages.
const Extensions = "png, jpg, jpeg, gif, webp, svg"

// ImageType returns the MIME type of an image name by extension.
func ImageType(name string) (string, bool) {
	ct, ok := imageTypes[strings.ToLower(path.Ext(name))]
	return ct, ok
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	_, ok := ImageType(name)
	return ok
}

// ExtFor returns the canonical extension for an image MIME type.
func ExtFor(mime string) (string, bool) {
	ext, ok := mimeExts[strings.ToLower(mime)]
	return ext, ok
}

// Verify checks that data looks like the image type named by name's
// extension. SVG is recognised by an <svg tag in the first KiB; everything
// else by content sniffing.
func Verify(name string, data []byte) error {
	want, ok := ImageType(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotImage)
	}
	if want == "image/svg+xml" {
		head := data[:min(len(data), 1024)]
		if !bytes.Contains(head, []byte("<svg")) {
			return fmt.Errorf("%s: missing <svg tag: %w", name, ErrMismatch)
		}
		return nil
	}
	got, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if got != want {
		return fmt.Errorf("%s: detected %s: %w", name, got, ErrMismatch)
	}
	return nil
}

// DecodeDataURI decodes a base64 data URI holding an image and returns the
// bytes with their MIME type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errors.New("expected a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("invalid data URI: missing comma separator")
	}
	meta, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", errors.New("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime, _, _ := strings.Cut(meta, ";")
	if _, ok := ExtFor(mime); !ok {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, strings.ToLower(mime), nil
}
