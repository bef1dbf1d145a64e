package resume

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/media"
	"github.com/starford/folio/internal/storage"
)

// ImageData is the JSON written beside a converted image.
type ImageData struct {
	Src      string `json:"src"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
}

// ConvertImage embeds the image at path as a data URL in {name}.json next
// to it and returns the JSON path. Unknown extensions are labelled image/png.
func ConvertImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("resume: read image: %w", err)
	}
	ext := filepath.Ext(path)
	mimeType, ok := media.ImageType(path)
	if !ok {
		mimeType = "image/png"
	}

	out, err := json.MarshalIndent(ImageData{
		Src:      "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename: filepath.Base(path),
		Size:     len(data),
		MimeType: mimeType,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	target := strings.TrimSuffix(path, ext) + ".json"
	if err := storage.WriteFileAtomic(target, out); err != nil {
		return "", fmt.Errorf("resume: write %s: %w", target, err)
	}
	return target, nil
}
