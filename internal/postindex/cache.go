package postindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// Cache maps a post slug to the last version seen by the build.
type Cache map[string]int

// LoadCache reads the version cache. A missing file yields an empty cache;
// a corrupt one is reported through err alongside an empty cache.
func LoadCache(path string) (Cache, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Cache{}, nil
	}
	if err != nil {
		return Cache{}, fmt.Errorf("postindex: read cache: %w", err)
	}
	c := Cache{}
	if err := json.Unmarshal(data, &c); err != nil {
		return Cache{}, fmt.Errorf("postindex: decode cache: %w", err)
	}
	return c, nil
}

// Save writes the cache as indented JSON.
func (c Cache) Save(path string) error {
	return writeJSON(path, c)
}

// LoadIndex reads the generated index file. A missing file yields an error
// wrapping apperr.ErrNotFound.
func LoadIndex(path string) ([]models.IndexEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("postindex: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postindex: read index: %w", err)
	}
	var entries []models.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("postindex: decode index: %w", err)
	}
	return entries, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("postindex: encode %s: %w", path, err)
	}
	if err := storage.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("postindex: write %s: %w", path, err)
	}
	return nil
}
