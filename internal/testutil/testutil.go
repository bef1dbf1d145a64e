// Package testutil provides shared test helpers for content stores and databases.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/sqlitedb"
	"github.com/starford/folio/internal/storage"
)

// TestDB opens a SQLite database in a temp directory that is cleaned up with the test.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sqlitedb.Open(filepath.Join(t.TempDir(), "folio-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestStore creates a temporary content directory with an FS source.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// MemorySource is an in-memory storage.Source. ListErr and GetErr, when set,
// are returned by every List or Get call.
type MemorySource struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string

	ListErr error
	GetErr  error
}

// NewMemorySource returns a source pre-populated with objects.
func NewMemorySource(objects map[string]string) *MemorySource {
	m := &MemorySource{objects: make(map[string][]byte, len(objects))}
	for k, v := range objects {
		m.objects[k] = []byte(v)
	}
	return m
}

func (m *MemorySource) List(_ context.Context, prefix string) ([]models.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.ObjectInfo{Key: k, Size: int64(len(v)), LastModified: time.Unix(0, 0)})
		}
	}
	return out, nil
}

func (m *MemorySource) Get(_ context.Context, key string) (*models.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory: %s: %w", key, apperr.ErrNotFound)
	}
	return &models.Object{Key: key, Data: append([]byte(nil), data...)}, nil
}

func (m *MemorySource) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.puts = append(m.puts, key)
	return nil
}

// Keys returns every stored key in ascending order.
func (m *MemorySource) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts returns the keys written through Put, in call order.
func (m *MemorySource) Puts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.puts...)
}

var _ storage.Source = (*MemorySource)(nil)
