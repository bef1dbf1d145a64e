package postindex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePost(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func post(title string, published bool, created, updated string, version int) string {
	s := "---\ntitle: " + title + "\n"
	if published {
		s += "isPublished: true\n"
	}
	if created != "" {
		s += "createdAt: " + created + "\n"
	}
	if updated != "" {
		s += "updatedAt: " + updated + "\n"
	}
	if version > 0 {
		s += "version: " + string(rune('0'+version)) + "\n"
	}
	return s + "---\nBody of " + title + "\n"
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "older.md", post("Older", true, "2024-01-01", "2024-01-02", 0))
	writePost(t, dir, "newer.md", post("Newer", true, "2024-05-01", "2024-05-01", 2))
	writePost(t, dir, "draft.md", post("Draft", false, "2024-06-01", "2024-06-01", 0))
	writePost(t, dir, "post-template.md", post("Template", true, "2024-06-01", "2024-06-01", 0))
	writePost(t, dir, ".hidden.md", post("Hidden", true, "2024-06-01", "2024-06-01", 0))
	writePost(t, dir, "notes.txt", "ignored")

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "newer", res.Entries[0].Slug)
	assert.Equal(t, "older", res.Entries[1].Slug)
	assert.Equal(t, 2, res.Entries[0].Version)
	assert.Equal(t, 1, res.Entries[1].Version)
	assert.Equal(t, "/images/pencil01.svg", res.Entries[1].Thumbnail)
	assert.Equal(t, Stats{Changed: 2, Skipped: 1}, res.Stats)

	entries, err := LoadIndex(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Equal(t, res.Entries, entries)

	cache, err := LoadCache(filepath.Join(dir, CacheFile))
	require.NoError(t, err)
	assert.Equal(t, Cache{"older": 1, "newer": 2}, cache)

	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"slug\": \"newer\"")
	assert.NotContains(t, string(raw), "isNew")
}

func TestBuild_SecondRunUnchanged(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", post("A", true, "2024-01-01", "2024-01-01", 1))

	_, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 1}, res.Stats)
	assert.Len(t, res.Entries, 1)

	writePost(t, dir, "a.md", post("A", true, "2024-01-01", "2024-02-01", 2))
	res, err = Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, Stats{Changed: 1}, res.Stats)
	assert.Equal(t, 2, res.Cache["a"])
}

func TestBuild_RemovesStaleCacheEntries(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "kept.md", post("Kept", true, "2024-01-01", "2024-01-01", 0))
	writePost(t, dir, ".version-cache.json", `{"kept": 1, "removed": 4}`)

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, Cache{"kept": 1}, res.Cache)
}

func TestBuild_CorruptCacheStartsFresh(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", post("A", true, "2024-01-01", "2024-01-01", 0))
	writePost(t, dir, CacheFile, "{not json")

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, Stats{Changed: 1}, res.Stats)
}

func TestBuild_FailuresAreCountedAndBatchContinues(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "good.md", post("Good", true, "2024-01-01", "2024-01-01", 0))
	writePost(t, dir, "bad-yaml.md", "---\n: invalid: yaml: {{{\n---\nBody\n")
	writePost(t, dir, "no-title.md", "---\nisPublished: true\n---\nBody\n")
	writePost(t, dir, "no-dates.md", post("No dates", true, "", "", 0))

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncomplete)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.Stats.Errors)
	assert.Len(t, res.Failures, 3)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "good", res.Entries[0].Slug)

	// The index is still written for the posts that succeeded.
	entries, err := LoadIndex(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuild_MissingSourceDir(t *testing.T) {
	_, err := Build(context.Background(), Options{SourceDir: filepath.Join(t.TempDir(), "nope"), Logger: quietLogger()})
	assert.Error(t, err)
}

func TestBuild_PublishesChangedPosts(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "hello.md", post("Hello", true, "2024-01-01", "2024-01-01", 1))

	src := testutil.NewMemorySource(nil)
	pub := &StorePublisher{
		Source: src,
		Root:   "posts",
		Now:    func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	_, err := Build(context.Background(), Options{SourceDir: dir, Publisher: pub, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/hello_20240102030405.md"}, src.Puts())

	// Unchanged on the next run: nothing new is published.
	_, err = Build(context.Background(), Options{SourceDir: dir, Publisher: pub, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Len(t, src.Puts(), 1)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestBuild_PublishFailureKeepsCache(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "hello.md", post("Hello", true, "2024-01-01", "2024-01-01", 1))

	res, err := Build(context.Background(), Options{SourceDir: dir, Publisher: failingPublisher{}, Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrIncomplete)
	_, published := res.Published["hello"]
	assert.False(t, published, "failed publish must be retried on the next run")
	assert.Zero(t, res.Stats.Published)

	// The next run with a working publisher picks it up.
	src := testutil.NewMemorySource(nil)
	pub := &StorePublisher{Source: src, Root: "posts"}
	res, err = Build(context.Background(), Options{SourceDir: dir, Publisher: pub, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Published)
	assert.Len(t, src.Puts(), 1)
}

func TestBuild_PlainBuildDoesNotSuppressPublish(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "hello.md", post("Hello", true, "2024-01-01", "2024-01-01", 1))

	res, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cache["hello"])
	assert.Nil(t, res.Published)
	assert.NoFileExists(t, filepath.Join(dir, PublishCacheFile))

	src := testutil.NewMemorySource(nil)
	pub := &StorePublisher{
		Source: src,
		Root:   "posts",
		Now:    func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	res, err = Build(context.Background(), Options{SourceDir: dir, Publisher: pub, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 1, Published: 1}, res.Stats)
	assert.Equal(t, []string{"posts/hello_20240102030405.md"}, src.Puts())

	published, err := LoadCache(filepath.Join(dir, PublishCacheFile))
	require.NoError(t, err)
	assert.Equal(t, Cache{"hello": 1}, published)

	// Once published, a further publish build stores nothing new.
	_, err = Build(context.Background(), Options{SourceDir: dir, Publisher: pub, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Len(t, src.Puts(), 1)
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), IndexFile))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIndexEntryJSONShape(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", post("A", true, "2024-01-01", "2024-01-03", 0))
	_, err := Build(context.Background(), Options{SourceDir: dir, Logger: quietLogger()})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, map[string]any{
		"slug":      "a",
		"title":     "A",
		"createdAt": "2024-01-01",
		"updatedAt": "2024-01-03",
		"thumbnail": "/images/pencil01.svg",
		"version":   float64(1),
	}, generic[0])
}
