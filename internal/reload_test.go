package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/testutil"
)

type recordedEvent struct{ kind, slug string }

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishPostEvent(kind, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind, slug})
}

func (r *recorder) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	helloIndex = `[{"slug":"hello","title":"Hello","createdAt":"2024-06-10","updatedAt":"2024-06-10","thumbnail":"/t.png","version":1}]`
	bothIndex  = `[{"slug":"world","title":"World","createdAt":"2024-06-12","updatedAt":"2024-06-12","thumbnail":"/t.png","version":1},` +
		`{"slug":"hello","title":"Hello","createdAt":"2024-06-10","updatedAt":"2024-06-11","thumbnail":"/t.png","version":2}]`
)

func newReloadEnv(t *testing.T) (*indexReloader, *search.Index, *recorder, string) {
	t.Helper()
	src := testutil.NewMemorySource(map[string]string{
		"posts/hello_20240610000000.md": "---\ntitle: Hello\nisPublished: true\n---\ngophers everywhere\n",
		"posts/world_20240612000000.md": "---\ntitle: World\nisPublished: true\n---\nwide world of sports\n",
	})
	idx := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(idx, []byte(helloIndex), 0o644))

	ix, err := search.New(testutil.TestDB(t))
	require.NoError(t, err)

	posts := site.NewPosts(site.PostsOptions{Source: src, Root: "posts", IndexPath: idx, Logger: discardLogger()})
	rec := &recorder{}
	return newIndexReloader(posts, ix, rec, discardLogger()), ix, rec, idx
}

func TestIndexReloader_LoadSyncsWithoutEvents(t *testing.T) {
	r, ix, rec, _ := newReloadEnv(t)
	ctx := context.Background()

	r.Load(ctx)

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, rec.snapshot())
}

func TestIndexReloader_ReloadPublishesChanges(t *testing.T) {
	r, ix, rec, idx := newReloadEnv(t)
	ctx := context.Background()
	r.Load(ctx)

	require.NoError(t, os.WriteFile(idx, []byte(bothIndex), 0o644))
	changes := r.Reload(ctx)

	assert.Equal(t, []site.Change{
		{Kind: site.ChangeUpdated, Slug: "hello"},
		{Kind: site.ChangeCreated, Slug: "world"},
	}, changes)
	assert.Equal(t, []recordedEvent{{"updated", "hello"}, {"created", "world"}}, rec.snapshot())

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, os.WriteFile(idx, []byte(`[]`), 0o644))
	changes = r.Reload(ctx)
	assert.Len(t, changes, 2)
	n, err = ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIndexReloader_ReloadUnchanged(t *testing.T) {
	r, _, rec, _ := newReloadEnv(t)
	ctx := context.Background()
	r.Load(ctx)

	assert.Empty(t, r.Reload(ctx))
	assert.Empty(t, rec.snapshot())
}

func TestIndexReloader_WatchReloadsOnWrite(t *testing.T) {
	r, _, rec, idx := newReloadEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Load(ctx)

	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, idx) }()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(idx, []byte(bothIndex), 0o644))

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
