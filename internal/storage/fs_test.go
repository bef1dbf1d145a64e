package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestPutAndGet(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	content := []byte("# Hello\nWorld\n")
	if err := s.Put(ctx, "resume/resume_20240101000000.md", content, "text/markdown"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "resume/resume_20240101000000.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != string(content) {
		t.Errorf("content mismatch: got %q", got.Data)
	}
	if got.Key != "resume/resume_20240101000000.md" {
		t.Errorf("key = %q", got.Key)
	}
}

func TestGetMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get(context.Background(), "resume/nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByPrefix(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	for _, k := range []string{
		"resume/resume_20240101000000.md",
		"resume/resume_20240301000000.md",
		"resume/skills_20240101000000.md",
		"resume/images/profile_20240101000000.png",
		"posts/hello_20240101000000.md",
	} {
		if err := s.Put(ctx, k, []byte("x"), ""); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	items, err := s.List(ctx, "resume/resume_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var keys []string
	for _, it := range items {
		keys = append(keys, it.Key)
	}
	sort.Strings(keys)
	want := []string{"resume/resume_20240101000000.md", "resume/resume_20240301000000.md"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	nested, err := s.List(ctx, "resume/images/profile_")
	if err != nil {
		t.Fatalf("List nested: %v", err)
	}
	if len(nested) != 1 || nested[0].Size != 1 {
		t.Errorf("nested = %+v", nested)
	}
}

func TestListMissingDirectory(t *testing.T) {
	s := tempStore(t)
	items, err := s.List(context.Background(), "nothing/here_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Get(ctx, p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Get %q: err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Put(ctx, p, []byte("x"), ""); err == nil {
			t.Errorf("expected error for put to %q", p)
		}
	}
}

func TestAtomicPutLeavesNoTemp(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, "atomic.md", []byte("original content"), "")

	updated := []byte("updated content")
	if err := s.Put(ctx, "atomic.md", updated, ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ := s.Get(ctx, "atomic.md")
	if string(got.Data) != string(updated) {
		t.Errorf("expected updated content, got %q", got.Data)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "folio-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"resume/images/a_1.PNG": "image/png",
		"a.jpeg":                "image/jpeg",
		"a.jpg":                 "image/jpeg",
		"a.svg":                 "image/svg+xml",
		"a.webp":                "image/webp",
		"a.gif":                 "image/gif",
		"a.bin":                 "application/octet-stream",
		"noext":                 "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentType(key); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", key, got, want)
		}
	}
}
