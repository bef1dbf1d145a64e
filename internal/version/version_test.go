package version

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/testutil"
)

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	ts := time.Date(2025, 2, 3, 9, 4, 5, 0, loc)
	assert.Equal(t, "20250203000405", Timestamp(ts))
}

func TestKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		root, logical, want string
	}{
		{"resume", "resume.md", "resume/resume_20240301120000.md"},
		{"resume", "./images/profile.png", "resume/images/profile_20240301120000.png"},
		{"resume", "/images/profile.png", "resume/images/profile_20240301120000.png"},
		{"posts", "hello-world.md", "posts/hello-world_20240301120000.md"},
		{"", "notes/readme", "notes/readme_20240301120000"},
	}
	for _, tc := range cases {
		got, err := Key(tc.root, tc.logical, ts)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Key(%q, %q)", tc.root, tc.logical)
	}
}

func TestCleanLogicalRejectsTraversal(t *testing.T) {
	for _, p := range []string{"", "/", "./", "../secret.md", "images/../../x.png", `..\x.png`} {
		_, err := CleanLogical(p)
		assert.ErrorIs(t, err, apperr.ErrInvalidPath, "path %q", p)
	}
}

func TestPrefix(t *testing.T) {
	prefix, ext, err := Prefix("resume", "images/profile.png")
	require.NoError(t, err)
	assert.Equal(t, "resume/images/profile_", prefix)
	assert.Equal(t, ".png", ext)

	prefix, ext, err = Prefix("resume", "skills")
	require.NoError(t, err)
	assert.Equal(t, "resume/skills_", prefix)
	assert.Empty(t, ext)
}

func TestSelect(t *testing.T) {
	keys := []string{
		"skills_20250101000000.md",
		"skills_20250203000000.md",
	}
	got, ok := Select(keys, "skills_", "")
	require.True(t, ok)
	assert.Equal(t, "skills_20250203000000.md", got)
}

func TestSelectSkipsMalformedKeys(t *testing.T) {
	keys := []string{
		"resume/skills_20240101000000.md",
		"resume/skills_20991231235959",       // no extension
		"resume/skills_20991231235959/",      // directory marker
		"resume/skills_old/20991231235959.md", // nested
		"resume/skills_20991231235959.txt",   // wrong extension
		"resume/skills-old_20991231235959.md", // different document
		"resume/skills_old_20991231235959.md", // sibling document
		"resume/skills_2099.md",               // short stamp
		"resume/skills_2099123123595x.md",     // non-digit stamp
		"resume/skills_20991231235959.md.bak", // trailing junk
	}
	got, ok := Select(keys, "resume/skills_", ".md")
	require.True(t, ok)
	assert.Equal(t, "resume/skills_20240101000000.md", got)
}

func TestResolveSkipsSiblingDocuments(t *testing.T) {
	src := testutil.NewMemorySource(map[string]string{
		"posts/go_20240101000000.md":              "go",
		"posts/go_tips_20991231235959.md":         "tips",
		"images/profile_20240101000000.png":       "profile",
		"images/profile_small_20991231.png":       "bad stamp",
		"images/profile_small_20991231235959.png": "small",
	})
	ctx := context.Background()

	obj, err := Resolve(ctx, src, "posts", "go.md")
	require.NoError(t, err)
	assert.Equal(t, "go", string(obj.Data))

	obj, err = Resolve(ctx, src, "posts", "go_tips.md")
	require.NoError(t, err)
	assert.Equal(t, "tips", string(obj.Data))

	obj, err = Resolve(ctx, src, "", "images/profile.png")
	require.NoError(t, err)
	assert.Equal(t, "profile", string(obj.Data))

	obj, err = Resolve(ctx, src, "", "images/profile_small.png")
	require.NoError(t, err)
	assert.Equal(t, "small", string(obj.Data))
}

func TestSelectEmpty(t *testing.T) {
	_, ok := Select(nil, "missing_", "")
	assert.False(t, ok)
	_, ok = Select([]string{"other_20240101000000.md"}, "missing_", "")
	assert.False(t, ok)
}

func TestLatest(t *testing.T) {
	src := testutil.NewMemorySource(map[string]string{
		"skills_20250101000000.md": "old",
		"skills_20250203000000.md": "new",
	})
	obj, err := Latest(context.Background(), src, "skills_", "")
	require.NoError(t, err)
	assert.Equal(t, "skills_20250203000000.md", obj.Key)
	assert.Equal(t, "new", string(obj.Data))
}

func TestLatestNotFound(t *testing.T) {
	src := testutil.NewMemorySource(map[string]string{
		"skills_20250101000000.md": "old",
	})
	_, err := Latest(context.Background(), src, "missing_", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLatestPropagatesListError(t *testing.T) {
	src := testutil.NewMemorySource(nil)
	boom := errors.New("network down")
	src.ListErr = boom
	_, err := Latest(context.Background(), src, "skills_", "")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestWriteThenResolveReturnsNewest(t *testing.T) {
	ctx := context.Background()
	_, store := testutil.TestStore(t)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	for _, v := range []struct {
		at   time.Time
		body string
	}{{t1, "first"}, {t2, "second"}} {
		key, err := Key("resume", "career.md", v.at)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, key, []byte(v.body), ""))
	}

	obj, err := Resolve(ctx, store, "resume", "career.md")
	require.NoError(t, err)
	assert.Equal(t, "second", string(obj.Data))
	assert.Equal(t, "resume/career_20240101000001.md", obj.Key)
}

func TestResolveImageIgnoresOtherExtensions(t *testing.T) {
	src := testutil.NewMemorySource(map[string]string{
		"resume/images/profile_20240101000000.png": "png",
		"resume/images/profile_20250101000000.jpg": "jpg",
	})
	obj, err := Resolve(context.Background(), src, "resume", "images/profile.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(obj.Data))
}
