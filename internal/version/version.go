// Package version names and resolves timestamped Versions of a Document.
//
// A Version of "images/profile.png" under root "resume" is stored as
// "resume/images/profile_20240301120000.png". The latest Version is the key
// that sorts greatest among all keys sharing the Document's prefix.
package version

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// TimestampLayout is the fixed-width UTC stamp appended to every key.
const TimestampLayout = "20060102150405"

// Timestamp formats t as a 14-digit UTC stamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CleanLogical normalises a logical path: leading "./" and "/" are removed,
// backslashes become slashes, and any ".." segment is rejected.
func CleanLogical(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	for strings.HasPrefix(p, "./") || strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(strings.TrimPrefix(p, "./"), "/")
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty path", apperr.ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", apperr.ErrInvalidPath, p)
		}
	}
	p = path.Clean(p)
	if p == "." {
		return "", fmt.Errorf("%w: empty path", apperr.ErrInvalidPath)
	}
	return p, nil
}

// Key returns the storage key for a new Version of logical created at t.
func Key(root, logical string, t time.Time) (string, error) {
	clean, err := CleanLogical(logical)
	if err != nil {
		return "", err
	}
	ext := path.Ext(clean)
	return path.Join(root, strings.TrimSuffix(clean, ext)) + "_" + Timestamp(t) + ext, nil
}

// Prefix returns the listing prefix shared by every Version of logical and
// the extension candidates must carry ("" accepts any extension).
func Prefix(root, logical string) (prefix, ext string, err error) {
	clean, err := CleanLogical(logical)
	if err != nil {
		return "", "", err
	}
	ext = path.Ext(clean)
	return path.Join(root, strings.TrimSuffix(clean, ext)) + "_", ext, nil
}

// Select returns the greatest key that is a Version under prefix. A key
// qualifies only when the part after prefix is a 14-digit stamp followed by
// an extension, so sibling Documents such as "skills_old" never match
// "skills". With ext set, the extension must also match it.
func Select(keys []string, prefix, ext string) (string, bool) {
	var candidates []string
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		kext, ok := versionSuffix(rest)
		if !ok {
			continue
		}
		if ext != "" && !strings.EqualFold(kext, ext) {
			continue
		}
		candidates = append(candidates, k)
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))
	return candidates[0], true
}

// versionSuffix checks rest is "{stamp}{ext}" and returns ext.
func versionSuffix(rest string) (string, bool) {
	n := len(TimestampLayout)
	if len(rest) <= n {
		return "", false
	}
	for i := 0; i < n; i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return "", false
		}
	}
	ext := rest[n:]
	if ext[0] != '.' || path.Ext(ext) != ext || strings.Contains(ext, "/") || len(ext) == 1 {
		return "", false
	}
	return ext, true
}

// Latest fetches the newest Version under prefix. It returns an error
// wrapping apperr.ErrNotFound when no Version exists.
func Latest(ctx context.Context, src storage.Source, prefix, ext string) (*models.Object, error) {
	objs, err := src.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("version: list %q: %w", prefix, err)
	}
	keys := make([]string, len(objs))
	for i, o := range objs {
		keys[i] = o.Key
	}
	key, ok := Select(keys, prefix, ext)
	if !ok {
		return nil, fmt.Errorf("version: no version under %q: %w", prefix, apperr.ErrNotFound)
	}
	obj, err := src.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("version: get %q: %w", key, err)
	}
	return obj, nil
}

// Resolve fetches the newest Version of logical under root.
func Resolve(ctx context.Context, src storage.Source, root, logical string) (*models.Object, error) {
	prefix, ext, err := Prefix(root, logical)
	if err != nil {
		return nil, err
	}
	return Latest(ctx, src, prefix, ext)
}
