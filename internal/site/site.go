// Package site resolves and renders the content served by the HTTP layer.
package site

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSlug rejects anything that is not a single safe path segment.
func ValidateSlug(slug string) error {
	if len(slug) > 200 || !slugRe.MatchString(slug) || strings.Contains(slug, "..") {
		return fmt.Errorf("%w: slug %q", apperr.ErrInvalidPath, slug)
	}
	return nil
}
