package apperr

import "errors"

var (
	// ErrNotFound marks an expected empty state: no Version, no index, no image.
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidPath = errors.New("invalid path")
	ErrInvalid     = errors.New("invalid")
)
