package api

import (
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
)

// PostListResponse wraps the post index.
type PostListResponse struct {
	Posts []models.IndexEntry `json:"posts" validate:"required"`
	Total int                 `json:"total" example:"12" validate:"required"`
}

// PostDetail is a single published post (aliased from the domain layer).
type PostDetail = models.Post

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// ResumeResponse lists the rendered resume sections.
type ResumeResponse struct {
	Sections []models.ResumeSection `json:"sections" validate:"required"`
}

// ContactResponse is the result of a contact form submission.
type ContactResponse struct {
	OK      bool   `json:"ok" validate:"required"`
	Message string `json:"message,omitempty" example:"Thank you for your message."`
	Error   string `json:"error,omitempty" example:"VALIDATION_ERROR"`
}

// UploadResponse describes a stored image Version.
type UploadResponse struct {
	Key      string `json:"key" example:"resume/images/profile_20240101120000.png" validate:"required"`
	Filename string `json:"filename" example:"profile.png" validate:"required"`
	Size     int    `json:"size" example:"2048" validate:"required"`
	URL      string `json:"url" example:"/api/proxy-image?path=images%2Fprofile.png" validate:"required"`
}

// HealthResponse is returned by the health checks.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
}
