// Package models defines the domain types for folio.
package models

import "time"

// ObjectInfo describes one stored object, i.e. one Version of a Document.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Object is a fetched Version.
type Object struct {
	Key  string
	Data []byte
}

// IndexEntry summarises one published post in the generated index file.
// IsNew and IsUpdated are derived at read time and never written to disk.
type IndexEntry struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Thumbnail string `json:"thumbnail"`
	Version   int    `json:"version"`
	IsNew     bool   `json:"isNew,omitempty"`
	IsUpdated bool   `json:"isUpdated,omitempty"`
}

// PostSummary is the display metadata of a post.
type PostSummary struct {
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Thumbnail string `json:"thumbnail"`
	IsNew     bool   `json:"isNew"`
	IsUpdated bool   `json:"isUpdated"`
}

// Post is a published post resolved from its latest Version.
type Post struct {
	Slug          string      `json:"slug"`
	FormattedData PostSummary `json:"formattedData"`
	Content       string      `json:"content"`
	HTML          string      `json:"html"`
	Version       int         `json:"version"`
	Key           string      `json:"key"`
}

// ResumeSection is one rendered section of the resume.
type ResumeSection struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Content   string `json:"content"`
	HTML      string `json:"html"`
	Key       string `json:"key"`
}
