package site

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/version"
)

// Resume serves the gated resume sections.
type Resume struct {
	src      storage.Source
	root     string
	sections []string
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewResume creates a Resume service for the given section slugs.
func NewResume(src storage.Source, root string, sections []string, renderer *render.Renderer, logger *slog.Logger) *Resume {
	if len(sections) == 0 {
		sections = frontmatter.ResumeTypes
	}
	if renderer == nil {
		renderer = render.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resume{src: src, root: root, sections: sections, renderer: renderer, logger: logger}
}

// Sections returns the configured section slugs.
func (r *Resume) Sections() []string { return r.sections }

// Markdown returns the latest Version of one section, unparsed.
func (r *Resume) Markdown(ctx context.Context, slug string) (*models.Object, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	return version.Resolve(ctx, r.src, r.root, slug+".md")
}

// All renders every configured section with valid front matter, ordered
// resume, career, skills. Missing sections are skipped.
func (r *Resume) All(ctx context.Context) ([]models.ResumeSection, error) {
	out := []models.ResumeSection{}
	for _, slug := range r.sections {
		obj, err := r.Markdown(ctx, slug)
		if errors.Is(err, apperr.ErrNotFound) {
			r.logger.Debug("resume: section missing", slog.String("slug", slug))
			continue
		}
		if err != nil {
			return nil, err
		}

		meta, body, err := frontmatter.ParseResume(obj.Data)
		if err != nil || !meta.Valid() {
			r.logger.Warn("resume: invalid front matter", slog.String("key", obj.Key))
			continue
		}
		html, err := r.renderer.HTML(body)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ResumeSection{
			Slug:      slug,
			Title:     meta.Title,
			Type:      meta.Type,
			CreatedAt: meta.CreatedAt.String(),
			UpdatedAt: meta.UpdatedAt.String(),
			Content:   body,
			HTML:      html,
			Key:       obj.Key,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return frontmatter.TypeRank(out[i].Type) < frontmatter.TypeRank(out[j].Type)
	})
	return out, nil
}
