package frontmatter

// DefaultThumbnail is used for posts that declare none.
const DefaultThumbnail = "/images/pencil01.svg"

// PostMeta is the front matter of a blog post.
type PostMeta struct {
	Title       string `yaml:"title"`
	IsPublished bool   `yaml:"isPublished"`
	CreatedAt   Date   `yaml:"createdAt"`
	UpdatedAt   Date   `yaml:"updatedAt"`
	Thumbnail   string `yaml:"thumbnail"`
	Version     int    `yaml:"version"`
}

// Complete reports whether the title and both dates are present.
func (m PostMeta) Complete() bool {
	return m.Title != "" && m.CreatedAt != "" && m.UpdatedAt != ""
}

// Published reports whether the post may be served.
func (m PostMeta) Published() bool {
	return m.IsPublished && m.Complete()
}

// ThumbnailOrDefault returns the thumbnail, falling back to DefaultThumbnail.
func (m PostMeta) ThumbnailOrDefault() string {
	if m.Thumbnail == "" {
		return DefaultThumbnail
	}
	return m.Thumbnail
}

// EffectiveVersion returns the declared version, or 1 when absent.
func (m PostMeta) EffectiveVersion() int {
	if m.Version <= 0 {
		return 1
	}
	return m.Version
}

// ParsePost decodes the post front matter and returns it with the body.
// A document without front matter yields ErrNoFrontMatter.
func ParsePost(data []byte) (PostMeta, string, error) {
	var m PostMeta
	body, err := decode(data, &m)
	return m, body, err
}
