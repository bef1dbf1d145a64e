package frontmatter

// Resume section types, in display order.
var ResumeTypes = []string{"resume", "career", "skills"}

// ResumeMeta is the front matter of a resume section.
type ResumeMeta struct {
	Title     string `yaml:"title"`
	Type      string `yaml:"type"`
	CreatedAt Date   `yaml:"createdAt"`
	UpdatedAt Date   `yaml:"updatedAt"`
}

// Valid reports whether every required field is present and the type is known.
func (m ResumeMeta) Valid() bool {
	if m.Title == "" || m.CreatedAt == "" || m.UpdatedAt == "" {
		return false
	}
	return TypeRank(m.Type) >= 0
}

// TypeRank returns the display position of a section type, or -1.
func TypeRank(typ string) int {
	for i, t := range ResumeTypes {
		if t == typ {
			return i
		}
	}
	return -1
}

// ParseResume decodes resume section front matter and returns it with the body.
func ParseResume(data []byte) (ResumeMeta, string, error) {
	var m ResumeMeta
	body, err := decode(data, &m)
	return m, body, err
}
