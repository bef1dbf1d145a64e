// Package frontmatter splits and decodes the YAML block at the top of a
// markdown document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// ErrNoFrontMatter is returned by the typed parsers when the document has no
// leading YAML block.
var ErrNoFrontMatter = errors.New("frontmatter: no front matter block")

// Split separates the YAML block (between leading --- lines) from the body.
// ok is false when no complete block exists; body is then the whole input.
func Split(data []byte) (block []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r\ufeff")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	// The opening line must be exactly "---".
	if nl := bytes.IndexByte(rest, '\n'); nl < 0 || strings.TrimSpace(string(rest[:nl])) != "" {
		return nil, string(data), false
	}
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = nil
	}
	return block, strings.TrimLeft(string(after), "\n\r"), true
}

// Date is a front matter date normalised to YYYY-MM-DD. YAML timestamps are
// converted to their UTC date; strings keep their first ten characters.
type Date string

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("frontmatter: line %d: date must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		*d = ""
		return nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return fmt.Errorf("frontmatter: line %d: %w", n.Line, err)
		}
		*d = Date(t.UTC().Format(time.DateOnly))
		return nil
	}
	v := strings.TrimSpace(n.Value)
	if r := []rune(v); len(r) > 10 {
		v = string(r[:10])
	}
	*d = Date(v)
	return nil
}

// String returns the formatted date.
func (d Date) String() string { return string(d) }

// Time parses the date at UTC midnight. ok is false for empty or malformed dates.
func (d Date) Time() (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func decode(data []byte, out any) (string, error) {
	block, body, ok := Split(data)
	if !ok {
		return body, ErrNoFrontMatter
	}
	if err := yaml.Unmarshal(block, out); err != nil {
		return body, fmt.Errorf("frontmatter: decode: %w", err)
	}
	return body, nil
}
