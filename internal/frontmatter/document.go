package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is front matter kept as a YAML mapping node so that key order
// and scalar styles survive a rewrite.
type Document struct {
	root *yaml.Node
	Body string
}

// ParseDocument splits data into an editable front matter mapping and body.
// A document without front matter gets an empty mapping.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
	block, body, ok := Split(data)
	doc.Body = body
	if !ok || len(bytes.TrimSpace(block)) == 0 {
		return doc, nil
	}

	var n yaml.Node
	if err := yaml.Unmarshal(block, &n); err != nil {
		return nil, fmt.Errorf("frontmatter: decode: %w", err)
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) != 1 || n.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter: front matter is not a mapping")
	}
	doc.root = n.Content[0]
	return doc, nil
}

// Get returns the scalar value stored under key.
func (d *Document) Get(key string) (string, bool) {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			return d.root.Content[i+1].Value, true
		}
	}
	return "", false
}

// Set stores a plain scalar under key, replacing any existing value in place.
func (d *Document) Set(key, value string) {
	val := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			d.root.Content[i+1] = val
			return
		}
	}
	d.root.Content = append(d.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
}

// Bytes renders "---\n" + front matter + "---\n" + body + "\n".
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(d.root.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.root); err != nil {
			return nil, fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("frontmatter: encode: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(strings.TrimRight(d.Body, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
