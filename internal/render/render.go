// Package render converts markdown bodies to HTML with goldmark.
package render

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

type options struct {
	imageProxy string
}

// Option configures a Renderer.
type Option func(*options)

// WithImageProxy rewrites relative image sources to endpoint?path=<src>.
func WithImageProxy(endpoint string) Option {
	return func(o *options) { o.imageProxy = endpoint }
}

// New builds a GFM renderer with auto heading IDs and hard wraps.
func New(opts ...Option) *Renderer {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if o.imageProxy != "" {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(&imageProxyTransformer{endpoint: o.imageProxy}, 100),
		))
	}

	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)}
}

// HTML renders a markdown body.
func (r *Renderer) HTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}

type imageProxyTransformer struct {
	endpoint string
}

func (t *imageProxyTransformer) Transform(node *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		if dest := string(img.Destination); !isExternal(dest) {
			img.Destination = []byte(ProxyURL(t.endpoint, dest))
		}
		return ast.WalkContinue, nil
	})
}

// ProxyURL returns the proxy address for a relative image source. Leading
// "./" and "/" are dropped and the remainder is escaped as one query value.
func ProxyURL(endpoint, src string) string {
	src = strings.TrimPrefix(src, "./")
	src = strings.TrimPrefix(src, "/")
	return endpoint + "?path=" + strings.ReplaceAll(url.QueryEscape(src), "+", "%20")
}

func isExternal(dest string) bool {
	return dest == "" ||
		strings.HasPrefix(dest, "http") ||
		strings.HasPrefix(dest, "data:") ||
		strings.HasPrefix(dest, "//")
}
