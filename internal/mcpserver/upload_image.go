package mcpserver

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/media"
)

const imagesDir = "images"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type uploadResult struct {
	Key           string `json:"key"`
	ProxyURL      string `json:"proxyUrl"`
	MarkdownImage string `json:"markdownImage"`
}

// uploadResumeImage stores a data-URI image as a new Version of
// images/{filename} under the resume root. A missing filename gets a random
// name; a filename without extension gets the one of the data URI's type.
func (s *Server) uploadResumeImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, mime, err := media.DecodeDataURI(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > media.MaxImageBytes {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), media.MaxImageBytes)), nil
	}

	name := sanitizeFilename(req.GetString("filename", ""))
	if path.Ext(name) == "" {
		ext, _ := media.ExtFor(mime)
		name += ext
	}
	if !media.IsImage(name) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s (allowed: %s)", path.Ext(name), media.Extensions)), nil
	}
	if err := media.Verify(name, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logical := imagesDir + "/" + name
	key, err := s.deps.Uploads.Put(ctx, logical, data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store image: %v", err)), nil
	}

	return jsonResult(uploadResult{
		Key:           key,
		ProxyURL:      "/api/proxy-image?path=" + url.QueryEscape(logical),
		MarkdownImage: fmt.Sprintf("![%s](./%s)", strings.TrimSuffix(name, path.Ext(name)), logical),
	})
}

// sanitizeFilename keeps the base name, replaces unsafe characters and
// drops leading dots. Empty results become a random name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return uuid.NewString()
	}
	return name
}
