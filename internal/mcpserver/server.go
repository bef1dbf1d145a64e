// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes folio content to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/upload"
)

const (
	contractURI        = "folio://front-matter"
	defaultSearchLimit = 20
	defaultInboxLimit  = 20
)

// Deps are the services the tools read from. Search, Contact and Uploads
// are optional; their tools are not registered when nil.
type Deps struct {
	Posts   *site.Posts
	Resume  *site.Resume
	Search  *search.Index
	Contact *contact.Service
	Uploads *upload.Uploader
}

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// New creates a new MCP server with all folio tools registered.
func New(deps Deps, version string) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published posts from the generated index, newest first."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the latest Version of a published post, including its Markdown body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (file name without .md)")),
	), s.readPost)

	if deps.Search != nil {
		s.mcp.AddTool(mcp.NewTool("search_posts",
			mcp.WithDescription("Full-text search through published post titles and bodies."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		), s.searchPosts)
	}

	s.mcp.AddTool(mcp.NewTool("read_resume_section",
		mcp.WithDescription("Read the raw Markdown of the latest Version of a resume section."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Section slug: resume, career or skills")),
	), s.readResumeSection)

	s.mcp.AddTool(mcp.NewTool("get_front_matter_contract",
		mcp.WithDescription("Returns the front matter contract for posts and resume sections."),
	), s.getContract)

	if deps.Contact != nil {
		s.mcp.AddTool(mcp.NewTool("list_contact_messages",
			mcp.WithDescription("List the most recent contact form messages, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of messages (default 20)")),
		), s.listContactMessages)
	}

	if deps.Uploads != nil {
		s.mcp.AddTool(mcp.NewTool("upload_resume_image",
			mcp.WithDescription("Store an image as a new Version under resume/images. "+
				"Accepts a base64 data URI and returns the Markdown reference to paste into a section."),
			mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
			mcp.WithString("filename", mcp.Description("Target file name, e.g. profile.png")),
		), s.uploadResumeImage)
	}

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Front Matter Contract",
			mcp.WithResourceDescription("Front matter required for posts and resume sections."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func notFoundOr(err error, what string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidPath) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", what))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.deps.Posts.Index(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

type postPayload struct {
	Slug          string             `json:"slug"`
	FormattedData models.PostSummary `json:"formattedData"`
	Version       int                `json:"version"`
	Content       string             `json:"content"`
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.deps.Posts.Get(ctx, slug)
	if err != nil {
		return notFoundOr(err, slug), nil
	}
	return jsonResult(postPayload{
		Slug:          post.Slug,
		FormattedData: post.FormattedData,
		Version:       post.Version,
		Content:       post.Content,
	})
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)
	results, err := s.deps.Search.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readResumeSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	obj, err := s.deps.Resume.Markdown(ctx, slug)
	if err != nil {
		return notFoundOr(err, slug), nil
	}
	return mcp.NewToolResultText(string(obj.Data)), nil
}

func (s *Server) listContactMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msgs, err := s.deps.Contact.Recent(ctx, req.GetInt("limit", defaultInboxLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(msgs)
}

func (s *Server) getContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontMatterContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontMatterContract,
		},
	}, nil
}
