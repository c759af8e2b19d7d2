package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/search"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Service is the part of the search service the tools call.
type Service interface {
	Search(ctx context.Context, req search.Request, sink enrich.Sink) error
	Tags(ctx context.Context, creds search.Credentials) ([]sme.Tag, error)
}

// Server wraps an MCP server that exposes document search tools.
type Server struct {
	svc      Service
	defaults search.Credentials
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. defaults supplies credentials for
// tool calls that carry neither a token nor a username.
func NewServer(svc Service, defaults search.Credentials) *Server {
	s := &Server{
		svc:      svc,
		defaults: defaults,
	}

	s.mcp = server.NewMCPServer(
		"smesearch",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(listTagsTool, s.handleListTags)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
