package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crimemap/crimemap/internal/model"
)

// Store is the incident data the tools operate on. *store.Store satisfies it.
type Store interface {
	ListCodes(ctx context.Context, codes []int) ([]model.Code, error)
	ListNeighborhoods(ctx context.Context, ids []int) ([]model.Neighborhood, error)
	ListIncidents(ctx context.Context, f model.IncidentFilter) ([]model.Incident, error)
	CreateIncident(ctx context.Context, inc model.Incident) error
	DeleteIncident(ctx context.Context, caseNumber string) error
}

// MCPServer wraps the mcp-go server with the crimemap tools and resources,
// so AI agents can browse codes, neighborhoods and incidents and file or
// retract incidents.
type MCPServer struct {
	store  Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(store Store, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"crimemap",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout for clients that launch the
// server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr (e.g. ":8081").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(false),
	}
}

func destructiveAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
