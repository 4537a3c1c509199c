package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	codesURI         = "crimemap://codes"
	neighborhoodsURI = "crimemap://neighborhoods"
)

// registerResources exposes the reference tables as read-only resources
// LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			codesURI,
			"Incident Codes",
			mcp.WithResourceDescription("Every incident classification code with its label."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleCodesResource,
	)

	srv.AddResource(
		mcp.NewResource(
			neighborhoodsURI,
			"Neighborhoods",
			mcp.WithResourceDescription("Every neighborhood number with its name."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleNeighborhoodsResource,
	)
}

func (s *MCPServer) handleCodesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	codes, err := s.store.ListCodes(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	return jsonResource(codesURI, codes)
}

func (s *MCPServer) handleNeighborhoodsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	hoods, err := s.store.ListNeighborhoods(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list neighborhoods: %w", err)
	}
	return jsonResource(neighborhoodsURI, hoods)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
