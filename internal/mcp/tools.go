package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/query"
	"github.com/crimemap/crimemap/internal/store"
	"github.com/crimemap/crimemap/internal/validation"
)

// registerTools registers the crimemap MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Reference data -----

	srv.AddTool(
		mcp.NewTool("crimemap_list_codes",
			mcp.WithDescription(
				"List incident classification codes and their labels, ordered by code. "+
					"Use this to translate the numeric code of an incident.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("codes",
				mcp.Description("Comma-separated codes to include (e.g. \"110,700\"). Omit for all."),
			),
		),
		s.handleListCodes,
	)

	srv.AddTool(
		mcp.NewTool("crimemap_list_neighborhoods",
			mcp.WithDescription("List neighborhoods (district councils) ordered by number."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("ids",
				mcp.Description("Comma-separated neighborhood numbers to include (e.g. \"3,7\"). Omit for all."),
			),
		),
		s.handleListNeighborhoods,
	)

	// ----- Incidents -----

	srv.AddTool(
		mcp.NewTool("crimemap_list_incidents",
			mcp.WithDescription(
				"List incidents newest first. Every filter is optional; dates are "+
					"inclusive and compare the calendar date of the incident.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("start_date", mcp.Description("Earliest date, YYYY-MM-DD")),
			mcp.WithString("end_date", mcp.Description("Latest date, YYYY-MM-DD")),
			mcp.WithString("codes", mcp.Description("Comma-separated codes")),
			mcp.WithString("grids", mcp.Description("Comma-separated police grids")),
			mcp.WithString("neighborhoods", mcp.Description("Comma-separated neighborhood numbers")),
			mcp.WithNumber("limit", mcp.Description("Maximum incidents to return (default 1000)")),
		),
		s.handleListIncidents,
	)

	srv.AddTool(
		mcp.NewTool("crimemap_create_incident",
			mcp.WithDescription(
				"Record a new incident. Fails if the case number already exists; the "+
					"existing incident is left unchanged.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("case_number", mcp.Required(), mcp.Description("Unique case number")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Date, YYYY-MM-DD")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Time, HH:MM:SS")),
			mcp.WithNumber("code", mcp.Description("Incident code (see crimemap_list_codes)")),
			mcp.WithString("incident", mcp.Description("Incident description")),
			mcp.WithNumber("police_grid", mcp.Description("Police grid number")),
			mcp.WithNumber("neighborhood_number", mcp.Description("Neighborhood number")),
			mcp.WithString("block", mcp.Description("Block address, e.g. \"98X UNIVERSITY AV W\"")),
		),
		s.handleCreateIncident,
	)

	srv.AddTool(
		mcp.NewTool("crimemap_delete_incident",
			mcp.WithDescription("Delete an incident by case number. Fails if it does not exist."),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithString("case_number", mcp.Required(), mcp.Description("Case number to delete")),
		),
		s.handleDeleteIncident,
	)
}

func (s *MCPServer) handleListCodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	codes, err := optionalIntList(request, "codes")
	if err != nil {
		return toolError("%v", err)
	}
	out, err := s.store.ListCodes(ctx, codes)
	if err != nil {
		s.logger.Error("mcp list codes failed", "error", err)
		return toolError("Query failed: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleListNeighborhoods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := optionalIntList(request, "ids")
	if err != nil {
		return toolError("%v", err)
	}
	out, err := s.store.ListNeighborhoods(ctx, ids)
	if err != nil {
		s.logger.Error("mcp list neighborhoods failed", "error", err)
		return toolError("Query failed: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleListIncidents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := model.IncidentFilter{
		Limit: optionalInt(request, "limit", 0),
	}
	var err error
	if f.StartDate, err = query.ParseDate(optionalString(request, "start_date")); err != nil {
		return toolError("parameter start_date: %v", err)
	}
	if f.EndDate, err = query.ParseDate(optionalString(request, "end_date")); err != nil {
		return toolError("parameter end_date: %v", err)
	}
	if f.Codes, err = optionalIntList(request, "codes"); err != nil {
		return toolError("%v", err)
	}
	if f.Grids, err = optionalIntList(request, "grids"); err != nil {
		return toolError("%v", err)
	}
	if f.Neighborhoods, err = optionalIntList(request, "neighborhoods"); err != nil {
		return toolError("%v", err)
	}
	f.Limit = f.EffectiveLimit()

	out, err := s.store.ListIncidents(ctx, f)
	if err != nil {
		s.logger.Error("mcp list incidents failed", "error", err)
		return toolError("Query failed: %v", err)
	}
	return successJSON(map[string]interface{}{
		"incidents": out,
		"count":     len(out),
		"limit":     f.Limit,
	})
}

func (s *MCPServer) handleCreateIncident(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inc := model.Incident{
		CaseNumber:         optionalString(request, "case_number"),
		Date:               optionalString(request, "date"),
		Time:               optionalString(request, "time"),
		Code:               optionalInt(request, "code", 0),
		Incident:           optionalString(request, "incident"),
		PoliceGrid:         optionalInt(request, "police_grid", 0),
		NeighborhoodNumber: optionalInt(request, "neighborhood_number", 0),
		Block:              optionalString(request, "block"),
	}
	if err := validation.Struct(inc); err != nil {
		return toolError("Invalid incident: %v", err)
	}

	err := s.store.CreateIncident(ctx, inc)
	switch {
	case err == nil:
		return successJSON(map[string]interface{}{"created": inc.CaseNumber})
	case errors.Is(err, store.ErrConflict):
		return toolError("Case number %s already exists", inc.CaseNumber)
	default:
		s.logger.Error("mcp create incident failed", "error", err)
		return toolError("Insert failed: %v", err)
	}
}

func (s *MCPServer) handleDeleteIncident(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caseNumber, err := requireString(request, "case_number")
	if err != nil {
		return toolError("%v", err)
	}

	err = s.store.DeleteIncident(ctx, caseNumber)
	switch {
	case err == nil:
		return successJSON(map[string]interface{}{"deleted": caseNumber})
	case errors.Is(err, store.ErrNotFound):
		return toolError("Case number %s does not exist", caseNumber)
	default:
		s.logger.Error("mcp delete incident failed", "error", err)
		return toolError("Delete failed: %v", err)
	}
}
