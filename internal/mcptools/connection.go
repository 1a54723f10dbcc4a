package mcptools

import (
	"context"

	"imet-backend/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

// ListConnectionsTool handles the connection_list MCP tool.
type ListConnectionsTool struct {
	connections ConnectionReader
}

// NewListConnectionsTool creates a ListConnectionsTool.
func NewListConnectionsTool(connections ConnectionReader) *ListConnectionsTool {
	return &ListConnectionsTool{connections: connections}
}

// Definition returns the MCP tool definition for connection_list.
func (t *ListConnectionsTool) Definition() mcp.Tool {
	return mcp.NewTool("connection_list",
		mcp.WithDescription("List saved connections, oldest first."),
		mcp.WithNumber("limit",
			mcp.Description("Return at most this many connections (default: all)"),
		),
	)
}

// Handle processes the connection_list tool call.
func (t *ListConnectionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conns, err := t.connections.List(ctx)
	if err != nil {
		return errorResult("failed to list connections", err), nil
	}
	if limit := intArg(req, "limit", 0); limit > 0 && limit < len(conns) {
		conns = conns[:limit]
	}
	return jsonResult(map[string]interface{}{"connections": conns})
}

// GetConnectionTool handles the connection_get MCP tool.
type GetConnectionTool struct {
	connections ConnectionReader
}

// NewGetConnectionTool creates a GetConnectionTool.
func NewGetConnectionTool(connections ConnectionReader) *GetConnectionTool {
	return &GetConnectionTool{connections: connections}
}

// Definition returns the MCP tool definition for connection_get.
func (t *GetConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("connection_get",
		mcp.WithDescription("Fetch one connection by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Connection id"),
		),
	)
}

// Handle processes the connection_get tool call.
func (t *GetConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	conn, err := t.connections.Get(ctx, id)
	if err != nil {
		return errorResult("failed to get connection", err), nil
	}
	return jsonResult(map[string]interface{}{"connection": conn})
}

// CaptureConnectionTool handles the connection_capture MCP tool.
type CaptureConnectionTool struct {
	capturer Capturer
}

// NewCaptureConnectionTool creates a CaptureConnectionTool.
func NewCaptureConnectionTool(capturer Capturer) *CaptureConnectionTool {
	return &CaptureConnectionTool{capturer: capturer}
}

// Definition returns the MCP tool definition for connection_capture.
func (t *CaptureConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("connection_capture",
		mcp.WithDescription(
			"Save someone you just met from a free-form description. The description is summarized, "+
				"parsed into fields and stored as a new connection.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What you remember about the person and the meeting"),
		),
		mcp.WithString("email", mcp.Description("Email address, overrides anything parsed")),
		mcp.WithString("phone", mcp.Description("Phone number, overrides anything parsed")),
		mcp.WithString("linkedin", mcp.Description("LinkedIn profile URL, overrides anything parsed")),
		mcp.WithString("notes", mcp.Description("Private notes to keep with the connection")),
	)
}

// Handle processes the connection_capture tool call.
func (t *CaptureConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := req.GetString("description", "")
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	email := optionalString(req, "email")
	phone := optionalString(req, "phone")
	linkedin := optionalString(req, "linkedin")
	notes := optionalString(req, "notes")

	res, err := t.capturer.Capture(ctx, description, func(f *domain.ConnectionFields) {
		if email != nil {
			f.Email = email
		}
		if phone != nil {
			f.Phone = phone
		}
		if linkedin != nil {
			f.LinkedIn = linkedin
		}
		if notes != nil {
			f.Notes = notes
		}
	})
	if err != nil {
		return errorResult("failed to capture connection", err), nil
	}
	return jsonResult(map[string]interface{}{
		"summary":    res.Summary,
		"connection": res.Connection,
	})
}
