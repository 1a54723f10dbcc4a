package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ListNudgesTool handles the nudge_list MCP tool.
type ListNudgesTool struct {
	nudges NudgeLister
}

// NewListNudgesTool creates a ListNudgesTool.
func NewListNudgesTool(nudges NudgeLister) *ListNudgesTool {
	return &ListNudgesTool{nudges: nudges}
}

// Definition returns the MCP tool definition for nudge_list.
func (t *ListNudgesTool) Definition() mcp.Tool {
	return mcp.NewTool("nudge_list",
		mcp.WithDescription("List suggested follow-ups with your connections, most urgent first."),
		mcp.WithNumber("limit",
			mcp.Description("Return at most this many nudges (default: all)"),
		),
	)
}

// Handle processes the nudge_list tool call.
func (t *ListNudgesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nudges, err := t.nudges.List(ctx)
	if err != nil {
		return errorResult("failed to list nudges", err), nil
	}
	if limit := intArg(req, "limit", 0); limit > 0 && limit < len(nudges) {
		nudges = nudges[:limit]
	}
	return jsonResult(map[string]interface{}{"nudges": nudges})
}
