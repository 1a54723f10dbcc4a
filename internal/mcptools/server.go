package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = `iMet remembers the people you meet.
Use connection_capture right after meeting someone, connection_list and connection_get to recall them,
and nudge_list to see who is worth reaching out to next.`

// NewServer creates the MCP server with every tool registered.
func NewServer(connections ConnectionReader, capturer Capturer, nudges NudgeLister) *server.MCPServer {
	s := server.NewMCPServer(
		"imet",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	listTool := NewListConnectionsTool(connections)
	s.AddTool(listTool.Definition(), listTool.Handle)

	getTool := NewGetConnectionTool(connections)
	s.AddTool(getTool.Definition(), getTool.Handle)

	captureTool := NewCaptureConnectionTool(capturer)
	s.AddTool(captureTool.Definition(), captureTool.Handle)

	nudgeTool := NewListNudgesTool(nudges)
	s.AddTool(nudgeTool.Definition(), nudgeTool.Handle)

	return s
}
