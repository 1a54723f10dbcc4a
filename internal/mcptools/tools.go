// Package mcptools exposes connections and nudges as MCP tools.
//
// Each tool follows the same shape:
//   - a struct holding its service dependency, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Failures the caller can act on are returned as tool errors, not protocol errors.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"imet-backend/internal/domain"
	"imet-backend/internal/service/capture"
	appErrors "imet-backend/pkg/errors"

	"github.com/mark3labs/mcp-go/mcp"
)

// ConnectionReader lists and fetches connections.
type ConnectionReader interface {
	List(ctx context.Context) ([]domain.Connection, error)
	Get(ctx context.Context, id string) (*domain.Connection, error)
}

// Capturer runs the summarize, parse and store flow.
type Capturer interface {
	Capture(ctx context.Context, input string, overrides func(*domain.ConnectionFields)) (*capture.Result, error)
}

// NudgeLister lists ranked nudges.
type NudgeLister interface {
	List(ctx context.Context) ([]domain.Nudge, error)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports client errors verbatim and hides server error details.
func errorResult(action string, err error) *mcp.CallToolResult {
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation, appErrors.ErrorTypeNotFound, appErrors.ErrorTypeConflict, appErrors.ErrorTypeUpstream:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", action, appErrors.Message(err)))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: internal error", action))
	}
}

// intArg extracts an integer argument, returning defaultVal if the key is missing or
// not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func optionalString(req mcp.CallToolRequest, key string) *string {
	if v := req.GetString(key, ""); v != "" {
		return &v
	}
	return nil
}
