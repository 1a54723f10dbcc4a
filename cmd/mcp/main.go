// Command mcp serves connections and nudges to MCP clients over stdio.
// Stdout carries the protocol; all logging goes to stderr.
package main

import (
	"context"
	"fmt"
	"os"

	"imet-backend/internal/di"
	"imet-backend/internal/mcptools"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "imet-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	container, cleanup, err := di.InitializeContainer(context.Background())
	if err != nil {
		return fmt.Errorf("initializing container: %w", err)
	}
	defer cleanup()

	s := mcptools.NewServer(container.Connections, container.Capture, container.Nudges)

	container.Logger.Info("Serving MCP over stdio", zap.String("version", mcptools.Version))
	return server.ServeStdio(s)
}
