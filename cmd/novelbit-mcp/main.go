package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"novelbit/app"
	"novelbit/config"
	"novelbit/mcp"
)

const (
	serverName    = "novelbit"
	serverVersion = "0.1.0"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "novelbit-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// MCP uses stdout for JSON-RPC, so logs go to stderr.
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	server := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)
	mcp.RegisterTools(server, mcp.NewHandlerSet(a.Novelbit))

	logger.Info("MCP server ready", "name", serverName, "version", serverVersion, "dialect", cfg.Storage.Dialect)

	// Blocks until stdin closes or the process is signalled.
	return mcpserver.ServeStdio(server)
}
