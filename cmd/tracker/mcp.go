package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/returns-tracker/pkg/api"
	"github.com/mark3labs/mcp-go/server"
)

const version = "1.0.0"

// cmdMCP exposes the tracker tools over MCP stdio, for use from an agent or
// editor. Logs go to stderr so they stay off the protocol stream.
func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := loadConfig(*cfgPath, logger)
	tr, events, err := buildTracker(cfg, "", logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer events.Close()

	// Load before serving so the first search has a table. Not fatal: the
	// refresh_data tool can retry once the source is reachable.
	if report := tr.Load(context.Background()); report.Err != "" {
		logger.Warn("initial load failed", "error", report.Err)
	}

	srv := server.NewMCPServer("returns-tracker", version,
		server.WithToolCapabilities(false),
	)
	api.RegisterMCPTools(srv, tr)

	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
