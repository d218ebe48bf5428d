package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/returns-tracker/pkg/api"
	"github.com/hazyhaar/returns-tracker/pkg/eventlog"
	"github.com/hazyhaar/returns-tracker/pkg/fetch"
	"github.com/hazyhaar/returns-tracker/pkg/sheet"
	"github.com/hazyhaar/returns-tracker/pkg/track"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr        string           `yaml:"addr"`
	SourceURL   string           `yaml:"source_url"`
	CacheTTL    string           `yaml:"cache_ttl"`
	HTTPTimeout string           `yaml:"http_timeout"`
	EventsDB    string           `yaml:"events_db"`
	Format      sheet.FormatSpec `yaml:"format"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "fetch":
		cmdFetch(os.Args[2:])
	case "search":
		cmdSearch(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tracker <command>

Commands:
  serve    Start the HTTP server
  mcp      Serve the MCP tools over stdio
  fetch    Download the spreadsheet once and print diagnostics
  search   Look up one IMEI and print the matching row
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	tr, events, err := buildTracker(cfg, "", logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	// Load the table before accepting traffic. A failed load is not fatal:
	// the operator can still POST /v1/upload or /v1/refresh once the source
	// is reachable again.
	report := tr.Load(context.Background())
	if report.Err != "" {
		logger.Warn("initial load failed", "error", report.Err)
	} else {
		logger.Info("table loaded", "rows", report.RowCount, "columns", len(report.Columns))
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewRouter(tr),
	}

	// SIGHUP: force a refresh from the source.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, refreshing table")
			r := tr.Refresh(context.Background())
			if r.Err != "" {
				logger.Error("refresh failed", "error", r.Err)
			} else {
				logger.Info("table refreshed", "rows", r.RowCount)
			}
		}
	}()

	go func() {
		logger.Info("tracker listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown(context.Background())
}

// buildTracker assembles the pipeline from config: event log, fetch client,
// payload cache, loader, tracker. The source URL recorded in the event DB
// wins over the config value so a URL changed at runtime survives restarts;
// a non-empty urlOverride (a command-line flag) wins over both.
func buildTracker(cfg config, urlOverride string, logger *slog.Logger) (*track.Tracker, *eventlog.Log, error) {
	var events *eventlog.Log
	if cfg.EventsDB != "" {
		var err error
		events, err = eventlog.Open(cfg.EventsDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		if err := events.SeedSource(cfg.SourceURL); err != nil {
			return nil, nil, fmt.Errorf("seed source: %w", err)
		}
	}

	sourceURL := cfg.SourceURL
	if u, err := events.SourceURL(); err == nil && u != "" {
		sourceURL = u
	}
	if urlOverride != "" {
		sourceURL = urlOverride
	}

	timeout := parseDuration(cfg.HTTPTimeout, 30*time.Second)
	ttl := parseDuration(cfg.CacheTTL, time.Hour)

	client := fetch.NewClient(logger, timeout)
	cache := fetch.NewCache(ttl)
	loader := sheet.NewLoader(client, cache, logger, cfg.Format)

	return track.New(loader, cache, events, logger, sourceURL), events, nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:        ":8423",
		SourceURL:   "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit",
		CacheTTL:    "1h",
		HTTPTimeout: "30s",
		EventsDB:    "events.db",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
