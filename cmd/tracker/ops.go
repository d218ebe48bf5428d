package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/returns-tracker/pkg/imei"
	"github.com/hazyhaar/returns-tracker/pkg/sheet"
)

// cmdFetch downloads the spreadsheet once and prints what came back. Useful
// for checking a sharing URL before pointing the server at it.
func cmdFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	url := fs.String("url", "", "spreadsheet URL (overrides config and the stored source)")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := loadConfig(*cfgPath, logger)

	tr, events, err := buildTracker(cfg, *url, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer events.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report := tr.Load(ctx)
	if report.Err != "" {
		fmt.Fprintf(os.Stderr, "Load failed: %s\n", report.Err)
		for _, a := range report.Attempts {
			fmt.Fprintf(os.Stderr, "  %s -> HTTP %d (%d bytes)\n", a.URL, a.Status, a.Bytes)
		}
		os.Exit(1)
	}

	fmt.Printf("Loaded %d rows, %d columns\n", report.RowCount, len(report.Columns))
	for _, c := range report.Columns {
		fmt.Printf("  %s\n", c)
	}
	if report.MissingIMEI {
		fmt.Println("Warning: no IMEI column found, lookups will fail")
	} else if len(report.SampleIMEIs) > 0 {
		fmt.Printf("Sample IMEIs: %v\n", report.SampleIMEIs)
	}
}

// cmdSearch runs one lookup against a freshly loaded table.
func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tracker search [--config <path>] <imei>")
		os.Exit(1)
	}
	query := fs.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := loadConfig(*cfgPath, logger)
	tr, events, err := buildTracker(cfg, "", logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer events.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if report := tr.Load(ctx); report.Err != "" {
		fmt.Fprintf(os.Stderr, "Load failed: %s\n", report.Err)
		os.Exit(1)
	}

	out := tr.Search(query)
	switch out.Kind {
	case sheet.Found:
		if out.Substring {
			fmt.Printf("Partial match for %s:\n", out.Query)
		} else {
			fmt.Printf("Match for %s:\n", out.Query)
		}
		for col, val := range out.Record {
			fmt.Printf("  %-20s %s\n", col, val)
		}
	case sheet.TooShort:
		fmt.Printf("Query %q is shorter than %d digits\n", out.Query, imei.MinLength)
		os.Exit(1)
	case sheet.NoColumn:
		fmt.Println("The loaded table has no IMEI column")
		os.Exit(1)
	default:
		fmt.Printf("No row matches %s\n", out.Query)
		os.Exit(1)
	}
}
