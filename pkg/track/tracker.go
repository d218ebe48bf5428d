// Package track holds the current dataset snapshot and serves searches
// against it. One Tracker owns one replaceable table: a load builds a fresh
// table and swaps the reference atomically, so readers never see a partially
// built snapshot.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/returns-tracker/pkg/eventlog"
	"github.com/hazyhaar/returns-tracker/pkg/fetch"
	"github.com/hazyhaar/returns-tracker/pkg/sheet"
)

// Tracker is the pipeline facade: refresh replaces the snapshot, search
// reads it. Search and Diagnostics are safe while a load is in flight.
type Tracker struct {
	loader    *sheet.Loader
	cache     *fetch.Cache
	events    *eventlog.Log
	logger    *slog.Logger
	sourceURL string

	mu     sync.RWMutex
	table  *sheet.Table
	report *sheet.LoadReport
}

// New creates a Tracker for one source URL. events may be nil to run
// without persistence.
func New(loader *sheet.Loader, cache *fetch.Cache, events *eventlog.Log, logger *slog.Logger, sourceURL string) *Tracker {
	return &Tracker{
		loader:    loader,
		cache:     cache,
		events:    events,
		logger:    logger,
		sourceURL: sourceURL,
	}
}

// Load builds a new snapshot from the source URL, reusing a cached payload
// inside the TTL window, and replaces the current table wholesale. A failed
// load leaves an empty snapshot plus the failure report; nothing to search
// is a state, not a crash.
func (t *Tracker) Load(ctx context.Context) *sheet.LoadReport {
	table, report := t.loader.Load(ctx, sheet.Source{URL: t.sourceURL})
	return t.install(eventlog.KindLoad, table, report)
}

// Refresh invalidates the payload cache and loads from scratch. This is the
// operator's explicit refresh action.
func (t *Tracker) Refresh(ctx context.Context) *sheet.LoadReport {
	t.cache.Invalidate()
	table, report := t.loader.Load(ctx, sheet.Source{URL: t.sourceURL})
	return t.install(eventlog.KindRefresh, table, report)
}

// LoadBlob installs a snapshot from operator-supplied spreadsheet bytes,
// bypassing every network strategy.
func (t *Tracker) LoadBlob(ctx context.Context, data []byte) *sheet.LoadReport {
	table, report := t.loader.Load(ctx, sheet.Source{Blob: data})
	return t.install(eventlog.KindUpload, table, report)
}

func (t *Tracker) install(kind string, table *sheet.Table, report *sheet.LoadReport) *sheet.LoadReport {
	t.mu.Lock()
	t.table = table
	t.report = report
	t.mu.Unlock()

	detail := fmt.Sprintf("rows=%d columns=%d cached=%t", report.RowCount, len(report.Columns), report.Cached)
	if err := t.events.Record(kind, detail, report.Err); err != nil {
		t.logger.Warn("event log write failed", "kind", kind, "error", err)
	}
	return report
}

// Search looks one query up against the current snapshot.
func (t *Tracker) Search(query string) sheet.Outcome {
	t.mu.RLock()
	table := t.table
	t.mu.RUnlock()

	out := sheet.Locate(query, table)

	detail := fmt.Sprintf("query=%s outcome=%s", out.Query, out.Kind)
	if err := t.events.Record(eventlog.KindSearch, detail, ""); err != nil {
		t.logger.Warn("event log write failed", "kind", eventlog.KindSearch, "error", err)
	}
	return out
}

// Diagnostics is the troubleshooting view of the current snapshot.
type Diagnostics struct {
	Loaded      bool              `json:"loaded"`
	RowCount    int               `json:"row_count"`
	Columns     []string          `json:"columns,omitempty"`
	SampleIMEIs []string          `json:"sample_imeis,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	LastLoad    *sheet.LoadReport `json:"last_load,omitempty"`
}

// Diagnostics reports the state of the current snapshot. Not used in lookup
// logic.
func (t *Tracker) Diagnostics() Diagnostics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Diagnostics{
		Loaded:      t.table != nil,
		RowCount:    t.table.Rows(),
		Columns:     t.table.Columns(),
		SampleIMEIs: t.table.SampleIdentifiers(5),
		SourceURL:   t.sourceURL,
		LastLoad:    t.report,
	}
}
