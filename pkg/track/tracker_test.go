package track

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/returns-tracker/pkg/fetch"
	"github.com/hazyhaar/returns-tracker/pkg/sheet"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, nil))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

var testCSV = "IMEI,Store,Status\n354653661425023,Downtown,DELIVERED\n" +
	strings.Repeat("111111111111111,Mall,RETURNED\n", 100)

// newTestTracker serves testCSV from a local server and counts fetches.
func newTestTracker(t *testing.T, ttl time.Duration) (*Tracker, *int) {
	t.Helper()
	fetches := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(testCSV))
	}))
	t.Cleanup(ts.Close)

	logger := testLogger(t)
	client := fetch.NewClient(logger, 5*time.Second)
	client.ExportBase = ts.URL + "/export/%s"
	client.DownloadBase = ts.URL + "/download?id=%s"
	cache := fetch.NewCache(ttl)
	loader := sheet.NewLoader(client, cache, logger, sheet.FormatSpec{})

	tr := New(loader, cache, nil, logger, "https://docs.google.com/spreadsheets/d/doc1/edit")
	return tr, &fetches
}

func TestTracker_LoadAndSearch(t *testing.T) {
	tr, _ := newTestTracker(t, time.Minute)

	report := tr.Load(context.Background())
	if report.Err != "" {
		t.Fatalf("Load: %q", report.Err)
	}
	if report.RowCount != 101 {
		t.Errorf("rows = %d, want 101", report.RowCount)
	}

	out := tr.Search("354653661425023")
	if out.Kind != sheet.Found {
		t.Fatalf("kind = %q, want found", out.Kind)
	}
	if out.Record["Store"] != "Downtown" {
		t.Errorf("record = %v", out.Record)
	}
}

func TestTracker_SearchBeforeLoad(t *testing.T) {
	tr, _ := newTestTracker(t, time.Minute)

	out := tr.Search("354653661425023")
	if out.Kind != sheet.NoColumn {
		t.Errorf("kind = %q, want no_identifier_column before any load", out.Kind)
	}
}

func TestTracker_RefreshForcesFetch(t *testing.T) {
	tr, fetches := newTestTracker(t, time.Minute)

	tr.Load(context.Background())
	tr.Load(context.Background())
	if *fetches != 1 {
		t.Fatalf("fetches = %d, want 1 inside TTL window", *fetches)
	}

	tr.Refresh(context.Background())
	if *fetches != 2 {
		t.Errorf("fetches = %d, want 2 after refresh", *fetches)
	}
}

func TestTracker_LoadBlobBypassesNetwork(t *testing.T) {
	tr, fetches := newTestTracker(t, time.Minute)

	report := tr.LoadBlob(context.Background(), []byte("IMEI,Store\n222222222222222,Kiosk\n"))
	if report.Err != "" {
		t.Fatalf("LoadBlob: %q", report.Err)
	}
	if *fetches != 0 {
		t.Errorf("fetches = %d, want 0 for a direct blob", *fetches)
	}

	out := tr.Search("222222222222222")
	if out.Kind != sheet.Found || out.Record["Store"] != "Kiosk" {
		t.Errorf("outcome = %+v, want the uploaded row", out)
	}
}

func TestTracker_Diagnostics(t *testing.T) {
	tr, _ := newTestTracker(t, time.Minute)

	d := tr.Diagnostics()
	if d.Loaded {
		t.Error("Loaded = true before any load")
	}

	tr.Load(context.Background())
	d = tr.Diagnostics()
	if !d.Loaded {
		t.Fatal("Loaded = false after load")
	}
	if d.RowCount != 101 {
		t.Errorf("RowCount = %d, want 101", d.RowCount)
	}
	if len(d.SampleIMEIs) != 5 {
		t.Errorf("samples = %d, want 5", len(d.SampleIMEIs))
	}
	if d.LastLoad == nil || d.LastLoad.Cached {
		t.Errorf("LastLoad = %+v", d.LastLoad)
	}
}

func TestTracker_FailedLoadReplacesSnapshot(t *testing.T) {
	tr, _ := newTestTracker(t, 0)

	tr.Load(context.Background())
	if out := tr.Search("354653661425023"); out.Kind != sheet.Found {
		t.Fatalf("kind = %q before failure", out.Kind)
	}

	// Corrupt upload: the snapshot is replaced wholesale, leaving nothing
	// to search rather than stale data.
	report := tr.LoadBlob(context.Background(), []byte("PK\x03\x04garbage"))
	if report.Err == "" {
		t.Fatal("corrupt blob did not report an error")
	}
	if out := tr.Search("354653661425023"); out.Kind != sheet.NoColumn {
		t.Errorf("kind = %q, want no_identifier_column after failed load", out.Kind)
	}
}
