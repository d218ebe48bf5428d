package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c := NewClient(slog.New(slog.NewTextHandler(testWriter{t}, nil)), 5*time.Second)
	c.ExportBase = ts.URL + "/export/%s"
	c.DownloadBase = ts.URL + "/download?id=%s"
	return c
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

// payload is comfortably above the minimum-size floor.
var payload = []byte(strings.Repeat("spreadsheet-bytes;", 100))

func TestFetch_ExportStrategy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/export/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(payload)
	}))
	defer ts.Close()

	data, attempts, err := testClient(t, ts).Fetch(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("payload mismatch")
	}
	if len(attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(attempts))
	}
	if attempts[0].Err != "" {
		t.Errorf("attempt error = %q, want none", attempts[0].Err)
	}
}

func TestFetch_FallbackOrdering(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/export/") {
			// Implausible: tiny HTML error page.
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html>error</html>"))
			return
		}
		w.Write(payload)
	}))
	defer ts.Close()

	data, attempts, err := testClient(t, ts).Fetch(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("payload mismatch")
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Err == "" {
		t.Error("first attempt should be rejected")
	}
	if attempts[1].Err != "" {
		t.Errorf("second attempt error = %q, want none", attempts[1].Err)
	}
}

func TestFetch_TooSmallRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer ts.Close()

	_, attempts, err := testClient(t, ts).Fetch(context.Background(), "doc1")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	for _, att := range attempts {
		if !strings.Contains(att.Err, "too small") {
			t.Errorf("attempt err = %q, want size rejection", att.Err)
		}
	}
}

func TestFetch_ConfirmRetry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/export/"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Query().Get("confirm") == "tok42":
			w.Write(payload)
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<a href="/download?id=doc1&confirm=tok42">Download anyway</a>`))
		}
	}))
	defer ts.Close()

	data, attempts, err := testClient(t, ts).Fetch(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("payload mismatch")
	}
	// Export, interstitial, confirmed retry.
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if !strings.Contains(attempts[2].URL, "confirm=tok42") {
		t.Errorf("retry URL = %q, want confirm token attached", attempts[2].URL)
	}
}

func TestFetch_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, attempts, err := testClient(t, ts).Fetch(context.Background(), "doc1")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
	if !strings.Contains(terr.Error(), "HTTP 403") {
		t.Errorf("error = %q, want last status included", terr.Error())
	}
}
