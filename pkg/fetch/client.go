package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultExportBase   = "https://docs.google.com/spreadsheets/d/%s/export?format=xlsx"
	defaultDownloadBase = "https://drive.google.com/uc?export=download&id=%s"

	// Responses below this size are interstitial/error pages, not
	// spreadsheet data. A real export is never this small.
	defaultMinBytes = 1024
)

// confirmTokenRe matches the confirmation code embedded in the interstitial
// page the download-by-id endpoint sometimes serves instead of the file.
var confirmTokenRe = regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`)

// Attempt records one retrieval try and its outcome.
type Attempt struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	Bytes       int64  `json:"bytes"`
	ContentType string `json:"content_type,omitempty"`
	Err         string `json:"error,omitempty"`
}

// TransportError means every retrieval strategy was exhausted. It carries the
// full attempt trail so the operator can see what each strategy returned.
type TransportError struct {
	Attempts []Attempt
}

func (e *TransportError) Error() string {
	if len(e.Attempts) == 0 {
		return "all retrieval strategies failed"
	}
	last := e.Attempts[len(e.Attempts)-1]
	if last.Err != "" {
		return fmt.Sprintf("all retrieval strategies failed, last: %s", last.Err)
	}
	return fmt.Sprintf("all retrieval strategies failed, last: HTTP %d (%d bytes, %s)",
		last.Status, last.Bytes, last.ContentType)
}

// Client downloads spreadsheet exports. Safe defaults come from NewClient;
// base URLs are fields so tests can point them at a local server.
type Client struct {
	http     *http.Client
	logger   *slog.Logger
	minBytes int64

	// Base URL patterns with one %s verb for the document id. Overridable
	// for tests or self-hosted mirrors.
	ExportBase   string
	DownloadBase string
}

// NewClient creates a Client with the given per-attempt HTTP timeout.
func NewClient(logger *slog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
		minBytes:     defaultMinBytes,
		ExportBase:   defaultExportBase,
		DownloadBase: defaultDownloadBase,
	}
}

// Fetch retrieves the spreadsheet payload for a document id, trying the
// export link first and the generic download link second (with one
// confirmation-token retry if the response is an interstitial page).
// Attempts are always returned, also on failure.
func (c *Client) Fetch(ctx context.Context, id string) ([]byte, []Attempt, error) {
	var attempts []Attempt

	urls := []string{
		withTimestamp(fmt.Sprintf(c.ExportBase, id)),
		fmt.Sprintf(c.DownloadBase, id),
	}

	for i, u := range urls {
		data, att := c.attempt(ctx, u)
		attempts = append(attempts, att)
		if att.Err == "" {
			c.logger.Info("spreadsheet fetched",
				"strategy", i+1, "bytes", att.Bytes, "content_type", att.ContentType)
			return data, attempts, nil
		}
		c.logger.Warn("fetch attempt failed",
			"strategy", i+1, "url", u, "status", att.Status, "error", att.Err)

		// Only the download-by-id endpoint answers with a confirmation
		// interstitial; the token in its body unlocks the real file.
		if i == 1 {
			if token := confirmTokenRe.FindSubmatch(data); token != nil {
				retryURL := u + "&confirm=" + string(token[1])
				data, att = c.attempt(ctx, retryURL)
				attempts = append(attempts, att)
				if att.Err == "" {
					c.logger.Info("spreadsheet fetched after confirmation",
						"bytes", att.Bytes)
					return data, attempts, nil
				}
				c.logger.Warn("confirmation retry failed", "status", att.Status, "error", att.Err)
			}
		}
	}

	return nil, attempts, &TransportError{Attempts: attempts}
}

// attempt performs one GET, staging the body in a temp file that is removed
// on every path. The returned body is non-nil even on a rejected response so
// the caller can look for the confirmation marker.
func (c *Client) attempt(ctx context.Context, url string) ([]byte, Attempt) {
	att := Attempt{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		att.Err = fmt.Sprintf("create request: %v", err)
		return nil, att
	}

	resp, err := c.http.Do(req)
	if err != nil {
		att.Err = err.Error()
		return nil, att
	}
	defer resp.Body.Close()

	att.Status = resp.StatusCode
	att.ContentType = resp.Header.Get("Content-Type")

	tmp, err := os.CreateTemp("", "returns-tracker-*.download")
	if err != nil {
		att.Err = fmt.Sprintf("create temp file: %v", err)
		return nil, att
	}
	defer os.Remove(tmp.Name())

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	att.Bytes = n
	if copyErr != nil {
		att.Err = fmt.Sprintf("read body: %v", copyErr)
		return nil, att
	}
	if closeErr != nil {
		att.Err = fmt.Sprintf("close temp file: %v", closeErr)
		return nil, att
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		att.Err = fmt.Sprintf("read temp file: %v", err)
		return nil, att
	}

	switch {
	case resp.StatusCode != http.StatusOK:
		att.Err = fmt.Sprintf("HTTP %d", resp.StatusCode)
	case n < c.minBytes:
		att.Err = fmt.Sprintf("response too small (%d bytes)", n)
	case strings.Contains(att.ContentType, "text/html"):
		att.Err = fmt.Sprintf("HTML response (%s), expected spreadsheet data", att.ContentType)
	}
	return data, att
}

// withTimestamp appends a cache-busting query parameter so upstream edge
// caches never serve a stale export.
func withTimestamp(u string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "_ts=" + strconv.FormatInt(time.Now().Unix(), 10)
}
