package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/hazyhaar/returns-tracker/pkg/fetch"
	"github.com/hazyhaar/returns-tracker/pkg/imei"
)

// Export artifacts and dispute-tracking fields that are never useful for a
// returns lookup. Matched as case-sensitive substrings of the column name,
// before any other processing.
var excludedColumnMarkers = []string{"Unnamed: 0", "Unnamed: 34", "Dispute"}

// xlsxMagic is the ZIP local-file header every xlsx starts with.
var xlsxMagic = []byte("PK\x03\x04")

// Source names spreadsheet data to load: a share URL, or raw bytes supplied
// directly by the operator. A blob takes priority over the URL.
type Source struct {
	URL  string
	Blob []byte
}

// FormatSpec describes the CSV fallback layout for non-xlsx payloads.
type FormatSpec struct {
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
}

// LoadReport carries everything the diagnostics surface needs about one load.
type LoadReport struct {
	LoadedAt    time.Time       `json:"loaded_at"`
	RowCount    int             `json:"row_count"`
	Columns     []string        `json:"columns,omitempty"`
	SampleIMEIs []string        `json:"sample_imeis,omitempty"`
	MissingIMEI bool            `json:"missing_imei_column,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	Bytes       int             `json:"bytes,omitempty"`
	Attempts    []fetch.Attempt `json:"attempts,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// Loader orchestrates retrieval, parsing, and identifier normalization.
type Loader struct {
	client *fetch.Client
	cache  *fetch.Cache
	logger *slog.Logger
	format FormatSpec
}

// NewLoader creates a Loader. cache may be shared with the refresh trigger
// so an explicit refresh can invalidate it.
func NewLoader(client *fetch.Client, cache *fetch.Cache, logger *slog.Logger, format FormatSpec) *Loader {
	return &Loader{client: client, cache: cache, logger: logger, format: format}
}

// Load produces a fresh Table from the source, or a nil table plus a report
// explaining why. Failures never escape as errors: the caller branches on
// the report.
func (l *Loader) Load(ctx context.Context, src Source) (*Table, *LoadReport) {
	report := &LoadReport{LoadedAt: time.Now().UTC()}

	data := src.Blob
	if data == nil {
		id, err := fetch.ExtractID(src.URL)
		if err != nil {
			report.Err = fmt.Sprintf("%v: %s", err, src.URL)
			l.logger.Error("source URL not recognized", "url", src.URL)
			return nil, report
		}

		var attempts []fetch.Attempt
		payload, cached, err := l.cache.Fetch(id, func() ([]byte, error) {
			d, atts, ferr := l.client.Fetch(ctx, id)
			attempts = atts
			return d, ferr
		})
		report.Attempts = attempts
		report.Cached = cached
		if err != nil {
			report.Err = err.Error()
			l.logger.Error("spreadsheet retrieval failed", "url", src.URL, "error", err)
			return nil, report
		}
		data = payload
	}
	report.Bytes = len(data)

	table, err := l.parse(data)
	if err != nil {
		report.Err = fmt.Sprintf("parse spreadsheet: %v", err)
		l.logger.Error("spreadsheet parse failed", "bytes", len(data), "error", err)
		return nil, report
	}

	report.RowCount = table.Rows()
	report.Columns = table.Columns()
	report.SampleIMEIs = table.SampleIdentifiers(3)
	if !table.HasColumn(IMEIColumn) {
		// The table stays usable for diagnostics, but search is degraded.
		report.MissingIMEI = true
		l.logger.Warn("identifier column missing", "columns", report.Columns)
	}

	l.logger.Info("dataset loaded",
		"rows", report.RowCount,
		"columns", len(report.Columns),
		"cached", report.Cached,
		"bytes", report.Bytes,
	)
	return table, report
}

// parse sniffs the payload format, parses it into rows, drops excluded
// columns, and normalizes the identifier column.
func (l *Loader) parse(data []byte) (*Table, error) {
	var rows [][]string
	var err error
	if bytes.HasPrefix(data, xlsxMagic) {
		rows, err = parseXLSX(data)
	} else {
		rows, err = l.parseCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(rows), nil
}

// parseXLSX reads the first sheet of a workbook. Raw cell values keep large
// identifiers out of scientific display formatting.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// parseCSV handles the CSV export path, transcoding non-UTF-8 encodings
// declared in the format spec.
func (l *Loader) parseCSV(data []byte) ([][]string, error) {
	var reader io.Reader = bytes.NewReader(data)
	if enc := l.format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(reader, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	if delim := l.format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// buildTable converts header+rows into a Table: anonymous and duplicate
// headers renamed, excluded columns dropped, identifier column normalized.
// Zero data rows is a valid empty table.
func buildTable(rows [][]string) *Table {
	if len(rows) == 0 {
		return newTable(nil, map[string][]string{}, 0)
	}

	var columns []string
	var indices []int
	for i, name := range mangleHeader(rows[0]) {
		if excludedColumn(name) {
			continue
		}
		columns = append(columns, name)
		indices = append(indices, i)
	}

	nRows := len(rows) - 1
	data := make(map[string][]string, len(columns))
	for c, name := range columns {
		src := indices[c]
		col := make([]string, nRows)
		for r := 1; r < len(rows); r++ {
			if src < len(rows[r]) {
				col[r-1] = rows[r][src]
			}
		}
		if name == IMEIColumn {
			for i := range col {
				col[i] = imei.Normalize(col[i])
			}
		}
		data[name] = col
	}

	return newTable(columns, data, nRows)
}

// mangleHeader assigns "Unnamed: <idx>" to anonymous header cells and a
// ".<n>" suffix to duplicates, so every column has a unique, stable name.
// The exclusion list depends on these names: "Unnamed: 0" and "Unnamed: 34"
// only exist after renaming.
func mangleHeader(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			// Bump the suffix past any literal "X.1"-style header so the
			// renamed duplicate never collides with a real column.
			base := name
			for {
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
				n++
			}
			seen[base] = n + 1
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}

func excludedColumn(name string) bool {
	for _, marker := range excludedColumnMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
