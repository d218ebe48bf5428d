// Package sheet turns raw spreadsheet bytes into a queryable in-memory table
// and serves IMEI lookups against it.
package sheet

// IMEIColumn is the identifier column every search keys on.
const IMEIColumn = "IMEI"

// Table is the snapshot of one spreadsheet load: ordered column names plus
// per-column value slices aligned by row index. A Table is never mutated
// after the loader hands it out; a refresh builds a new one and swaps the
// reference, so readers need no locking.
type Table struct {
	columns []string
	data    map[string][]string
	rows    int
}

func newTable(columns []string, data map[string][]string, rows int) *Table {
	return &Table{columns: columns, data: data, rows: rows}
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Columns returns the column names in sheet order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column returns the values of one column, aligned by row index.
func (t *Table) Column(name string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	col, ok := t.data[name]
	return col, ok
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[name]
	return ok
}

// Row copies row i into a standalone column→value record. The copy shares
// nothing with the table, so it stays valid across refreshes.
func (t *Table) Row(i int) map[string]string {
	if t == nil || i < 0 || i >= t.rows {
		return nil
	}
	rec := make(map[string]string, len(t.columns))
	for _, name := range t.columns {
		rec[name] = t.data[name][i]
	}
	return rec
}

// SampleIdentifiers returns up to n values from the identifier column, for
// troubleshooting display. Never used in lookup logic.
func (t *Table) SampleIdentifiers(n int) []string {
	if t == nil {
		return nil
	}
	col, ok := t.data[IMEIColumn]
	if !ok {
		return nil
	}
	if n > len(col) {
		n = len(col)
	}
	out := make([]string, n)
	copy(out, col[:n])
	return out
}
