package sheet

import (
	"strings"

	"github.com/hazyhaar/returns-tracker/pkg/imei"
)

// OutcomeKind tags the result of one lookup.
type OutcomeKind string

const (
	// Found carries the first matching record.
	Found OutcomeKind = "found"
	// NotFound means a well-formed query matched no row.
	NotFound OutcomeKind = "not_found"
	// TooShort means the normalized query is below the minimum identifier
	// length; no scan was attempted.
	TooShort OutcomeKind = "too_short"
	// NoColumn means the table has no identifier column to search.
	NoColumn OutcomeKind = "no_identifier_column"
)

// Outcome is the tagged result of looking one query up against a table.
// TooShort and NotFound are expected outcomes, not errors.
type Outcome struct {
	Kind      OutcomeKind       `json:"kind"`
	Query     string            `json:"query"`
	Record    map[string]string `json:"record,omitempty"`
	Substring bool              `json:"substring_match,omitempty"`
	LuhnValid bool              `json:"luhn_valid,omitempty"`
}

// Locate searches the identifier column for the query: exact match first,
// then substring fallback. Rows are scanned top to bottom and the first
// match wins, so results are stable across identical loads.
//
// The substring fallback can surface the wrong record when one identifier
// contains another; it is kept because operators paste truncated or
// concatenated identifiers and still expect a hit.
func Locate(query string, t *Table) Outcome {
	q := imei.Normalize(query)
	out := Outcome{Query: q}

	col, ok := t.Column(IMEIColumn)
	if !ok {
		out.Kind = NoColumn
		return out
	}

	if len(q) < imei.MinLength {
		out.Kind = TooShort
		return out
	}
	out.LuhnValid = imei.ValidLuhn(q)

	for i, v := range col {
		if v == q {
			out.Kind = Found
			out.Record = t.Row(i)
			return out
		}
	}

	for i, v := range col {
		if v == "" {
			continue
		}
		if strings.Contains(v, q) {
			out.Kind = Found
			out.Substring = true
			out.Record = t.Row(i)
			return out
		}
	}

	out.Kind = NotFound
	return out
}
