// Package imei canonicalizes device identifiers coming out of spreadsheet
// cells. Cells arrive as strings, floats, or nothing at all depending on how
// the sheet was exported; everything funnels through Normalize before any
// comparison happens.
package imei

import (
	"fmt"
	"strconv"
	"strings"
)

// MinLength is the minimum plausible length of a real device identifier.
// Shorter inputs are rejected before any search is attempted.
const MinLength = 15

// Normalize converts a raw cell value to its canonical string form.
// Nil becomes the empty string. Strings are never round-tripped through a
// numeric type, so leading zeros survive. A single trailing ".0" suffix
// (the artifact of an integer-valued float cell) is stripped; the substring
// is left alone anywhere else. Normalize never fails: any panic while
// stringifying an exotic value maps to the empty string.
func Normalize(raw any) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()

	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return Clean(v)
	case float64:
		return Clean(strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		return Clean(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case int:
		return Clean(strconv.Itoa(v))
	case int64:
		return Clean(strconv.FormatInt(v, 10))
	case uint64:
		return Clean(strconv.FormatUint(v, 10))
	default:
		return Clean(fmt.Sprint(v))
	}
}

// Clean trims whitespace and strips exactly one trailing ".0" suffix.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	return s
}
