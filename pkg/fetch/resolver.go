// Package fetch retrieves a hosted spreadsheet export for a document id,
// falling back through download strategies and recording every attempt for
// diagnostics.
package fetch

import (
	"errors"
	"regexp"
)

// ErrUnrecognizedURL means the source URL matched none of the known share
// link shapes. Not retryable: the operator should supply another URL or
// upload the file directly.
var ErrUnrecognizedURL = errors.New("unrecognized spreadsheet URL")

// Recognized share link shapes, tried in order. First match wins.
var idShapes = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
}

// ExtractID pulls the document id out of a share URL.
func ExtractID(rawURL string) (string, error) {
	for _, shape := range idShapes {
		if m := shape.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", ErrUnrecognizedURL
}
