// Package htmlsanitize strips markup from member-submitted text.
//
// Yearbook fields are plain text: a motto or an achievement never carries
// HTML. Everything is run through bluemonday's strict policy and the
// resulting entities are decoded again so "Tom & Jerry" round-trips.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag (dropping script/style bodies) and trims.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	return PlainText(s) == strings.TrimSpace(s)
}

// Record sanitizes every string (and every string inside a list) in rec, in
// place. Non-string values are left alone.
func Record(rec map[string]any) {
	for k, v := range rec {
		switch val := v.(type) {
		case string:
			rec[k] = PlainText(val)
		case []string:
			for i := range val {
				val[i] = PlainText(val[i])
			}
		case []any:
			for i, item := range val {
				if s, ok := item.(string); ok {
					val[i] = PlainText(s)
				}
			}
		}
	}
}
