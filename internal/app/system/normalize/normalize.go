// Package normalize holds the canonical forms the yearbook stores and queries by.
package normalize

import "strings"

// Email trims and lower-cases an email so uniqueness is case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status lower-cases and trims a status filter value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// ID trims a hex identifier filter. "all" (any case) means no filter and
// becomes "".
func ID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
