// Package search decides how a free-text entry search is matched and sorted.
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/memoria/internal/domain/models"
)

// Plan is a resolved search.
type Plan struct {
	Fields  []string // fields matched with Pattern, any of them
	Pattern string   // regex
	Options string   // regex options
	Sort    string   // primary sort field
}

// EmailPivot reports whether term looks like part of an email address: it
// contains '@' after at least one character and no whitespace. Such results
// are ordered by email rather than by name.
func EmailPivot(term string) bool {
	term = strings.TrimSpace(term)
	at := strings.IndexByte(term, '@')
	return at > 0 && !strings.ContainsAny(term, " \t")
}

// Build resolves term against the department's search fields. Every term is
// a case-insensitive literal substring match on all of fields; an
// email-shaped term only changes the sort to email.
func Build(term string, fields []string) Plan {
	term = strings.TrimSpace(term)
	p := Plan{
		Fields:  fields,
		Pattern: regexp.QuoteMeta(term),
		Options: "i",
		Sort:    "full_name_ci",
	}
	if EmailPivot(term) {
		p.Sort = models.FieldEmail
	}
	return p
}
