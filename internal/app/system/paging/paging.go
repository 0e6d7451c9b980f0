// Package paging reads limit/offset query parameters for list endpoints.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is used when the request does not ask for a page size.
const DefaultLimit = 50

// MaxLimit caps the page size a client can ask for.
const MaxLimit = 200

// Page is a parsed limit/offset pair.
type Page struct {
	Limit  int64
	Offset int64
}

// Parse reads "limit" and "offset". Missing values get defaults; a limit
// above MaxLimit is clamped. Non-numeric or negative values are a
// validation error naming the parameter.
func Parse(r *http.Request) (Page, error) {
	p := Page{Limit: DefaultLimit}
	var invalid []string

	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			invalid = append(invalid, "limit")
		} else {
			p.Limit = min(n, MaxLimit)
		}
	}
	if s := query.Get(r, "offset"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			invalid = append(invalid, "offset")
		} else {
			p.Offset = n
		}
	}
	if len(invalid) > 0 {
		return Page{}, apperr.Validation(nil, invalid)
	}
	return p, nil
}

// Meta describes where a page of shown rows sits within total.
func (p Page) Meta(total int64, shown int) map[string]any {
	return map[string]any{
		"limit":    p.Limit,
		"offset":   p.Offset,
		"total":    total,
		"has_next": p.Offset+int64(shown) < total,
		"has_prev": p.Offset > 0,
	}
}
