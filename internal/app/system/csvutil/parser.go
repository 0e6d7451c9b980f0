// Package csvutil turns an uploaded CSV file into entry records. The first row
// names the fields; every later row becomes one record. Parsing never touches
// the database, so a file can be rejected before any entry is written.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/memoria/internal/app/system/normalize"
	"github.com/dalemusser/memoria/internal/domain/models"
)

// ErrTooManyRows is returned when the file has more data rows than allowed.
var ErrTooManyRows = errors.New("too many rows in CSV")

// ErrNoHeader is returned when the first row does not name any columns.
var ErrNoHeader = errors.New("CSV header row is missing or empty")

// ParseOptions controls parsing.
type ParseOptions struct {
	MaxRows int // 0 means no limit
}

// DefaultParseOptions returns the options used by the import endpoint.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}

// RowError describes a rejected row. Line is 1-based and counts the header;
// 0 means the problem is not tied to one row.
type RowError struct {
	Line   int
	Reason string
	Raw    []string
}

// Result holds the parsed records and, in the same order, the file line each
// one came from.
type Result struct {
	Records []models.Record
	Lines   []int
	Errors  []RowError
}

// HasErrors reports whether any row was rejected.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseEntries reads r. Header names are trimmed, lowercased and have inner
// spaces turned into underscores, so "Full Name" maps to full_name. Blank
// cells are left out of the record. A school_year_id column is allowed; the
// service validates it like any other field.
func ParseEntries(r io.Reader, opts ParseOptions) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result Result

	header, err := reader.Read()
	if err == io.EOF {
		return result, ErrNoHeader
	}
	if err != nil {
		return result, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols, err := columns(header)
	if err != nil {
		return result, err
	}

	seenEmail := make(map[string]int)
	line := 1
	for {
		rec, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		if blank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(result.Records)+len(result.Errors) >= opts.MaxRows {
			return result, ErrTooManyRows
		}
		if len(rec) > len(cols) {
			result.Errors = append(result.Errors, RowError{
				Line:   line,
				Reason: fmt.Sprintf("row has %d cells but the header names %d columns", len(rec), len(cols)),
				Raw:    rec,
			})
			continue
		}

		out := make(models.Record, len(rec))
		for i, cell := range rec {
			if v := strings.TrimSpace(cell); v != "" {
				out[cols[i]] = v
			}
		}

		if email, ok := out[models.FieldEmail].(string); ok {
			key := normalize.Email(email)
			if first, dup := seenEmail[key]; dup {
				result.Errors = append(result.Errors, RowError{
					Line:   line,
					Reason: fmt.Sprintf("duplicate email (first appears on line %d)", first),
					Raw:    rec,
				})
				continue
			}
			seenEmail[key] = line
		}

		result.Records = append(result.Records, out)
		result.Lines = append(result.Lines, line)
	}

	return result, nil
}

func columns(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.Join(strings.Fields(strings.ToLower(h)), "_")
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrNoHeader, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = true
		cols[i] = name
	}
	if len(cols) == 0 {
		return nil, ErrNoHeader
	}
	return cols, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
