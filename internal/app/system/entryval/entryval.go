// Package entryval validates candidate yearbook entries against the schema
// registry before anything is written.
//
// Validation is not fail-fast: every missing required field and every field
// with the wrong type is collected into a single apperr validation error so
// the caller can show one consolidated message. Fields the schema does not
// know about are passed through untouched.
package entryval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/normalize"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DateLayout is the canonical stored form of Date fields.
const DateLayout = "2006-01-02"

// SchoolYearFinder resolves school years. GetByID returns
// mongo.ErrNoDocuments when the year does not exist.
type SchoolYearFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SchoolYear, error)
}

// Validator checks records against the registry.
type Validator struct {
	reg      *schema.Registry
	years    SchoolYearFinder
	validate *validator.Validate
}

// New constructs a Validator. A nil validate gets a fresh validator.New().
func New(reg *schema.Registry, years SchoolYearFinder, validate *validator.Validate) *Validator {
	if validate == nil {
		validate = validator.New()
	}
	return &Validator{reg: reg, years: years, validate: validate}
}

// Validate checks rec for dept and resolves its school year.
//
// On success rec has been normalized in place (trimmed strings, lower-cased
// email, integral numbers as int64, dates as YYYY-MM-DD, lists as []string)
// and the referenced SchoolYear is returned.
func (v *Validator) Validate(ctx context.Context, dept models.Department, rec models.Record) (*models.SchoolYear, error) {
	desc, err := v.reg.Lookup(dept)
	if err != nil {
		return nil, apperr.Clone(apperr.ErrUnknownVariant, fmt.Sprintf("unknown department %q", dept))
	}

	missing, invalid := v.CheckFields(desc, rec)
	if len(missing) > 0 || len(invalid) > 0 {
		return nil, apperr.Validation(missing, invalid)
	}

	syID, err := ParseObjectID(rec[models.FieldSchoolYearID])
	if err != nil {
		return nil, apperr.Validation(nil, []string{models.FieldSchoolYearID})
	}
	sy, err := v.years.GetByID(ctx, syID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Clone(apperr.ErrUnknownSchoolYear, fmt.Sprintf("school year %s not found", syID.Hex()))
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrStoreUnavailable, "failed to load school year")
	}
	return sy, nil
}

// CheckFields returns the names of missing required fields and of known
// fields whose values have the wrong type, both in schema order. Valid values
// are normalized in place.
func (v *Validator) CheckFields(desc schema.Descriptor, rec models.Record) (missing, invalid []string) {
	for _, f := range desc.Required {
		if IsBlank(rec[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	for _, f := range desc.Known() {
		val, present := rec[f.Name]
		if !present || IsBlank(val) {
			// blank optional fields are dropped rather than stored as ""
			if present && val != nil {
				delete(rec, f.Name)
			}
			continue
		}
		norm, ok := v.coerce(f, val)
		if !ok {
			invalid = append(invalid, f.Name)
			continue
		}
		rec[f.Name] = norm
	}
	return missing, invalid
}

// IsBlank reports whether v counts as "missing": nil, an empty or
// whitespace-only string, or an empty list.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case primitive.A:
		return len(val) == 0
	}
	return false
}

func (v *Validator) coerce(f schema.Field, val any) (any, bool) {
	switch f.Name {
	case models.FieldEmail:
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		s = normalize.Email(s)
		if v.validate.Var(s, "email") != nil {
			return nil, false
		}
		return s, true
	case models.FieldFullName:
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		return normalize.Name(s), true
	case models.FieldSchoolYearID:
		id, err := ParseObjectID(val)
		if err != nil {
			return nil, false
		}
		return id.Hex(), true
	}

	switch f.Kind {
	case schema.String:
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		return strings.TrimSpace(s), true
	case schema.Int:
		return toInt(val)
	case schema.Date:
		return toDate(val)
	case schema.StringList:
		return toStringList(val)
	case schema.URL:
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if v.validate.Var(s, "url") != nil {
			return nil, false
		}
		lower := strings.ToLower(s)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return nil, false
		}
		return s, true
	}
	return val, true
}

// ParseObjectID accepts an ObjectID or its hex form.
func ParseObjectID(v any) (primitive.ObjectID, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		if id.IsZero() {
			return primitive.NilObjectID, primitive.ErrInvalidHex
		}
		return id, nil
	case string:
		return primitive.ObjectIDFromHex(strings.TrimSpace(id))
	}
	return primitive.NilObjectID, primitive.ErrInvalidHex
}

func toInt(v any) (any, bool) {
	var n int64
	switch val := v.(type) {
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, false
		}
		n = int64(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, false
		}
		n = parsed
	default:
		return nil, false
	}
	if n < 0 {
		return nil, false
	}
	return n, true
}

func toDate(v any) (any, bool) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(DateLayout), true
	case primitive.DateTime:
		return val.Time().UTC().Format(DateLayout), true
	case string:
		s := strings.TrimSpace(val)
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t.Format(DateLayout), true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC().Format(DateLayout), true
		}
	}
	return nil, false
}

func toStringList(v any) (any, bool) {
	var items []any
	switch val := v.(type) {
	case []string:
		items = make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
	case []any:
		items = val
	case primitive.A:
		items = val
	case string:
		for _, part := range strings.Split(val, ",") {
			items = append(items, part)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}
