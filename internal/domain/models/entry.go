// internal/domain/models/entry.go
package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a candidate entry payload keyed by field name, as submitted by a
// member or an import. Values are JSON-ish (string, float64, bool, []any, nil).
type Record map[string]any

// Common field names shared by every department schema.
const (
	FieldFullName     = "full_name"
	FieldEmail        = "email"
	FieldSchoolYearID = "school_year_id"
)

// systemFields are managed by the lifecycle and can never be set from a Record.
var systemFields = map[string]struct{}{
	"_id":               {},
	"id":                {},
	"department":        {},
	"school_year":       {},
	"status":            {},
	"archived":          {},
	"full_name_ci":      {},
	"owned_by":          {},
	"rejection_reasons": {},
	"custom_reason":     {},
	"reviewed_by":       {},
	"reviewed_at":       {},
	"created_by":        {},
	"created_at":        {},
	"updated_at":        {},
}

// IsSystemField reports whether name is lifecycle-managed.
func IsSystemField(name string) bool {
	_, ok := systemFields[name]
	return ok
}

// Entry is one member's yearbook profile.
//
// Department-specific attributes (year_level, strand, position, ...) and any
// forward-compatible extra fields live inline in the same document via Fields,
// so each department collection holds flat documents of its own shape.
type Entry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Department   Department         `bson:"department"`
	SchoolYearID primitive.ObjectID `bson:"school_year_id"`
	SchoolYear   string             `bson:"school_year"` // denormalized year label
	Status       Status             `bson:"status"`
	Archived     bool               `bson:"archived"` // mirrors Status; archived entries release their email

	FullName   string `bson:"full_name"`
	FullNameCI string `bson:"full_name_ci"` // folded for case-insensitive sorting
	Email      string `bson:"email"`
	OwnedBy    string `bson:"owned_by,omitempty"`

	RejectionReasons []string   `bson:"rejection_reasons,omitempty"`
	CustomReason     string     `bson:"custom_reason,omitempty"`
	ReviewedBy       string     `bson:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `bson:"reviewed_at,omitempty"`

	CreatedBy string    `bson:"created_by,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`

	Fields map[string]any `bson:",inline"`
}

// Apply copies the editable content of rec onto e. Common fields are pulled
// into their typed slots; system fields are ignored; everything else replaces
// e.Fields. school_year_id is not applied here because it must be resolved
// against the school year store first.
func (e *Entry) Apply(rec Record) {
	fields := make(map[string]any, len(rec))
	for k, v := range rec {
		switch {
		case k == FieldFullName:
			e.FullName, _ = v.(string)
		case k == FieldEmail:
			e.Email, _ = v.(string)
		case k == FieldSchoolYearID, IsSystemField(k):
			// managed elsewhere
		case v == nil:
			// absent
		default:
			fields[k] = v
		}
	}
	e.Fields = fields
}

// ToRecord returns the editable content of e as a Record, the inverse of Apply.
func (e Entry) ToRecord() Record {
	rec := make(Record, len(e.Fields)+3)
	for k, v := range e.Fields {
		rec[k] = v
	}
	rec[FieldFullName] = e.FullName
	rec[FieldEmail] = e.Email
	if !e.SchoolYearID.IsZero() {
		rec[FieldSchoolYearID] = e.SchoolYearID.Hex()
	}
	return rec
}

// MarshalJSON renders the entry as one flat object, matching the stored shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+16)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["id"] = e.ID.Hex()
	out["department"] = e.Department
	out["school_year_id"] = e.SchoolYearID.Hex()
	out["school_year"] = e.SchoolYear
	out["status"] = e.Status
	out["full_name"] = e.FullName
	out["email"] = e.Email
	if e.OwnedBy != "" {
		out["owned_by"] = e.OwnedBy
	}
	if len(e.RejectionReasons) > 0 {
		out["rejection_reasons"] = e.RejectionReasons
	}
	if e.CustomReason != "" {
		out["custom_reason"] = e.CustomReason
	}
	if e.ReviewedBy != "" {
		out["reviewed_by"] = e.ReviewedBy
	}
	if e.ReviewedAt != nil {
		out["reviewed_at"] = e.ReviewedAt
	}
	if e.CreatedBy != "" {
		out["created_by"] = e.CreatedBy
	}
	out["created_at"] = e.CreatedAt
	out["updated_at"] = e.UpdatedAt
	return json.Marshal(out)
}
