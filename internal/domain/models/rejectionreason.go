// internal/domain/models/rejectionreason.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RejectionReason is a picklist item administrators attach to a rejected Entry.
// A nil SchoolYearID makes the reason global (applies to every year).
type RejectionReason struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Reason       string              `bson:"reason" json:"reason"`
	Category     string              `bson:"category" json:"category"`
	IsActive     bool                `bson:"is_active" json:"is_active"`
	SchoolYearID *primitive.ObjectID `bson:"school_year_id,omitempty" json:"school_year_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// AppliesTo reports whether the reason may be used for entries in syID.
func (r RejectionReason) AppliesTo(syID primitive.ObjectID) bool {
	return r.SchoolYearID == nil || *r.SchoolYearID == syID
}
