// internal/domain/models/ownership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileOwnership projects an Entry onto the user who owns it.
//
// NOTE:
//   - For a given (owned_by, school_year_id) at most one row with
//     archived=false may exist. Archiving an Entry flips Archived so the
//     owner can file a new profile that year.
type ProfileOwnership struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID    primitive.ObjectID `bson:"profile_id" json:"profile_id"`
	OwnedBy      string             `bson:"owned_by" json:"owned_by"`
	SchoolYearID primitive.ObjectID `bson:"school_year_id" json:"school_year_id"`
	Department   Department         `bson:"department" json:"department"`
	Status       Status             `bson:"status" json:"status"`
	Archived     bool               `bson:"archived" json:"archived"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
