// internal/domain/models/schoolyear.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchoolYear is the period every Entry is filed under.
// At most one SchoolYear is active at a time (enforced by a partial unique index).
type SchoolYear struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	YearLabel string             `bson:"year_label" json:"year_label"` // e.g. "2024-2025"
	StartDate time.Time          `bson:"start_date" json:"start_date"`
	EndDate   time.Time          `bson:"end_date" json:"end_date"`
	IsActive  bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
