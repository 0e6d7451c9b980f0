// internal/domain/models/auditlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLogEntry records one mutation. Entries are append-only; the only
// deletes are the cascade when the target entry is deleted and the purge of a
// removed user's history.
type AuditLogEntry struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       string              `bson:"user_id" json:"user_id"`
	Action       string              `bson:"action" json:"action"`
	TargetType   string              `bson:"target_type" json:"target_type"`
	TargetID     string              `bson:"target_id" json:"target_id"`
	Details      map[string]any      `bson:"details,omitempty" json:"details,omitempty"`
	SchoolYearID *primitive.ObjectID `bson:"school_year_id,omitempty" json:"school_year_id,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}
