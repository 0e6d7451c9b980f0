// internal/app/store/audit/store.go
package audit

import (
	"context"

	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"

	ActionSchoolYearCreated   = "school_year_created"
	ActionSchoolYearActivated = "school_year_activated"

	ActionReasonCreated     = "rejection_reason_created"
	ActionReasonDeactivated = "rejection_reason_deactivated"
)

// Target types
const (
	TargetEntry           = "entry"
	TargetSchoolYear      = "school_year"
	TargetRejectionReason = "rejection_reason"
)

// CollectionName is the audit collection.
const CollectionName = "audit_logs"

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	UserID       string
	Action       string
	TargetType   string
	TargetID     string
	SchoolYearID *primitive.ObjectID
	Limit        int64
	Offset       int64
}

// Store manages audit log records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Log appends an entry, filling ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, e models.AuditLogEntry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = storeutil.Now()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Query returns entries matching filter, oldest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.AuditLogEntry, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.TargetType != "" {
		query["target_type"] = filter.TargetType
	}
	if filter.TargetID != "" {
		query["target_id"] = filter.TargetID
	}
	if filter.SchoolYearID != nil {
		query["school_year_id"] = *filter.SchoolYearID
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	return storeutil.RetryRead(ctx, func(ctx context.Context) ([]models.AuditLogEntry, error) {
		cur, err := s.c.Find(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := []models.AuditLogEntry{}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// ListByTarget returns the trail of one target, oldest first.
func (s *Store) ListByTarget(ctx context.Context, targetType, targetID string, limit int64) ([]models.AuditLogEntry, error) {
	return s.Query(ctx, QueryFilter{TargetType: targetType, TargetID: targetID, Limit: limit})
}

// Count returns how many entries match filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.TargetType != "" {
		query["target_type"] = filter.TargetType
	}
	if filter.TargetID != "" {
		query["target_id"] = filter.TargetID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	return s.c.CountDocuments(ctx, query)
}

// DeleteByTarget removes the trail of a target. Used when the target itself
// is deleted.
func (s *Store) DeleteByTarget(ctx context.Context, targetType, targetID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"target_type": targetType, "target_id": targetID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes every entry written by userID.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
