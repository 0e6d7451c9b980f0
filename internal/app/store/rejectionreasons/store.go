// Package rejectionreasons stores the picklist administrators choose from
// when rejecting an entry.
package rejectionreasons

import (
	"context"

	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("rejection_reasons")}
}

// Create inserts an active reason.
func (s *Store) Create(ctx context.Context, rr models.RejectionReason) (models.RejectionReason, error) {
	if rr.ID.IsZero() {
		rr.ID = primitive.NewObjectID()
	}
	rr.IsActive = true
	rr.CreatedAt = storeutil.Now()
	if _, err := s.c.InsertOne(ctx, rr); err != nil {
		return models.RejectionReason{}, err
	}
	return rr, nil
}

// List returns reasons usable for syID: global ones plus those scoped to
// syID. A nil syID returns only global reasons. Inactive reasons are
// included when includeInactive is set.
func (s *Store) List(ctx context.Context, syID *primitive.ObjectID, includeInactive bool) ([]models.RejectionReason, error) {
	scope := bson.A{bson.M{"school_year_id": bson.M{"$exists": false}}}
	if syID != nil {
		scope = append(scope, bson.M{"school_year_id": *syID})
	}
	q := bson.M{"$or": scope}
	if !includeInactive {
		q["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "reason", Value: 1}})
	return s.find(ctx, q, opts)
}

// GetByIDs loads the reasons with the given ids, in no particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.RejectionReason, error) {
	if len(ids) == 0 {
		return []models.RejectionReason{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (s *Store) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.RejectionReason, error) {
	return storeutil.RetryRead(ctx, func(ctx context.Context) ([]models.RejectionReason, error) {
		cur, err := s.c.Find(ctx, q, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := []models.RejectionReason{}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Deactivate hides a reason from the picklist. Entries that already cite it
// keep the id. Returns mongo.ErrNoDocuments if the reason does not exist.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
