// Package ownership stores the owner-to-entry projection used to enforce
// one live profile per owner per school year and to list a member's own
// entries across departments.
package ownership

import (
	"context"
	"errors"

	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrProfileExists is returned when the owner already has a live profile for
// the school year.
var ErrProfileExists = errors.New("owner already has a profile for this school year")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profile_ownership")}
}

// Create records that o.OwnedBy owns o.ProfileID.
func (s *Store) Create(ctx context.Context, o models.ProfileOwnership) (models.ProfileOwnership, error) {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := storeutil.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Archived = o.Status == models.StatusArchived

	if _, err := s.c.InsertOne(ctx, o); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProfileOwnership{}, ErrProfileExists
		}
		return models.ProfileOwnership{}, err
	}
	return o, nil
}

// FindLive returns the owner's non-archived row for syID, or
// mongo.ErrNoDocuments.
func (s *Store) FindLive(ctx context.Context, ownedBy string, syID primitive.ObjectID) (*models.ProfileOwnership, error) {
	return storeutil.RetryRead(ctx, func(ctx context.Context) (*models.ProfileOwnership, error) {
		var o models.ProfileOwnership
		err := s.c.FindOne(ctx, bson.M{"owned_by": ownedBy, "school_year_id": syID, "archived": false}).Decode(&o)
		if err != nil {
			return nil, err
		}
		return &o, nil
	})
}

// ListByOwner returns the owner's rows, newest first. A nil syID lists every
// year.
func (s *Store) ListByOwner(ctx context.Context, ownedBy string, syID *primitive.ObjectID) ([]models.ProfileOwnership, error) {
	q := bson.M{"owned_by": ownedBy}
	if syID != nil {
		q["school_year_id"] = *syID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return storeutil.RetryRead(ctx, func(ctx context.Context) ([]models.ProfileOwnership, error) {
		cur, err := s.c.Find(ctx, q, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := []models.ProfileOwnership{}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// SyncStatus mirrors an entry's status onto its ownership row. Archiving
// frees the owner's slot for the year. Un-archiving is never needed because
// archived is terminal.
func (s *Store) SyncStatus(ctx context.Context, profileID primitive.ObjectID, status models.Status) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"profile_id": profileID},
		bson.M{"$set": bson.M{
			"status":     status,
			"archived":   status == models.StatusArchived,
			"updated_at": storeutil.Now(),
		}},
	)
	return err
}

// DeleteByProfile removes the ownership row of a deleted entry.
func (s *Store) DeleteByProfile(ctx context.Context, profileID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"profile_id": profileID})
	return err
}
