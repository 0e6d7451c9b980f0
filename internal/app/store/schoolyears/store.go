// Package schoolyears stores the academic years entries are filed under.
package schoolyears

import (
	"context"
	"errors"

	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/app/system/txn"
	"github.com/dalemusser/memoria/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrDuplicateLabel is returned when a year with the same label exists.
var ErrDuplicateLabel = errors.New("a school year with this label already exists")

type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, c: db.Collection("school_years"), log: logger}
}

// Create inserts an inactive school year. Use Activate to make it current.
func (s *Store) Create(ctx context.Context, sy models.SchoolYear) (models.SchoolYear, error) {
	if sy.ID.IsZero() {
		sy.ID = primitive.NewObjectID()
	}
	now := storeutil.Now()
	sy.CreatedAt = now
	sy.UpdatedAt = now
	sy.IsActive = false

	if _, err := s.c.InsertOne(ctx, sy); err != nil {
		if wafflemongo.IsDup(err) {
			return models.SchoolYear{}, ErrDuplicateLabel
		}
		return models.SchoolYear{}, err
	}
	return sy, nil
}

// GetByID loads a school year. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SchoolYear, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetActive returns the active school year, or mongo.ErrNoDocuments.
func (s *Store) GetActive(ctx context.Context) (*models.SchoolYear, error) {
	return s.findOne(ctx, bson.M{"is_active": true})
}

func (s *Store) findOne(ctx context.Context, q bson.M) (*models.SchoolYear, error) {
	return storeutil.RetryRead(ctx, func(ctx context.Context) (*models.SchoolYear, error) {
		var sy models.SchoolYear
		if err := s.c.FindOne(ctx, q).Decode(&sy); err != nil {
			return nil, err
		}
		return &sy, nil
	})
}

// List returns every school year, most recent first.
func (s *Store) List(ctx context.Context) ([]models.SchoolYear, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}})
	return storeutil.RetryRead(ctx, func(ctx context.Context) ([]models.SchoolYear, error) {
		cur, err := s.c.Find(ctx, bson.M{}, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := []models.SchoolYear{}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Activate makes id the only active school year. Both writes run in one
// transaction where the deployment supports it; the partial unique index on
// is_active still rejects a second active year when it does not.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID) (*models.SchoolYear, error) {
	err := txn.Run(ctx, s.db.Client(), s.log, func(ctx context.Context) error {
		now := storeutil.Now()
		if _, err := s.c.UpdateMany(ctx,
			bson.M{"is_active": true, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"is_active": false, "updated_at": now}},
		); err != nil {
			return err
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"is_active": true, "updated_at": now}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}
