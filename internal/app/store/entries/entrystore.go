// Package entrystore persists yearbook entries. Each department has its own
// collection, resolved through the schema registry; every method takes the
// department first and fails with schema.ErrUnknownDepartment for one that is
// not registered.
package entrystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/app/system/search"
	"github.com/dalemusser/memoria/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when the (school_year_id, email) unique
	// index rejects a write.
	ErrDuplicateEmail = errors.New("an entry with this email already exists for this school year")
	// ErrStale is returned by Replace when the entry changed since it was read.
	ErrStale = errors.New("entry was modified concurrently")
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 500

type Store struct {
	db  *mongo.Database
	reg *schema.Registry
}

func New(db *mongo.Database, reg *schema.Registry) *Store {
	return &Store{db: db, reg: reg}
}

func (s *Store) coll(dept models.Department) (*mongo.Collection, error) {
	name, err := s.reg.StoreName(dept)
	if err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}

// Create inserts e. ID, timestamps and full_name_ci are filled in here.
func (s *Store) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	c, err := s.coll(e.Department)
	if err != nil {
		return models.Entry{}, err
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	now := storeutil.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.FullNameCI = text.Fold(e.FullName)
	e.Archived = e.Status == models.StatusArchived
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}

	if _, err := c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Entry{}, ErrDuplicateEmail
		}
		return models.Entry{}, err
	}
	return e, nil
}

// GetByID loads one entry. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, dept models.Department, id primitive.ObjectID) (*models.Entry, error) {
	c, err := s.coll(dept)
	if err != nil {
		return nil, err
	}
	return storeutil.RetryRead(ctx, func(ctx context.Context) (*models.Entry, error) {
		var e models.Entry
		if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}

// FindByEmail returns the live entry in dept/syID holding email, ignoring
// excludeID (pass NilObjectID to exclude nothing). Archived entries do not
// hold their email. Returns mongo.ErrNoDocuments when the email is free.
func (s *Store) FindByEmail(ctx context.Context, dept models.Department, syID primitive.ObjectID, email string, excludeID primitive.ObjectID) (*models.Entry, error) {
	c, err := s.coll(dept)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"school_year_id": syID, "email": email, "archived": bson.M{"$ne": true}}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return storeutil.RetryRead(ctx, func(ctx context.Context) (*models.Entry, error) {
		var e models.Entry
		if err := c.FindOne(ctx, filter).Decode(&e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}

// Filter narrows List and Count.
type Filter struct {
	SchoolYearID *primitive.ObjectID
	Status       models.Status
	OwnedBy      string
	IDs          []primitive.ObjectID
	Limit        int64
	Offset       int64
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.SchoolYearID != nil {
		q["school_year_id"] = *f.SchoolYearID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.OwnedBy != "" {
		q["owned_by"] = f.OwnedBy
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	return q
}

// List returns entries matching f ordered by name.
func (s *Store) List(ctx context.Context, dept models.Department, f Filter) ([]models.Entry, error) {
	c, err := s.coll(dept)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(f.Offset)
	return s.find(ctx, c, f.query(), opts)
}

// Count returns how many entries match f.
func (s *Store) Count(ctx context.Context, dept models.Department, f Filter) (int64, error) {
	c, err := s.coll(dept)
	if err != nil {
		return 0, err
	}
	return storeutil.RetryRead(ctx, func(ctx context.Context) (int64, error) {
		return c.CountDocuments(ctx, f.query())
	})
}

// Search matches term case-insensitively against the department's search
// fields. term is matched literally, not as a pattern.
func (s *Store) Search(ctx context.Context, dept models.Department, syID *primitive.ObjectID, term string, limit int64) ([]models.Entry, error) {
	desc, err := s.reg.Lookup(dept)
	if err != nil {
		return nil, err
	}
	c := s.db.Collection(desc.Store)

	plan := search.Build(term, desc.SearchFields)
	pattern := primitive.Regex{Pattern: plan.Pattern, Options: plan.Options}
	or := make(bson.A, 0, len(plan.Fields))
	for _, f := range plan.Fields {
		or = append(or, bson.M{f: pattern})
	}
	q := bson.M{"$or": or}
	if syID != nil {
		q["school_year_id"] = *syID
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: plan.Sort, Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	return s.find(ctx, c, q, opts)
}

func (s *Store) find(ctx context.Context, c *mongo.Collection, q bson.M, opts *options.FindOptions) ([]models.Entry, error) {
	return storeutil.RetryRead(ctx, func(ctx context.Context) ([]models.Entry, error) {
		cur, err := c.Find(ctx, q, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := []models.Entry{}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Replace overwrites the stored entry with e, provided it has not been
// modified since it was read with updated_at == readAt. Returns
// mongo.ErrNoDocuments if the entry is gone and ErrStale if it changed.
func (s *Store) Replace(ctx context.Context, e models.Entry, readAt time.Time) (models.Entry, error) {
	c, err := s.coll(e.Department)
	if err != nil {
		return models.Entry{}, err
	}
	e.UpdatedAt = storeutil.Now()
	e.FullNameCI = text.Fold(e.FullName)
	e.Archived = e.Status == models.StatusArchived
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}

	res, err := c.ReplaceOne(ctx, bson.M{"_id": e.ID, "updated_at": readAt}, e)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Entry{}, ErrDuplicateEmail
		}
		return models.Entry{}, err
	}
	if res.MatchedCount == 0 {
		n, err := c.CountDocuments(ctx, bson.M{"_id": e.ID})
		if err != nil {
			return models.Entry{}, err
		}
		if n == 0 {
			return models.Entry{}, mongo.ErrNoDocuments
		}
		return models.Entry{}, ErrStale
	}
	return e, nil
}

// StatusChange is the lifecycle write applied by SetStatus.
type StatusChange struct {
	From             models.Status
	To               models.Status
	ReviewedBy       string
	RejectionReasons []string
	CustomReason     string
}

// SetStatus moves the entry from ch.From to ch.To only if its current status
// is still ch.From. It reports whether the write happened; a false result
// means the entry is gone or its status already changed.
func (s *Store) SetStatus(ctx context.Context, dept models.Department, id primitive.ObjectID, ch StatusChange) (bool, time.Time, error) {
	c, err := s.coll(dept)
	if err != nil {
		return false, time.Time{}, err
	}
	now := storeutil.Now()
	set := bson.M{
		"status":      ch.To,
		"archived":    ch.To == models.StatusArchived,
		"updated_at":  now,
		"reviewed_by": ch.ReviewedBy,
		"reviewed_at": now,
	}
	update := bson.M{"$set": set}
	if ch.To == models.StatusRejected {
		set["rejection_reasons"] = ch.RejectionReasons
		set["custom_reason"] = ch.CustomReason
	} else {
		update["$unset"] = bson.M{"rejection_reasons": "", "custom_reason": ""}
	}

	res, err := c.UpdateOne(ctx, bson.M{"_id": id, "status": ch.From}, update)
	if err != nil {
		return false, time.Time{}, err
	}
	return res.MatchedCount == 1, now, nil
}

// Delete removes an entry. It reports whether anything was deleted.
func (s *Store) Delete(ctx context.Context, dept models.Department, id primitive.ObjectID) (bool, error) {
	c, err := s.coll(dept)
	if err != nil {
		return false, err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// StatusCounts holds per-status totals for one department.
type StatusCounts map[models.Status]int64

// Total sums every status.
func (sc StatusCounts) Total() int64 {
	var n int64
	for _, v := range sc {
		n += v
	}
	return n
}

// CountByStatus groups the department's entries by status, optionally within
// one school year.
func (s *Store) CountByStatus(ctx context.Context, dept models.Department, syID *primitive.ObjectID) (StatusCounts, error) {
	c, err := s.coll(dept)
	if err != nil {
		return nil, err
	}
	match := bson.M{}
	if syID != nil {
		match["school_year_id"] = *syID
	}
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	return storeutil.RetryRead(ctx, func(ctx context.Context) (StatusCounts, error) {
		cur, err := c.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		out := StatusCounts{}
		for cur.Next(ctx) {
			var row struct {
				Status models.Status `bson:"_id"`
				Count  int64         `bson:"count"`
			}
			if err := cur.Decode(&row); err != nil {
				return nil, err
			}
			out[row.Status] = row.Count
		}
		return out, cur.Err()
	})
}
