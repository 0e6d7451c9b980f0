// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names that are not per-department.
const (
	SchoolYears      = "school_years"
	ProfileOwnership = "profile_ownership"
	RejectionReasons = "rejection_reasons"
	AuditLogs        = "audit_logs"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.

The unique indexes here are what actually enforce per-year email uniqueness,
one live profile per owner per year, and a single active school year; the
application pre-checks only produce friendlier errors.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, reg *schema.Registry) error {
	var problems []string

	for _, d := range reg.Descriptors() {
		if err := ensureEntries(ctx, db, d.Store); err != nil {
			problems = append(problems, d.Store+": "+err.Error())
		}
	}
	if err := ensureProfileOwnership(ctx, db); err != nil {
		problems = append(problems, ProfileOwnership+": "+err.Error())
	}
	if err := ensureSchoolYears(ctx, db); err != nil {
		problems = append(problems, SchoolYears+": "+err.Error())
	}
	if err := ensureRejectionReasons(ctx, db); err != nil {
		problems = append(problems, RejectionReasons+": "+err.Error())
	}
	if err := ensureAuditLogs(ctx, db); err != nil {
		problems = append(problems, AuditLogs+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string   `bson:"name"`
	Key     bson.D   `bson:"key"`
	Unique  *bool    `bson:"unique,omitempty"`
	Partial bson.Raw `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// partialSig renders a partial filter as canonical extended JSON so stored
// and desired filters compare equal regardless of numeric width.
func partialSig(v any) string {
	if v == nil {
		return ""
	}
	if raw, ok := v.(bson.Raw); ok {
		if len(raw) == 0 {
			return ""
		}
		return raw.String()
	}
	b, err := bson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return bson.Raw(b).String()
}

func boolVal(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

type desired struct {
	name    string
	sig     string
	unique  bool
	partial string
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = boolVal(m.Options.Unique)
		d.partial = partialSig(m.Options.PartialFilterExpression)
	}
	return d
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string][]existingIndex {
	out := map[string][]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = append(out[keySig(idx.Key)], idx)
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		want := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", want.name),
			zap.String("keys", want.sig),
			zap.Bool("unique", want.unique))

		// An index with the same keys may exist under another name or with
		// other options. Reuse an exact match; otherwise drop the one that
		// carries our name (or conflicts on options) and recreate.
		var reuse bool
		for _, ex := range listExisting(ctx, coll)[want.sig] {
			sameOpts := boolVal(ex.Unique) == want.unique && partialSig(ex.Partial) == want.partial
			if sameOpts && (want.name == "" || ex.Name == want.name) {
				reuse = true
				break
			}
			if !sameOpts && ex.Name != want.name && want.partial != "" {
				// a different partial index on the same keys can coexist
				continue
			}
			log.Info("dropping index to realign", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), want.name, err))
			}
		}
		if reuse {
			log.Info("reusing existing index", zap.String("took", time.Since(start).String()))
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && want.unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), want.name, want.sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), want.name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection definitions                                                 */
/* -------------------------------------------------------------------------- */

// EntryModels returns the indexes every department store carries.
func EntryModels(store string) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// archived entries free their email for a new profile
			Keys: bson.D{{Key: "school_year_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_" + store + "_sy_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"archived": false}),
		},
		{
			Keys: bson.D{
				{Key: "school_year_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_" + store + "_sy_status_name"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_" + store + "_name"),
		},
		{
			Keys:    bson.D{{Key: "owned_by", Value: 1}, {Key: "school_year_id", Value: 1}},
			Options: options.Index().SetName("idx_" + store + "_owner_sy"),
		},
	}
}

func ensureEntries(ctx context.Context, db *mongo.Database, store string) error {
	return ensureIndexSet(ctx, db.Collection(store), EntryModels(store))
}

func ensureProfileOwnership(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(ProfileOwnership), []mongo.IndexModel{
		{
			// one live profile per owner per year; archived rows don't count
			Keys: bson.D{{Key: "owned_by", Value: 1}, {Key: "school_year_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_ownership_owner_sy_live").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"archived": false}),
		},
		{
			Keys:    bson.D{{Key: "profile_id", Value: 1}},
			Options: options.Index().SetName("idx_ownership_profile"),
		},
	})
}

func ensureSchoolYears(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(SchoolYears), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "year_label", Value: 1}},
			Options: options.Index().SetName("uniq_school_years_label").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
			Options: options.Index().
				SetName("uniq_school_years_single_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys:    bson.D{{Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_school_years_start"),
		},
	})
}

func ensureRejectionReasons(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(RejectionReasons), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "school_year_id", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_rejection_reasons_sy_active"),
		},
	})
}

func ensureAuditLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(AuditLogs), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "target_type", Value: 1},
				{Key: "target_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_audit_target_time"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_time"),
		},
		{
			Keys:    bson.D{{Key: "school_year_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_sy_time"),
		},
	})
}
