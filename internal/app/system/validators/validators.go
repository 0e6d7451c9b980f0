// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll makes sure every collection exists and carries its $jsonSchema
// validator: one per department store, derived from reg, plus the shared
// collections. Servers without collMod (some DocumentDB versions) keep the
// collections unvalidated and only a log line records it.
func EnsureAll(ctx context.Context, db *mongo.Database, reg *schema.Registry) error {
	want := make([]collSpec, 0, len(reg.Descriptors())+4)
	for _, d := range reg.Descriptors() {
		want = append(want, collSpec{d.Store, EntrySchema(d)})
	}
	want = append(want,
		collSpec{"school_years", schoolYearsSchema()},
		collSpec{"profile_ownership", ownershipSchema()},
		collSpec{"rejection_reasons", rejectionReasonsSchema()},
		collSpec{"audit_logs", auditLogsSchema()},
	)

	existing := map[string]bool{}
	if names, err := db.ListCollectionNames(ctx, bson.M{}); err == nil {
		for _, n := range names {
			existing[n] = true
		}
	}

	var problems []string
	for _, c := range want {
		if err := c.ensure(ctx, db, existing[c.name]); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collSpec struct {
	name      string
	validator bson.M
}

func (c collSpec) ensure(ctx context.Context, db *mongo.Database, exists bool) error {
	log := zap.L().With(zap.String("collection", c.name))

	if !exists {
		err := db.CreateCollection(ctx, c.name)
		switch {
		case err == nil:
			log.Info("created collection")
		case matches(err, []int32{48}, "already exists", "namespace exists"):
			// another replica got there first
		default:
			log.Warn("createCollection failed", zap.Error(err))
			return err
		}
	}
	if c.validator == nil {
		return nil
	}

	cmd := bson.D{
		{Key: "collMod", Value: c.name},
		{Key: "validator", Value: c.validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	err := db.RunCommand(ctx, cmd).Err()
	if err == nil {
		log.Info("validator ensured")
		return nil
	}
	if matches(err, []int32{59, 115}, "no such command", "not implemented", "not supported") {
		log.Info("validator skipped (unsupported)")
		return nil
	}
	return err
}

// matches reports whether err is a command error with one of codes or its
// text contains one of phrases.
func matches(err error, codes []int32, phrases ...string) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func statusEnum() bson.A {
	out := bson.A{}
	for _, s := range models.Statuses {
		out = append(out, string(s))
	}
	return out
}

func kindSchema(k schema.Kind) bson.M {
	switch k {
	case schema.Int:
		return bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	case schema.Date:
		return bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
	case schema.StringList:
		return bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
	case schema.URL:
		return bson.M{"bsonType": "string", "pattern": "^https?://"}
	default:
		return bson.M{"bsonType": "string"}
	}
}

// EntrySchema is the validator for one department store. Only the common
// fields are required at the database level; department fields are typed when
// present. Unknown fields are allowed.
func EntrySchema(d schema.Descriptor) bson.M {
	props := bson.M{}
	for _, f := range d.Known() {
		props[f.Name] = kindSchema(f.Kind)
	}
	props[models.FieldFullName] = nonBlank
	props[models.FieldEmail] = nonBlank
	props[models.FieldSchoolYearID] = bson.M{"bsonType": "objectId"}
	props["full_name_ci"] = bson.M{"bsonType": "string"}
	props["department"] = bson.M{"enum": bson.A{string(d.Department)}}
	props["status"] = bson.M{"enum": statusEnum()}
	props["archived"] = bson.M{"bsonType": "bool"}
	props["rejection_reasons"] = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
	props["created_at"] = bson.M{"bsonType": "date"}
	props["updated_at"] = bson.M{"bsonType": "date"}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"department", "school_year_id", "status", "full_name", "email", "created_at", "updated_at"},
			"properties": props,
		},
	}
}

func schoolYearsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"year_label", "start_date", "end_date", "is_active"},
			"properties": bson.M{
				"year_label": bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{4}$"},
				"start_date": bson.M{"bsonType": "date"},
				"end_date":   bson.M{"bsonType": "date"},
				"is_active":  bson.M{"bsonType": "bool"},
			},
		},
	}
}

func ownershipSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"profile_id", "owned_by", "school_year_id", "department", "status", "archived"},
			"properties": bson.M{
				"profile_id":     bson.M{"bsonType": "objectId"},
				"owned_by":       nonBlank,
				"school_year_id": bson.M{"bsonType": "objectId"},
				"department":     bson.M{"bsonType": "string"},
				"status":         bson.M{"enum": statusEnum()},
				"archived":       bson.M{"bsonType": "bool"},
			},
		},
	}
}

func rejectionReasonsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"reason", "is_active"},
			"properties": bson.M{
				"reason":         nonBlank,
				"category":       bson.M{"bsonType": "string"},
				"is_active":      bson.M{"bsonType": "bool"},
				"school_year_id": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func auditLogsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"action", "target_type", "target_id", "created_at"},
			"properties": bson.M{
				"user_id":     bson.M{"bsonType": "string"},
				"action":      nonBlank,
				"target_type": nonBlank,
				"target_id":   bson.M{"bsonType": "string"},
				"details":     bson.M{"bsonType": "object"},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
