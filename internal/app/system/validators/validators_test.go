package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/app/system/validators"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/memoria/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, schema.Default()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, schema.Default()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reg := schema.Default()
	if err := validators.EnsureAll(ctx, db, reg); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}

	expected := []string{"school_years", "profile_ownership", "rejection_reasons", "audit_logs"}
	for _, d := range reg.Descriptors() {
		expected = append(expected, d.Store)
	}
	for _, name := range expected {
		if !have[name] {
			t.Errorf("expected collection %q to exist", name)
		}
	}
}

func TestEntryValidator_RejectsBadDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reg := schema.Default()
	if err := validators.EnsureAll(ctx, db, reg); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store, _ := reg.StoreName(models.College)
	coll := db.Collection(store)
	now := time.Now().UTC()

	valid := bson.M{
		"department":     "college",
		"school_year_id": primitive.NewObjectID(),
		"status":         "pending",
		"full_name":      "Ana Cruz",
		"email":          "ana@example.com",
		"year_level":     "4th Year",
		"age":            int64(21),
		"created_at":     now,
		"updated_at":     now,
		"favorite_color": "green", // unknown fields pass
	}
	if _, err := coll.InsertOne(ctx, valid); err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(bson.M)
	}{
		{"blank full_name", func(d bson.M) { d["full_name"] = "   " }},
		{"unknown status", func(d bson.M) { d["status"] = "published" }},
		{"wrong department", func(d bson.M) { d["department"] = "alumni" }},
		{"string age", func(d bson.M) { d["age"] = "twenty" }},
		{"missing email", func(d bson.M) { delete(d, "email") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := bson.M{}
			for k, v := range valid {
				doc[k] = v
			}
			doc["email"] = primitive.NewObjectID().Hex() + "@example.com"
			tc.mutate(doc)
			if _, err := coll.InsertOne(ctx, doc); err == nil {
				t.Error("expected document validation failure")
			}
		})
	}
}

func TestEntrySchema_TypesKnownFields(t *testing.T) {
	desc, err := schema.Default().Lookup(models.Alumni)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	js := validators.EntrySchema(desc)["$jsonSchema"].(bson.M)
	props := js["properties"].(bson.M)

	for _, f := range desc.Known() {
		if _, ok := props[f.Name]; !ok {
			t.Errorf("property %q missing from validator", f.Name)
		}
	}
	if got := props["department"].(bson.M)["enum"].(bson.A); len(got) != 1 || got[0] != "alumni" {
		t.Errorf("department enum = %v", got)
	}
}
