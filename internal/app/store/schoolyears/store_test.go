package schoolyears_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/app/store/schoolyears"
	"github.com/dalemusser/memoria/internal/app/system/indexes"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/memoria/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func year(label string, start int) models.SchoolYear {
	return models.SchoolYear{
		YearLabel: label,
		StartDate: time.Date(start, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(start+1, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestSchoolYears_CreateListAndActivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, schema.Default()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := schoolyears.New(db, zap.NewNop())

	a, err := store.Create(ctx, year("2023-2024", 2023))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := store.Create(ctx, year("2024-2025", 2024))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, year("2024-2025", 2024)); !errors.Is(err, schoolyears.ErrDuplicateLabel) {
		t.Fatalf("duplicate Create err = %v, want ErrDuplicateLabel", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID {
		t.Errorf("List order wrong: %+v", list)
	}

	if _, err := store.GetActive(ctx); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("GetActive before activation err = %v", err)
	}

	if _, err := store.Activate(ctx, a.ID); err != nil {
		t.Fatalf("Activate(a): %v", err)
	}
	got, err := store.Activate(ctx, b.ID)
	if err != nil {
		t.Fatalf("Activate(b): %v", err)
	}
	if !got.IsActive {
		t.Error("activated year should be active")
	}

	active, err := store.GetActive(ctx)
	if err != nil || active.ID != b.ID {
		t.Fatalf("GetActive = %+v, %v; want b", active, err)
	}
	prev, _ := store.GetByID(ctx, a.ID)
	if prev.IsActive {
		t.Error("previously active year should be deactivated")
	}
}

func TestSchoolYears_ActivateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := schoolyears.New(db, nil)

	if _, err := store.Activate(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}
