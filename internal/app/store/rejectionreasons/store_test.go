package rejectionreasons_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/memoria/internal/app/store/rejectionreasons"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/memoria/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestRejectionReasons_ScopeAndDeactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := rejectionreasons.New(db)
	fx := testutil.NewFixtures(t, db)

	sy := primitive.NewObjectID()
	other := primitive.NewObjectID()
	global := fx.CreateRejectionReason(ctx, "Inappropriate photo", nil)
	scoped := fx.CreateRejectionReason(ctx, "Missing graduation toga", &sy)
	fx.CreateRejectionReason(ctx, "Wrong batch", &other)

	got, err := store.List(ctx, &sy, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List(sy) returned %d reasons, want 2", len(got))
	}

	onlyGlobal, _ := store.List(ctx, nil, false)
	if len(onlyGlobal) != 1 || onlyGlobal[0].ID != global.ID {
		t.Errorf("List(nil) = %+v", onlyGlobal)
	}

	if err := store.Deactivate(ctx, scoped.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, _ = store.List(ctx, &sy, false)
	if len(got) != 1 {
		t.Errorf("after deactivate List(sy) = %d, want 1", len(got))
	}
	withInactive, _ := store.List(ctx, &sy, true)
	if len(withInactive) != 2 {
		t.Errorf("List including inactive = %d, want 2", len(withInactive))
	}

	byID, err := store.GetByIDs(ctx, []primitive.ObjectID{global.ID, scoped.ID})
	if err != nil || len(byID) != 2 {
		t.Fatalf("GetByIDs = %d, %v", len(byID), err)
	}

	if err := store.Deactivate(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Deactivate(missing) err = %v", err)
	}
}

func TestRejectionReasons_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := rejectionreasons.New(db)

	rr, err := store.Create(ctx, models.RejectionReason{Reason: "Blurry photo", Category: "photo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rr.ID.IsZero() || !rr.IsActive {
		t.Errorf("Create = %+v", rr)
	}
}
