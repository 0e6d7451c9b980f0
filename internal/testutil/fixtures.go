package testutil

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test data directly, bypassing the service layer.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateSchoolYear inserts a school year labelled "<start>-<start+1>".
func (f *Fixtures) CreateSchoolYear(ctx context.Context, start int, active bool) models.SchoolYear {
	f.t.Helper()

	now := time.Now().UTC()
	sy := models.SchoolYear{
		ID:        primitive.NewObjectID(),
		YearLabel: strconv.Itoa(start) + "-" + strconv.Itoa(start+1),
		StartDate: time.Date(start, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(start+1, time.March, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("school_years").InsertOne(ctx, sy); err != nil {
		f.t.Fatalf("CreateSchoolYear: %v", err)
	}
	return sy
}

// CreateEntry inserts an entry into dept's store with the given status.
func (f *Fixtures) CreateEntry(ctx context.Context, dept models.Department, sy models.SchoolYear, fullName, email string, status models.Status) models.Entry {
	f.t.Helper()

	store, err := schema.Default().StoreName(dept)
	if err != nil {
		f.t.Fatalf("CreateEntry: %v", err)
	}
	now := time.Now().UTC()
	e := models.Entry{
		ID:           primitive.NewObjectID(),
		Department:   dept,
		SchoolYearID: sy.ID,
		SchoolYear:   sy.YearLabel,
		Status:       status,
		Archived:     status == models.StatusArchived,
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
		Fields:       map[string]any{},
	}
	if _, err := f.db.Collection(store).InsertOne(ctx, e); err != nil {
		f.t.Fatalf("CreateEntry: %v", err)
	}
	return e
}

// CreateRejectionReason inserts an active reason. A nil syID makes it global.
func (f *Fixtures) CreateRejectionReason(ctx context.Context, reason string, syID *primitive.ObjectID) models.RejectionReason {
	f.t.Helper()

	rr := models.RejectionReason{
		ID:           primitive.NewObjectID(),
		Reason:       reason,
		Category:     "content",
		IsActive:     true,
		SchoolYearID: syID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("rejection_reasons").InsertOne(ctx, rr); err != nil {
		f.t.Fatalf("CreateRejectionReason: %v", err)
	}
	return rr
}
