package params

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestActor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if a := Actor(r); a.UserID != "" {
		t.Errorf("anonymous actor = %+v", a)
	}
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "u1", Role: "Admin"})
	a := Actor(r)
	if a.UserID != "u1" || !a.IsAdmin() {
		t.Errorf("actor = %+v", a)
	}
}

func TestDepartment(t *testing.T) {
	r := withURLParams(httptest.NewRequest("GET", "/", nil), "department", "SHS")
	dept, err := Department(r)
	if err != nil || dept != models.SeniorHigh {
		t.Fatalf("Department = %q, %v", dept, err)
	}

	r = withURLParams(httptest.NewRequest("GET", "/", nil), "department", "preschool")
	if _, err := Department(r); !errors.Is(err, apperr.ErrUnknownVariant) {
		t.Errorf("err = %v, want unknown variant", err)
	}
}

func TestObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	r := withURLParams(httptest.NewRequest("GET", "/", nil), "id", id.Hex())
	got, err := ObjectID(r, "id")
	if err != nil || got != id {
		t.Fatalf("ObjectID = %v, %v", got, err)
	}

	r = withURLParams(httptest.NewRequest("GET", "/", nil), "id", "nope")
	if _, err := ObjectID(r, "id"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestSchoolYear(t *testing.T) {
	got, err := SchoolYear(httptest.NewRequest("GET", "/statistics", nil))
	if err != nil || got != nil {
		t.Fatalf("absent: %v, %v", got, err)
	}

	id := primitive.NewObjectID()
	got, err = SchoolYear(httptest.NewRequest("GET", "/statistics?school_year_id="+id.Hex(), nil))
	if err != nil || got == nil || *got != id {
		t.Fatalf("present: %v, %v", got, err)
	}

	if _, err := SchoolYear(httptest.NewRequest("GET", "/statistics?school_year_id=zzz", nil)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("malformed: %v", err)
	}
}
