package userinfo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memoria/internal/app/features/userinfo"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/memoria/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeService struct {
	gotActor yearbook.Actor
	gotSY    *primitive.ObjectID
}

func (f *fakeService) ListMyEntries(_ context.Context, actor yearbook.Actor, syID *primitive.ObjectID) ([]models.Entry, error) {
	f.gotActor, f.gotSY = actor, syID
	return []models.Entry{{FullName: "Test Member", Department: models.College}}, nil
}

func newRouter(svc *fakeService) http.Handler {
	return userinfo.Routes(userinfo.NewHandler(svc, nil))
}

type me struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id"`
	Role            string `json:"role"`
	IsAdmin         bool   `json:"is_admin"`
}

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeService{}).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got me
	if err := json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.IsAuthenticated || got.Role != "visitor" {
		t.Errorf("got %+v", got)
	}
}

func TestServeUserInfo_Admin(t *testing.T) {
	user := testutil.AdminUser()
	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), user)
	rec := httptest.NewRecorder()
	newRouter(&fakeService{}).ServeHTTP(rec, req)

	var got me
	if err := json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.IsAuthenticated || got.ID != user.ID || !got.IsAdmin {
		t.Errorf("got %+v", got)
	}
}

func TestServeMyEntries(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/entries", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d, want 401", rec.Code)
	}

	user := testutil.MemberUser()
	syID := primitive.NewObjectID()
	req := testutil.WithUser(httptest.NewRequest("GET", "/entries?school_year_id="+syID.Hex(), nil), user)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotActor.UserID != user.ID || svc.gotSY == nil || *svc.gotSY != syID {
		t.Errorf("service called with %+v, %v", svc.gotActor, svc.gotSY)
	}
	if env := testutil.DecodeEnvelope(t, rec); env.Meta["count"] != 1.0 {
		t.Errorf("meta = %v", env.Meta)
	}
}
