package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, []string{"a"}, map[string]any{"total": 1})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body struct {
		Data []string       `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Meta["total"] != 1.0 {
		t.Errorf("body = %+v", body)
	}
}

func TestErrorUsesAppErrStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), apperr.Validation([]string{"email"}, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"missing":["email"]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop(), errors.New("dial tcp 10.0.0.1: refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.1") {
		t.Errorf("internal cause leaked: %s", rec.Body.String())
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var dst map[string]any
	if err := Decode(req, &dst); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
