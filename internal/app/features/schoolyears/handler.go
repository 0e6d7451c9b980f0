// internal/app/features/schoolyears/handler.go
package schoolyears

import (
	"context"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the school-year part of the yearbook engine.
type Service interface {
	ListSchoolYears(ctx context.Context) ([]models.SchoolYear, error)
	GetActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error)
	CreateSchoolYear(ctx context.Context, actor yearbook.Actor, in yearbook.SchoolYearInput) (models.SchoolYear, error)
	ActivateSchoolYear(ctx context.Context, actor yearbook.Actor, id primitive.ObjectID) (models.SchoolYear, error)
}

type Handler struct {
	Svc Service
	Log *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Log: logger}
}

// ServeList handles GET /school-years.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.ListSchoolYears(r.Context())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, out)
}

// ServeActive handles GET /school-years/active.
func (h *Handler) ServeActive(w http.ResponseWriter, r *http.Request) {
	sy, err := h.Svc.GetActiveSchoolYear(r.Context())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, sy)
}

// ServeCreate handles POST /school-years.
//
//	{ "year_label": "2025-2026", "start_date": "2025-06-01T00:00:00Z", "end_date": "...", "activate": true }
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var in yearbook.SchoolYearInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sy, err := h.Svc.CreateSchoolYear(r.Context(), params.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, sy)
}

// ServeActivate handles POST /school-years/{id}/activate.
func (h *Handler) ServeActivate(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sy, err := h.Svc.ActivateSchoolYear(r.Context(), params.Actor(r), id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, sy)
}
