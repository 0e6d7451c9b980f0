// internal/app/features/rejectionreasons/handler.go
package rejectionreasons

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

// Service manages the rejection-reason picklist.
type Service interface {
	ListRejectionReasons(ctx context.Context, syID *primitive.ObjectID) ([]models.RejectionReason, error)
	CreateRejectionReason(ctx context.Context, actor yearbook.Actor, in yearbook.RejectionReasonInput) (models.RejectionReason, error)
	DeactivateRejectionReason(ctx context.Context, actor yearbook.Actor, id primitive.ObjectID) error
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

// ServeList handles GET /rejection-reasons?school_year_id=. Global reasons are
// always included.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	syID, err := params.SchoolYear(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out, err := h.Svc.ListRejectionReasons(r.Context(), syID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, out)
}

// ServeCreate handles POST /rejection-reasons.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var in yearbook.RejectionReasonInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rr, err := h.Svc.CreateRejectionReason(r.Context(), params.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, rr)
}

// ServeDeactivate handles DELETE /rejection-reasons/{id}. The reason is
// hidden from the picklist, not removed.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := params.ObjectID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Svc.DeactivateRejectionReason(r.Context(), params.Actor(r), id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.NoContent(w)
}
