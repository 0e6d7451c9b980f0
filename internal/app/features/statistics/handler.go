// internal/app/features/statistics/handler.go
package statistics

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

// Service computes per-department review counts.
type Service interface {
	Statistics(ctx context.Context, syID *primitive.ObjectID) (map[models.Department]yearbook.DepartmentStats, error)
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

// Serve handles GET /statistics?school_year_id=. Without a school year the
// counts span every year.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	syID, err := params.SchoolYear(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	stats, err := h.Svc.Statistics(r.Context(), syID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, stats)
}
