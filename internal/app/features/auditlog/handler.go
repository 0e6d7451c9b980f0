// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Service removes audit history.
type Service interface {
	PurgeUserAuditTrail(ctx context.Context, actor yearbook.Actor, userID string) (int64, error)
}

type Handler struct {
	Svc Service
	Log *zap.Logger
}

// NewHandler constructs an audit feature handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Log: logger}
}

// ServePurgeUser handles DELETE /audit/users/{userID}: it removes every audit
// event written by a user whose account has been deleted.
func (h *Handler) ServePurgeUser(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.PurgeUserAuditTrail(r.Context(), params.Actor(r), chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]int64{"deleted": n})
}
