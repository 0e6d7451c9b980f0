// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service lists the caller's own entries.
type Service interface {
	ListMyEntries(ctx context.Context, actor yearbook.Actor, syID *primitive.ObjectID) ([]models.Entry, error)
}

// Handler serves information about the signed-in user.
type Handler struct {
	Svc Service
	Log *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Log: logger}
}

type meResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	IsAdmin         bool   `json:"is_admin"`
}

// ServeUserInfo handles GET /me. It always answers 200; anonymous callers
// get is_authenticated=false and role "visitor".
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.OK(w, meResponse{Role: "visitor"})
		return
	}
	_, role, _ := authz.UserCtx(r)
	respond.OK(w, meResponse{
		IsAuthenticated: true,
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            role,
		IsAdmin:         authz.IsAdminRole(role),
	})
}

// ServeMyEntries handles GET /me/entries?school_year_id=: the caller's own
// entries across every department.
func (h *Handler) ServeMyEntries(w http.ResponseWriter, r *http.Request) {
	syID, err := params.SchoolYear(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out, err := h.Svc.ListMyEntries(r.Context(), params.Actor(r), syID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, out, map[string]any{"count": len(out)})
}
