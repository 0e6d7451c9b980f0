// internal/app/features/statistics/routes.go
package statistics

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the statistics route; administrators only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireRole(authz.AdminRoles...)).Get("/", h.Serve)
	return r
}
