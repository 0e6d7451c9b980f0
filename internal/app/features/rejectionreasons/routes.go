// internal/app/features/rejectionreasons/routes.go
package rejectionreasons

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the picklist routes (typically under "/rejection-reasons").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.AdminRoles...))

		ar.Post("/", h.ServeCreate)
		ar.Delete("/{id}", h.ServeDeactivate)
	})

	return r
}
