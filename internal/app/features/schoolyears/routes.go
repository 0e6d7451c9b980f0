// internal/app/features/schoolyears/routes.go
package schoolyears

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the school-year routes (typically under "/school-years").
// Creating and activating need an administrator.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/active", h.ServeActive)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.AdminRoles...))

		ar.Post("/", h.ServeCreate)
		ar.Post("/{id}/activate", h.ServeActivate)
	})

	return r
}
