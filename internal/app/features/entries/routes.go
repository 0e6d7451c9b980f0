// internal/app/features/entries/routes.go
package entries

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/dalemusser/memoria/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the entry routes (typically under "/entries"). Every route
// needs a signed-in user; members read approved entries and their own, and
// review, delete, bulk and audit routes need an administrator. The service
// enforces ownership on writes itself.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/{department}", h.ServeList)
	r.Get("/{department}/search", h.ServeSearch)
	r.Get("/{department}/{id}", h.ServeGet)

	r.Group(func(pr chi.Router) {
		pr.Use(ratelimit.Middleware(limiter))

		pr.Post("/{department}", h.ServeCreate)
		pr.Patch("/{department}/{id}", h.ServeUpdate)
		// owners may resubmit a rejected entry
		pr.Post("/{department}/{id}/status", h.ServeStatus)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.AdminRoles...))
		ar.Use(ratelimit.Middleware(limiter))

		ar.Post("/{department}/bulk", h.ServeBulkCreate)
		ar.Patch("/{department}/bulk", h.ServeBulkUpdate)
		ar.Post("/{department}/import", h.ServeImport)
		ar.Delete("/{department}/{id}", h.ServeDelete)
		ar.Get("/{department}/{id}/audit", h.ServeAudit)
	})

	return r
}
