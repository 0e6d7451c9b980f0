// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit routes (typically under "/audit"). Administrators
// only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(authz.AdminRoles...))

		pr.Delete("/users/{userID}", h.ServePurgeUser)
	})

	return r
}
