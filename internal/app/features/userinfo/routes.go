// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts GET / and GET /entries (typically under "/me"). The identity
// route checks the session itself, so it needs no middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeUserInfo)
	r.With(auth.RequireSignedIn).Get("/entries", h.ServeMyEntries)
	return r
}
