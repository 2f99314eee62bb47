// internal/app/features/feed/routes.go
package feed

import (
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeFeed)
		pr.Get("/live", h.ServeLive)
	})
	return r
}
