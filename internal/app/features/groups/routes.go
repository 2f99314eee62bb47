// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMine)
		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)

		pr.Get("/{id}", h.ServeGroup)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Post("/{id}/leave", h.HandleLeave)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)
		pr.Post("/{id}/transfer", h.HandleTransfer)
		pr.Post("/{id}/joincode", h.HandleRegenerateCode)
	})

	return r
}
