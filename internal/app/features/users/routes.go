// internal/app/features/users/routes.go
package users

import (
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/me", h.ServeMe)
		pr.Patch("/me", h.HandleUpdateMe)
		pr.Get("/search", h.ServeSearch)
		pr.Get("/{id}", h.ServeUser)
	})
	return r
}
