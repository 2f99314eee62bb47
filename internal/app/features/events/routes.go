// internal/app/features/events/routes.go
package events

import (
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)
		pr.Get("/going", h.ServeGoing)

		pr.Get("/{id}", h.ServeEvent)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Post("/{id}/image", h.HandleUploadImage)
		pr.Get("/{id}/share", h.ServeShareMessage)

		pr.Put("/{id}/exclusions/{userID}", h.HandleExclude)
		pr.Delete("/{id}/exclusions/{userID}", h.HandleUnexclude)

		pr.Get("/{id}/comments", h.ServeComments)
		pr.Post("/{id}/comments", h.HandleAddComment)
		pr.Patch("/{id}/comments/{commentID}", h.HandleUpdateComment)
		pr.Delete("/{id}/comments/{commentID}", h.HandleDeleteComment)

		pr.Put("/{id}/rsvp", h.HandleSetRSVP)
		pr.Delete("/{id}/rsvp", h.HandleClearRSVP)
		pr.Get("/{id}/rsvps", h.ServeRSVPs)

		pr.Get("/{id}/photos", h.ServePhotos)
		pr.Post("/{id}/photos", h.HandleAddPhoto)
	})

	return r
}
