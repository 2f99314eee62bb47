// internal/app/features/events/photos.go
package events

import (
	"context"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	photostore "github.com/dispoapp/dispo/internal/app/store/photos"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServePhotos handles GET /api/events/{id}/photos, oldest first.
func (h *Handler) ServePhotos(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	ps, err := photostore.New(h.DB).ListByEvent(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: list photos", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, ps)
}

// HandleAddPhoto handles POST /api/events/{id}/photos. Multipart field
// "image" plus optional "caption". Anyone who can see the event can
// post a photo.
func (h *Handler) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	url, ok := h.saveUpload(w, r, "photos/"+e.ID)
	if !ok {
		return
	}

	p, err := photostore.New(h.DB).Add(ctx, e.ID, u.ID, u.Name, url, r.FormValue("caption"))
	if err != nil {
		h.ErrLog.Internal(w, "events: add photo", err)
		return
	}

	h.Log.Info("event photo added",
		zap.String("event_id", e.ID),
		zap.String("photo_id", p.ID))
	apierrors.JSON(w, http.StatusCreated, p)
}
