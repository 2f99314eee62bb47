// internal/app/features/events/delete.go
package events

import (
	"context"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	commentstore "github.com/dispoapp/dispo/internal/app/store/comments"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	photostore "github.com/dispoapp/dispo/internal/app/store/photos"
	rsvpstore "github.com/dispoapp/dispo/internal/app/store/rsvps"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/dispoapp/dispo/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /api/events/{id}. Creator-only.
//
// The event and its comments, RSVPs, and photo records go together in
// one transaction so a half-deleted event never surfaces. Open live
// feeds that already merged the event keep it until reopened; the merge
// is upsert-only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	e, err := h.loadOwned(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := commentstore.New(h.DB).DeleteByEvent(ctx, e.ID); err != nil {
			return err
		}
		if _, err := rsvpstore.New(h.DB).DeleteByEvent(ctx, e.ID); err != nil {
			return err
		}
		if _, err := photostore.New(h.DB).DeleteByEvent(ctx, e.ID); err != nil {
			return err
		}
		_, err := eventstore.New(h.DB).Delete(ctx, e.ID)
		return err
	})
	if err != nil {
		h.ErrLog.Internal(w, "events: delete", err)
		return
	}

	h.Log.Info("event deleted",
		zap.String("event_id", e.ID),
		zap.String("creator_id", u.ID))
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
