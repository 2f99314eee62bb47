// internal/app/features/events/rsvps.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	notificationstore "github.com/dispoapp/dispo/internal/app/store/notifications"
	rsvpstore "github.com/dispoapp/dispo/internal/app/store/rsvps"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type rsvpBody struct {
	Status string `json:"status"`
}

// HandleSetRSVP handles PUT /api/events/{id}/rsvp. One reply per user
// per event; repeat calls change the status.
func (h *Handler) HandleSetRSVP(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body rsvpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	rsvp, err := rsvpstore.New(h.DB).Set(ctx, e.ID, u.ID, u.Name, models.RSVPStatus(body.Status))
	if err != nil {
		if errors.Is(err, rsvpstore.ErrBadStatus) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.Internal(w, "events: set rsvp", err)
		return
	}

	if err := notificationstore.New(h.DB).NotifyRSVP(ctx, e, rsvp); err != nil {
		h.ErrLog.Warn("events: notify rsvp", err)
	}
	apierrors.JSON(w, http.StatusOK, rsvp)
}

// HandleClearRSVP handles DELETE /api/events/{id}/rsvp.
func (h *Handler) HandleClearRSVP(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	if err := rsvpstore.New(h.DB).Remove(ctx, e.ID, u.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "no rsvp to clear")
			return
		}
		h.ErrLog.Internal(w, "events: clear rsvp", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ServeGoing handles GET /api/events/going: every event the caller
// replied "going" to, date ordered. This backs the client's calendar
// view. Events deleted since the reply simply drop out.
func (h *Handler) ServeGoing(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ids, err := rsvpstore.New(h.DB).GoingEventIDs(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: going ids", err)
		return
	}
	events, err := eventstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.Internal(w, "events: load going", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, events)
}

// ServeRSVPs handles GET /api/events/{id}/rsvps: the replies plus
// per-status counts.
func (h *Handler) ServeRSVPs(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	rs := rsvpstore.New(h.DB)
	list, err := rs.ListByEvent(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: list rsvps", err)
		return
	}
	counts, err := rs.Counts(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: count rsvps", err)
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"rsvps":  list,
		"counts": counts,
	})
}
