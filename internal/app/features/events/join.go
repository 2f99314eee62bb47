// internal/app/features/events/join.go
package events

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type joinBody struct {
	InviteCode string `json:"invite_code"`
}

// HandleJoin handles POST /api/events/join: redeem an invite code. The
// caller lands on the invited list and sees the event in their feed
// regardless of its visibility. Re-joining is a no-op.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if body.InviteCode == "" {
		apierrors.BadRequest(w, "invite_code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	es := eventstore.New(h.DB)
	e, err := es.FindByInviteCode(ctx, body.InviteCode)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "no event with that invite code")
			return
		}
		h.ErrLog.Internal(w, "events: invite code lookup", err)
		return
	}

	// An invite code in hand beats the denylist check for lookup, but an
	// excluded user still may not join.
	if e.Excludes(u.ID) && e.CreatorID != u.ID {
		apierrors.NotFound(w, "no event with that invite code")
		return
	}

	if err := es.JoinByInviteCode(ctx, e.ID, u.ID); err != nil {
		h.ErrLog.Internal(w, "events: join", err)
		return
	}

	h.Log.Info("event joined by invite code",
		zap.String("event_id", e.ID),
		zap.String("user_id", u.ID))

	e, err = es.GetByID(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: reload after join", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, e)
}

// HandleExclude handles PUT /api/events/{id}/exclusions/{userID}.
// Creator-only. Excluding yourself is rejected; the creator always sees
// their own event anyway.
func (h *Handler) HandleExclude(w http.ResponseWriter, r *http.Request) {
	h.updateExclusion(w, r, true)
}

// HandleUnexclude handles DELETE /api/events/{id}/exclusions/{userID}.
func (h *Handler) HandleUnexclude(w http.ResponseWriter, r *http.Request) {
	h.updateExclusion(w, r, false)
}

func (h *Handler) updateExclusion(w http.ResponseWriter, r *http.Request, add bool) {
	u, _ := auth.CurrentUser(r)
	target := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.loadOwned(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}
	if add && target == u.ID {
		apierrors.BadRequest(w, "cannot exclude yourself from your own event")
		return
	}

	es := eventstore.New(h.DB)
	if add {
		err = es.Exclude(ctx, e.ID, target)
	} else {
		err = es.Unexclude(ctx, e.ID, target)
	}
	if err != nil {
		h.ErrLog.Internal(w, "events: update exclusions", err)
		return
	}

	e, err = es.GetByID(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: reload after exclusion change", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, e)
}
