// internal/app/features/events/manage.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	groupstore "github.com/dispoapp/dispo/internal/app/store/groups"
	notificationstore "github.com/dispoapp/dispo/internal/app/store/notifications"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/share"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createBody struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Visibility  string    `json:"visibility"`
	GroupID     string    `json:"group_id"`
	Location    string    `json:"location"`
}

// HandleCreate handles POST /api/events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := eventstore.New(h.DB).Create(ctx, models.Event{
		Title:       body.Title,
		Description: body.Description,
		EventDate:   body.EventDate,
		CreatorID:   u.ID,
		Visibility:  models.Visibility(body.Visibility),
		GroupID:     body.GroupID,
		Location:    body.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, eventstore.ErrTitleRequired),
			errors.Is(err, eventstore.ErrDateRequired),
			errors.Is(err, eventstore.ErrBadVisibility),
			errors.Is(err, eventstore.ErrGroupRequired):
			apierrors.BadRequest(w, err.Error())
		default:
			h.ErrLog.Internal(w, "events: create", err)
		}
		return
	}

	h.Log.Info("event created",
		zap.String("event_id", e.ID),
		zap.String("creator_id", u.ID),
		zap.String("visibility", string(e.Visibility)))

	// Tell group members about the new event. Best effort; the event
	// itself is already committed.
	if e.Visibility == models.VisibilityGroup {
		if g, err := groupstore.New(h.DB).GetByID(ctx, e.GroupID); err == nil {
			ns := notificationstore.New(h.DB)
			if err := ns.NotifyNewGroupEvent(ctx, e, g, u.Name); err != nil {
				h.ErrLog.Warn("events: notify group members", err)
			}
		}
	}

	apierrors.JSON(w, http.StatusCreated, e)
}

// ServeEvent handles GET /api/events/{id}.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}
	apierrors.JSON(w, http.StatusOK, e)
}

type patchBody struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	Location    *string    `json:"location"`
}

// HandleUpdate handles PATCH /api/events/{id}. Creator-only. Visibility
// and group are fixed at creation; re-scoping an event would silently
// change who already saw it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body patchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.loadOwned(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	es := eventstore.New(h.DB)
	err = es.UpdateInfo(ctx, e.ID, eventstore.Update{
		Title:       body.Title,
		Description: body.Description,
		EventDate:   body.EventDate,
		Location:    body.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, eventstore.ErrTitleRequired),
			errors.Is(err, eventstore.ErrDateRequired):
			apierrors.BadRequest(w, err.Error())
		case err == mongo.ErrNoDocuments:
			apierrors.NotFound(w, "event not found")
		default:
			h.ErrLog.Internal(w, "events: update", err)
		}
		return
	}

	updated, err := es.GetByID(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: reload after update", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, updated)
}

// ServeShareMessage handles GET /api/events/{id}/share: the prefilled
// invite text the client drops into the system share sheet.
func (h *Handler) ServeShareMessage(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{
		"invite_code": e.InviteCode,
		"message":     share.Message(e),
	})
}
