// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	groupstore "github.com/dispoapp/dispo/internal/app/store/groups"
	"github.com/dispoapp/dispo/internal/app/system/storage"
	"github.com/dispoapp/dispo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the events feature,
// which also serves the per-event comment, RSVP, and photo routes.
type Handler struct {
	DB     *mongo.Database
	Blobs  storage.Store
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, blobs storage.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Blobs: blobs, ErrLog: errLog, Log: logger}
}

// errHidden signals that an access failure response was already written.
var errHidden = errors.New("response already written")

// canView applies the event's visibility scope plus the denylist.
// Creators always see their own events.
func (h *Handler) canView(ctx context.Context, e models.Event, userID string) (bool, error) {
	if e.CreatorID == userID {
		return true, nil
	}
	if e.Excludes(userID) {
		return false, nil
	}
	if e.Invited(userID) {
		return true, nil
	}
	switch e.Visibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityGroup:
		if e.GroupID == "" {
			return false, nil
		}
		g, err := groupstore.New(h.DB).GetByID(ctx, e.GroupID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				// Group deleted after the event; only invitees remain.
				return false, nil
			}
			return false, err
		}
		return g.IsMember(userID), nil
	default:
		// private, friends: invite-only beyond the creator.
		return false, nil
	}
}

// loadVisible loads the event and enforces canView, writing the error
// response itself. A non-nil error means the response is already sent.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, eventID, userID string) (models.Event, error) {
	e, err := eventstore.New(h.DB).GetByID(ctx, eventID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "event not found")
			return e, err
		}
		h.ErrLog.Internal(w, "events: load", err)
		return e, err
	}
	ok, err := h.canView(ctx, e, userID)
	if err != nil {
		h.ErrLog.Internal(w, "events: visibility check", err)
		return e, err
	}
	if !ok {
		// 404, not 403: do not confirm the event exists.
		apierrors.NotFound(w, "event not found")
		return e, errHidden
	}
	return e, nil
}

// loadOwned loads the event and enforces the creator gate.
func (h *Handler) loadOwned(ctx context.Context, w http.ResponseWriter, eventID, userID string) (models.Event, error) {
	e, err := eventstore.New(h.DB).GetByID(ctx, eventID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "event not found")
			return e, err
		}
		h.ErrLog.Internal(w, "events: load", err)
		return e, err
	}
	if e.CreatorID != userID {
		apierrors.Forbidden(w, "only the event creator can do that")
		return e, errHidden
	}
	return e, nil
}
