// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	notificationstore "github.com/dispoapp/dispo/internal/app/store/notifications"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Log: logger}
}

// ServeList handles GET /api/notifications: newest first, with the
// unread count alongside.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ns := notificationstore.New(h.DB)
	list, err := ns.ListForUser(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "notifications: list", err)
		return
	}
	unread, err := ns.UnreadCount(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "notifications: unread count", err)
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unread":        unread,
	})
}

// HandleMarkRead handles POST /api/notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := notificationstore.New(h.DB).MarkRead(ctx, id, u.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "notification not found")
			return
		}
		h.ErrLog.Internal(w, "notifications: mark read", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// HandleMarkAllRead handles POST /api/notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := notificationstore.New(h.DB).MarkAllRead(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "notifications: mark all read", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]any{"marked": n})
}

// HandleDelete handles DELETE /api/notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := notificationstore.New(h.DB).Delete(ctx, id, u.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "notification not found")
			return
		}
		h.ErrLog.Internal(w, "notifications: delete", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
