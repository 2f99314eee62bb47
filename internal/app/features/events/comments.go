// internal/app/features/events/comments.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	commentstore "github.com/dispoapp/dispo/internal/app/store/comments"
	notificationstore "github.com/dispoapp/dispo/internal/app/store/notifications"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeComments handles GET /api/events/{id}/comments, oldest first.
func (h *Handler) ServeComments(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	cs, err := commentstore.New(h.DB).ListByEvent(ctx, e.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: list comments", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, cs)
}

type commentBody struct {
	Text string `json:"text"`
}

// HandleAddComment handles POST /api/events/{id}/comments. Anyone who
// can see the event can comment.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body commentBody
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

	c, err := commentstore.New(h.DB).Add(ctx, e.ID, u.ID, u.Name, body.Text)
	if err != nil {
		if errors.Is(err, commentstore.ErrTextRequired) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.Internal(w, "events: add comment", err)
		return
	}

	if err := notificationstore.New(h.DB).NotifyNewComment(ctx, e, c); err != nil {
		h.ErrLog.Warn("events: notify comment", err)
	}
	apierrors.JSON(w, http.StatusCreated, c)
}

// HandleUpdateComment handles PATCH /api/events/{id}/comments/{commentID}.
// Author-only.
func (h *Handler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	commentID := chi.URLParam(r, "commentID")

	var body commentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cs := commentstore.New(h.DB)
	c, err := cs.GetByID(ctx, commentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "comment not found")
			return
		}
		h.ErrLog.Internal(w, "events: load comment", err)
		return
	}
	if c.AuthorID != u.ID {
		apierrors.Forbidden(w, "only the comment author can edit it")
		return
	}

	if err := cs.UpdateText(ctx, c.ID, body.Text); err != nil {
		if errors.Is(err, commentstore.ErrTextRequired) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.Internal(w, "events: update comment", err)
		return
	}

	c, err = cs.GetByID(ctx, c.ID)
	if err != nil {
		h.ErrLog.Internal(w, "events: reload comment", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, c)
}

// HandleDeleteComment handles DELETE /api/events/{id}/comments/{commentID}.
// The author or the event creator may delete.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	commentID := chi.URLParam(r, "commentID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.loadVisible(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	cs := commentstore.New(h.DB)
	c, err := cs.GetByID(ctx, commentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "comment not found")
			return
		}
		h.ErrLog.Internal(w, "events: load comment", err)
		return
	}
	if c.AuthorID != u.ID && e.CreatorID != u.ID {
		apierrors.Forbidden(w, "only the author or the event creator can delete a comment")
		return
	}

	if _, err := cs.Delete(ctx, c.ID); err != nil {
		h.ErrLog.Internal(w, "events: delete comment", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
