// internal/app/features/groups/manage.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	groupstore "github.com/dispoapp/dispo/internal/app/store/groups"
	userstore "github.com/dispoapp/dispo/internal/app/store/users"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/dispoapp/dispo/internal/app/system/txn"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type groupBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /api/groups. The creator becomes owner and
// first member; a join code is generated.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body groupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := groupstore.New(h.DB).Create(ctx, body.Name, body.Description, u.ID)
	if err != nil {
		switch {
		case errors.Is(err, groupstore.ErrNameRequired):
			apierrors.BadRequest(w, err.Error())
		case errors.Is(err, groupstore.ErrCodeExhausted):
			h.ErrLog.Internal(w, "groups: join code allocation", err)
		default:
			h.ErrLog.Internal(w, "groups: create", err)
		}
		return
	}

	// Mirror the membership on the user document. The group document is
	// the source of truth; this is denormalization for feed clause setup.
	if err := userstore.New(h.DB).AddGroup(ctx, u.ID, g.ID); err != nil {
		h.ErrLog.Warn("groups: mirror owner membership", err)
	}

	h.Log.Info("group created",
		zap.String("group_id", g.ID),
		zap.String("owner_id", u.ID))
	apierrors.JSON(w, http.StatusCreated, g)
}

// ServeGroup handles GET /api/groups/{id}. Member-only.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "group not found")
			return
		}
		h.ErrLog.Internal(w, "groups: load", err)
		return
	}
	if !g.IsMember(u.ID) {
		apierrors.Forbidden(w, "you are not a member of this group")
		return
	}
	apierrors.JSON(w, http.StatusOK, g)
}

// HandleUpdate handles PATCH /api/groups/{id}. Owner-only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	var body groupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs := groupstore.New(h.DB)
	g, err := h.requireOwner(ctx, w, gs, id, u.ID)
	if err != nil {
		return
	}

	if err := gs.UpdateInfo(ctx, g.ID, body.Name, body.Description); err != nil {
		if errors.Is(err, groupstore.ErrNameRequired) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.Internal(w, "groups: update", err)
		return
	}

	updated, err := gs.GetByID(ctx, g.ID)
	if err != nil {
		h.ErrLog.Internal(w, "groups: reload after update", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/groups/{id}. Owner-only.
//
// The group document and every user's membership mirror go together in
// one transaction. Events that pointed at the group keep their dangling
// group_id and simply stop matching any per-group feed clause.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	gs := groupstore.New(h.DB)
	if _, err := h.requireOwner(ctx, w, gs, id, u.ID); err != nil {
		return
	}

	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := userstore.New(h.DB).RemoveGroupFromAll(ctx, id); err != nil {
			return err
		}
		_, err := gs.Delete(ctx, id)
		return err
	})
	if err != nil {
		h.ErrLog.Internal(w, "groups: delete", err)
		return
	}

	h.Log.Info("group deleted",
		zap.String("group_id", id),
		zap.String("owner_id", u.ID))
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// requireOwner loads the group and enforces the owner gate, writing the
// error response itself. The returned error only signals "already
// handled" to the caller.
func (h *Handler) requireOwner(ctx context.Context, w http.ResponseWriter, gs *groupstore.Store, groupID, userID string) (models.Group, error) {
	g, err := gs.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "group not found")
			return g, err
		}
		h.ErrLog.Internal(w, "groups: load", err)
		return g, err
	}
	if g.OwnerID != userID {
		apierrors.Forbidden(w, "only the group owner can do that")
		return g, errHandled
	}
	return g, nil
}

var errHandled = errors.New("response already written")
