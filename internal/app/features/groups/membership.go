// internal/app/features/groups/membership.go
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
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeMine handles GET /api/groups: the caller's groups, name order.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gs, err := groupstore.New(h.DB).ListByMember(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "groups: list mine", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, gs)
}

type joinBody struct {
	JoinCode string `json:"join_code"`
}

// HandleJoin handles POST /api/groups/join. Looks the group up by join
// code; joining a group you are already in succeeds quietly.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if body.JoinCode == "" {
		apierrors.BadRequest(w, "join_code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs := groupstore.New(h.DB)
	g, err := gs.FindByJoinCode(ctx, body.JoinCode)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "no group with that join code")
			return
		}
		h.ErrLog.Internal(w, "groups: join code lookup", err)
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := gs.AddMember(ctx, g.ID, u.ID); err != nil {
			return err
		}
		return userstore.New(h.DB).AddGroup(ctx, u.ID, g.ID)
	})
	if err != nil {
		h.ErrLog.Internal(w, "groups: join", err)
		return
	}

	h.Log.Info("group joined",
		zap.String("group_id", g.ID),
		zap.String("user_id", u.ID))

	g, err = gs.GetByID(ctx, g.ID)
	if err != nil {
		h.ErrLog.Internal(w, "groups: reload after join", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, g)
}

// HandleLeave handles POST /api/groups/{id}/leave. An owner cannot
// leave; they transfer ownership or delete the group instead.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")
	h.removeMembership(w, r, id, u.ID, u.ID)
}

// HandleRemoveMember handles DELETE /api/groups/{id}/members/{userID}.
// Owner-only, and the owner cannot remove themselves.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")
	target := chi.URLParam(r, "userID")
	h.removeMembership(w, r, id, target, u.ID)
}

func (h *Handler) removeMembership(w http.ResponseWriter, r *http.Request, groupID, targetID, actorID string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs := groupstore.New(h.DB)
	g, err := gs.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "group not found")
			return
		}
		h.ErrLog.Internal(w, "groups: load", err)
		return
	}
	if targetID != actorID && g.OwnerID != actorID {
		apierrors.Forbidden(w, "only the group owner can remove members")
		return
	}
	if !g.IsMember(targetID) {
		apierrors.NotFound(w, "user is not a member of this group")
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := gs.RemoveMember(ctx, groupID, targetID); err != nil {
			return err
		}
		return userstore.New(h.DB).RemoveGroup(ctx, targetID, groupID)
	})
	if err != nil {
		if errors.Is(err, groupstore.ErrOwnerMustBeMember) {
			apierrors.Conflict(w, "the owner cannot leave; transfer ownership or delete the group")
			return
		}
		h.ErrLog.Internal(w, "groups: remove member", err)
		return
	}

	h.Log.Info("group membership removed",
		zap.String("group_id", groupID),
		zap.String("user_id", targetID),
		zap.String("actor_id", actorID))
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type transferBody struct {
	NewOwnerID string `json:"new_owner_id"`
}

// HandleTransfer handles POST /api/groups/{id}/transfer. Owner-only; the
// new owner must already be a member.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	var body transferBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if body.NewOwnerID == "" {
		apierrors.BadRequest(w, "new_owner_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs := groupstore.New(h.DB)
	if _, err := h.requireOwner(ctx, w, gs, id, u.ID); err != nil {
		return
	}

	if err := gs.TransferOwnership(ctx, id, body.NewOwnerID); err != nil {
		switch {
		case errors.Is(err, groupstore.ErrOwnerMustBeMember):
			apierrors.Conflict(w, "new owner must be a member of the group")
		case err == mongo.ErrNoDocuments:
			apierrors.NotFound(w, "group not found")
		default:
			h.ErrLog.Internal(w, "groups: transfer ownership", err)
		}
		return
	}

	h.Log.Info("group ownership transferred",
		zap.String("group_id", id),
		zap.String("from", u.ID),
		zap.String("to", body.NewOwnerID))

	g, err := gs.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, "groups: reload after transfer", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, g)
}

// HandleRegenerateCode handles POST /api/groups/{id}/joincode. Owner
// only. The old code stops working immediately.
func (h *Handler) HandleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs := groupstore.New(h.DB)
	if _, err := h.requireOwner(ctx, w, gs, id, u.ID); err != nil {
		return
	}

	code, err := gs.RegenerateJoinCode(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, "groups: regenerate join code", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"join_code": code})
}
