// internal/app/features/users/profile.go
package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	userstore "github.com/dispoapp/dispo/internal/app/store/users"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// searchLimit caps username search results per request.
const searchLimit = 20

// ServeMe handles GET /api/users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, u.ID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Session survived an account that no longer exists.
			apierrors.NotFound(w, "account not found")
			return
		}
		h.ErrLog.Internal(w, "users: load me", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, user)
}

// ServeUser handles GET /api/users/{id}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "user not found")
			return
		}
		h.ErrLog.Internal(w, "users: load", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, user)
}

type profilePatch struct {
	Username      *string `json:"username"`
	FullName      *string `json:"full_name"`
	Bio           *string `json:"bio"`
	ProfilePicURL *string `json:"profile_pic_url"`
}

// HandleUpdateMe handles PATCH /api/users/me. Only the fields present in
// the body change; phone number and id are immutable.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var patch profilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		apierrors.BadRequest(w, "username cannot be blank")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	us := userstore.New(h.DB)
	err := us.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		Username:      patch.Username,
		FullName:      patch.FullName,
		Bio:           patch.Bio,
		ProfilePicURL: patch.ProfilePicURL,
	})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "account not found")
			return
		}
		h.ErrLog.Internal(w, "users: update profile", err)
		return
	}

	user, err := us.GetByID(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "users: reload after update", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, user)
}

// ServeSearch handles GET /api/users/search?q=prefix.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		apierrors.BadRequest(w, "q parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := userstore.New(h.DB).SearchByUsernamePrefix(ctx, q, searchLimit)
	if err != nil {
		h.ErrLog.Internal(w, "users: search", err)
		return
	}
	apierrors.JSON(w, http.StatusOK, users)
}
