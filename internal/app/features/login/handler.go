// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	userstore "github.com/dispoapp/dispo/internal/app/store/users"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler signs users in by phone number. There is no password and no
// verification step; the claimed number is trusted and a missing account
// is created on the spot.
type Handler struct {
	DB         *mongo.Database
	SessionMgr *auth.SessionManager
	ErrLog     *apierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, SessionMgr: sessionMgr, ErrLog: errLog, Log: logger}
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
}

// HandleLogin handles POST /api/login.
//
// Body: {"phone_number":"...", "full_name":"..."}. Returns the user
// document, 200 for an existing account and 201 for a new one claimed
// by this phone number.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	us := userstore.New(h.DB)
	u, created, err := us.Login(ctx, req.PhoneNumber, req.FullName)
	if err != nil {
		if errors.Is(err, userstore.ErrInvalidPhone) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.Internal(w, "login", err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{ID: u.ID, Name: u.FullName}); err != nil {
		h.ErrLog.Internal(w, "login: session save", err)
		return
	}

	h.Log.Info("user signed in",
		zap.String("user_id", u.ID),
		zap.Bool("created", created))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	apierrors.JSON(w, status, u)
}
