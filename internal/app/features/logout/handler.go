// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// HandleLogout handles POST /api/logout. Clearing an already-clear
// session is fine; the endpoint is idempotent.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
