// internal/app/features/feed/handler.go
package feed

import (
	"context"
	"net/http"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	"github.com/dispoapp/dispo/internal/app/feed"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	userstore "github.com/dispoapp/dispo/internal/app/store/users"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/dispoapp/dispo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the composed event feed, both as a one-shot snapshot
// and as a live websocket stream.
type Handler struct {
	DB     *mongo.Database
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Log: logger}
}

// groupIDs returns the caller's group memberships for clause setup.
func (h *Handler) groupIDs(ctx context.Context, userID string) ([]string, error) {
	u, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return u.GroupIDs, nil
}

// ServeFeed handles GET /api/feed: one merged, filtered, date-ordered
// snapshot built from the same clauses the live feed subscribes to.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.groupIDs(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "feed: load memberships", err)
		return
	}
	if len(groups) > feed.MaxGroups {
		groups = groups[:feed.MaxGroups]
	}

	es := eventstore.New(h.DB)
	clauses := make([][]models.Event, 0, 3+len(groups))

	public, err := es.QueryPublic(ctx)
	if err != nil {
		h.ErrLog.Internal(w, "feed: public clause", err)
		return
	}
	clauses = append(clauses, public)

	mine, err := es.QueryByCreator(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "feed: creator clause", err)
		return
	}
	clauses = append(clauses, mine)

	invited, err := es.QueryInvited(ctx, u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "feed: invited clause", err)
		return
	}
	clauses = append(clauses, invited)

	for _, gid := range groups {
		ge, err := es.QueryByGroup(ctx, gid)
		if err != nil {
			h.ErrLog.Internal(w, "feed: group clause", err)
			return
		}
		clauses = append(clauses, ge)
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"events": feed.MergeClauses(u.ID, clauses...),
	})
}
