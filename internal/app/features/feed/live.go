// internal/app/features/feed/live.go
package feed

import (
	"net/http"

	"github.com/dispoapp/dispo/internal/app/feed"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The client is a mobile app, not a browser; origin checks do not
	// apply. Auth is the session cookie, checked before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveMessage is one frame on the live feed socket.
type liveMessage struct {
	Type   string         `json:"type"` // snapshot | loaded | error
	Events []models.Event `json:"events,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ServeLive handles GET /api/feed/live: upgrades to a websocket and
// streams the recomputed feed after every change. The first frames are
// one snapshot per clause followed by {"type":"loaded"}; after that, a
// snapshot frame per change notification. The socket closing tears the
// clause subscriptions down.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	groups, err := h.groupIDs(r.Context(), u.ID)
	if err != nil {
		h.ErrLog.Internal(w, "feed: load memberships", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Warn("feed: websocket upgrade failed", zap.Error(err))
		return
	}

	log := h.Log.With(zap.String("user_id", u.ID))

	// Handlers run serialized on subscription goroutines, so writing to
	// the socket from them is safe.
	send := func(m liveMessage) {
		if err := conn.WriteJSON(m); err != nil {
			log.Debug("feed: socket write failed", zap.Error(err))
			_ = conn.Close()
		}
	}

	f, err := feed.Open(r.Context(), eventstore.New(h.DB), u.ID, groups, feed.Handlers{
		OnSnapshot: func(events []models.Event) {
			send(liveMessage{Type: "snapshot", Events: events})
		},
		OnLoaded: func() {
			send(liveMessage{Type: "loaded"})
		},
		OnError: func(err error) {
			send(liveMessage{Type: "error", Error: "a feed clause stopped; reconnect to resume"})
		},
	}, log)
	if err != nil {
		log.Error("feed: open failed", zap.Error(err))
		_ = conn.WriteJSON(liveMessage{Type: "error", Error: "could not open feed"})
		_ = conn.Close()
		return
	}
	defer f.Close()

	log.Info("live feed opened", zap.Int("groups", len(groups)))

	// The client never sends application frames; read until the socket
	// drops so close/error from the peer unblocks us.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	log.Info("live feed closed")
}
