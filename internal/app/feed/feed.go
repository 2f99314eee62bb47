// internal/app/feed/feed.go
//
// Live feed composition. A user's feed is the union of several clause
// subscriptions run against the events collection:
//
//   - public events
//   - events the user created
//   - events the user joined by invite code
//   - one clause per group the user belongs to (capped)
//
// Each clause delivers full snapshots. Snapshots are upserted into one
// shared map keyed by event id, last writer wins, so an event matching
// several clauses appears once. After every upsert the visible list is
// recomputed: exclusion-filtered and ordered by event date ascending.
//
// The merge is upsert-only. An event deleted server-side lingers in an
// already-open feed until the feed is reopened; clause snapshots only
// ever add or refresh entries.
package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/dispoapp/dispo/internal/domain/models"
	"go.uber.org/zap"
)

// MaxGroups caps how many per-group clauses one feed opens.
const MaxGroups = 10

// Source provides the clause subscriptions. Each call returns a cancel
// func; onData receives full snapshots, first one immediately.
type Source interface {
	SubscribePublic(ctx context.Context, onData func([]models.Event), onError func(error)) (func(), error)
	SubscribeByCreator(ctx context.Context, userID string, onData func([]models.Event), onError func(error)) (func(), error)
	SubscribeInvited(ctx context.Context, userID string, onData func([]models.Event), onError func(error)) (func(), error)
	SubscribeByGroup(ctx context.Context, groupID string, onData func([]models.Event), onError func(error)) (func(), error)
}

// Handlers receive feed output. OnSnapshot gets the recomputed visible
// list after every upsert. OnLoaded fires once, after every clause has
// delivered its first snapshot. OnError reports a clause failure; the
// failed clause stops, the rest keep streaming. All three are called
// from subscription goroutines, never concurrently with each other.
type Handlers struct {
	OnSnapshot func([]models.Event)
	OnLoaded   func()
	OnError    func(error)
}

// Feed is one user's open live feed.
type Feed struct {
	userID string
	h      Handlers
	log    *zap.Logger

	// emitMu serializes absorb so handlers never run concurrently.
	emitMu sync.Mutex

	mu      sync.Mutex
	events  map[string]models.Event
	pending int
	loaded  bool
	closed  bool
	cancels []func()
}

// Open starts every clause subscription for userID and returns the live
// feed. groupIDs beyond MaxGroups are ignored. If any subscription fails
// to start, the ones already started are cancelled and the error is
// returned.
func Open(ctx context.Context, src Source, userID string, groupIDs []string, h Handlers, log *zap.Logger) (*Feed, error) {
	if len(groupIDs) > MaxGroups {
		log.Warn("feed group clauses capped",
			zap.String("user_id", userID),
			zap.Int("groups", len(groupIDs)),
			zap.Int("cap", MaxGroups))
		groupIDs = groupIDs[:MaxGroups]
	}

	f := &Feed{
		userID:  userID,
		h:       h,
		log:     log,
		events:  make(map[string]models.Event),
		pending: 3 + len(groupIDs),
	}

	type open func(context.Context, func([]models.Event), func(error)) (func(), error)

	opens := []open{
		src.SubscribePublic,
		func(ctx context.Context, onData func([]models.Event), onError func(error)) (func(), error) {
			return src.SubscribeByCreator(ctx, userID, onData, onError)
		},
		func(ctx context.Context, onData func([]models.Event), onError func(error)) (func(), error) {
			return src.SubscribeInvited(ctx, userID, onData, onError)
		},
	}
	for _, gid := range groupIDs {
		gid := gid
		opens = append(opens, func(ctx context.Context, onData func([]models.Event), onError func(error)) (func(), error) {
			return src.SubscribeByGroup(ctx, gid, onData, onError)
		})
	}

	for _, start := range opens {
		first := true // each clause counts toward loaded exactly once
		onData := func(events []models.Event) {
			f.absorb(events, &first)
		}
		cancel, err := start(ctx, onData, f.clauseError)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.cancels = append(f.cancels, cancel)
	}
	return f, nil
}

// absorb merges one clause snapshot and pushes the recomputed list.
func (f *Feed) absorb(events []models.Event, first *bool) {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	for _, e := range events {
		f.events[e.ID] = e
	}
	if *first {
		*first = false
		f.pending--
	}
	justLoaded := !f.loaded && f.pending == 0
	if justLoaded {
		f.loaded = true
	}
	visible := Compose(f.events, f.userID)
	f.mu.Unlock()

	if f.h.OnSnapshot != nil {
		f.h.OnSnapshot(visible)
	}
	if justLoaded && f.h.OnLoaded != nil {
		f.h.OnLoaded()
	}
}

func (f *Feed) clauseError(err error) {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return
	}
	f.log.Warn("feed clause stopped", zap.String("user_id", f.userID), zap.Error(err))
	if f.h.OnError != nil {
		f.h.OnError(err)
	}
}

// Loaded reports whether every clause has delivered its first snapshot.
func (f *Feed) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Events returns the current visible list.
func (f *Feed) Events() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Compose(f.events, f.userID)
}

// Close cancels every clause subscription. Safe to call more than once.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	cancels := f.cancels
	f.cancels = nil
	f.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Visible reports whether userID sees event e in their feed. The clauses
// already scope what arrives here, so the only check left is the
// per-event denylist. Creators always see their own events, excluded
// or not.
func Visible(e models.Event, userID string) bool {
	if e.CreatorID == userID {
		return true
	}
	return !e.Excludes(userID)
}

// Compose filters a merged event set for userID and orders it by event
// date ascending, id as tiebreaker.
func Compose(byID map[string]models.Event, userID string) []models.Event {
	out := make([]models.Event, 0, len(byID))
	for _, e := range byID {
		if Visible(e, userID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MergeClauses builds a one-shot feed from clause query results, with
// the same dedup, filtering and ordering as the live path.
func MergeClauses(userID string, clauses ...[]models.Event) []models.Event {
	byID := make(map[string]models.Event)
	for _, clause := range clauses {
		for _, e := range clause {
			byID[e.ID] = e
		}
	}
	return Compose(byID, userID)
}
