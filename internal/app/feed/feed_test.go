// internal/app/feed/feed_test.go
package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dispoapp/dispo/internal/domain/models"
	"go.uber.org/zap"
)

// fakeSource lets tests push clause snapshots by hand.
type fakeSource struct {
	clauses   map[string]*fakeClause
	failStart map[string]error
}

type fakeClause struct {
	onData    func([]models.Event)
	onError   func(error)
	cancelled bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		clauses:   make(map[string]*fakeClause),
		failStart: make(map[string]error),
	}
}

func (s *fakeSource) open(name string, onData func([]models.Event), onError func(error)) (func(), error) {
	if err := s.failStart[name]; err != nil {
		return nil, err
	}
	c := &fakeClause{onData: onData, onError: onError}
	s.clauses[name] = c
	return func() { c.cancelled = true }, nil
}

func (s *fakeSource) SubscribePublic(_ context.Context, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.open("public", onData, onError)
}

func (s *fakeSource) SubscribeByCreator(_ context.Context, _ string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.open("creator", onData, onError)
}

func (s *fakeSource) SubscribeInvited(_ context.Context, _ string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.open("invited", onData, onError)
}

func (s *fakeSource) SubscribeByGroup(_ context.Context, groupID string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.open("group:"+groupID, onData, onError)
}

func (s *fakeSource) push(t *testing.T, name string, events ...models.Event) {
	t.Helper()
	c, ok := s.clauses[name]
	if !ok {
		t.Fatalf("no clause %q open", name)
	}
	c.onData(events)
}

func ev(id string, date time.Time, opts ...func(*models.Event)) models.Event {
	e := models.Event{
		ID:         id,
		Title:      "event " + id,
		EventDate:  date,
		CreatorID:  "creator",
		Visibility: models.VisibilityPublic,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func openTestFeed(t *testing.T, src Source, userID string, groupIDs []string, h Handlers) *Feed {
	t.Helper()
	f, err := Open(context.Background(), src, userID, groupIDs, h, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestLoadedAfterAllFirstSnapshots(t *testing.T) {
	src := newFakeSource()

	var loads int
	f := openTestFeed(t, src, "u1", []string{"g1"}, Handlers{
		OnLoaded: func() { loads++ },
	})

	base := time.Now()
	src.push(t, "public", ev("e1", base))
	src.push(t, "creator")
	src.push(t, "invited")
	if f.Loaded() {
		t.Fatal("loaded before group clause delivered")
	}

	src.push(t, "group:g1")
	if !f.Loaded() {
		t.Fatal("not loaded after all first snapshots")
	}
	if loads != 1 {
		t.Fatalf("OnLoaded fired %d times, want 1", loads)
	}

	// Later snapshots must not re-fire loaded.
	src.push(t, "public", ev("e2", base))
	if loads != 1 {
		t.Fatalf("OnLoaded re-fired, count %d", loads)
	}
}

func TestZeroGroupUserOpensThreeClauses(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "u1", nil, Handlers{})

	if len(src.clauses) != 3 {
		t.Fatalf("opened %d clauses, want 3", len(src.clauses))
	}
	src.push(t, "public")
	src.push(t, "creator")
	src.push(t, "invited")
	if !f.Loaded() {
		t.Fatal("zero-group feed not loaded after 3 snapshots")
	}
}

func TestGroupClausesCapped(t *testing.T) {
	src := newFakeSource()
	groups := make([]string, MaxGroups+5)
	for i := range groups {
		groups[i] = "g" + string(rune('a'+i))
	}
	openTestFeed(t, src, "u1", groups, Handlers{})

	if len(src.clauses) != 3+MaxGroups {
		t.Fatalf("opened %d clauses, want %d", len(src.clauses), 3+MaxGroups)
	}
}

func TestMergeDeduplicates(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "u1", []string{"g1"}, Handlers{})

	e := ev("e1", time.Now())
	src.push(t, "public", e)
	src.push(t, "creator", e)
	src.push(t, "invited")
	src.push(t, "group:g1", e)

	got := f.Events()
	if len(got) != 1 {
		t.Fatalf("event in 3 clauses appears %d times, want 1", len(got))
	}
}

func TestSortedByDateRegardlessOfArrival(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "u1", nil, Handlers{})

	base := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	late := ev("late", base.Add(48*time.Hour))
	early := ev("early", base)
	mid := ev("mid", base.Add(24*time.Hour))

	src.push(t, "public", late)
	src.push(t, "creator", early)
	src.push(t, "invited", mid)

	got := f.Events()
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	want := []string{"early", "mid", "late"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d is %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestExcludedUserNeverSeesEvent(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "victim", nil, Handlers{})

	hidden := ev("hidden", time.Now(), func(e *models.Event) {
		e.ExcludedUserIDs = []string{"victim"}
	})
	shown := ev("shown", time.Now())

	src.push(t, "public", hidden, shown)

	got := f.Events()
	if len(got) != 1 || got[0].ID != "shown" {
		t.Fatalf("excluded event leaked: %+v", got)
	}
}

func TestCreatorSeesOwnEventDespiteExclusion(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "creator", nil, Handlers{})

	own := ev("own", time.Now(), func(e *models.Event) {
		e.ExcludedUserIDs = []string{"creator"}
	})
	src.push(t, "creator", own)

	got := f.Events()
	if len(got) != 1 || got[0].ID != "own" {
		t.Fatal("creator lost their own event to the denylist")
	}
}

func TestExclusionAppliesToAlreadyMergedEvent(t *testing.T) {
	src := newFakeSource()

	var snapshots [][]models.Event
	f := openTestFeed(t, src, "victim", nil, Handlers{
		OnSnapshot: func(events []models.Event) { snapshots = append(snapshots, events) },
	})

	e := ev("e1", time.Now())
	src.push(t, "public", e)
	if got := f.Events(); len(got) != 1 {
		t.Fatalf("event not visible before exclusion: %d", len(got))
	}

	e.ExcludedUserIDs = []string{"victim"}
	src.push(t, "public", e)
	if got := f.Events(); len(got) != 0 {
		t.Fatalf("event still visible after exclusion: %d", len(got))
	}

	last := snapshots[len(snapshots)-1]
	if len(last) != 0 {
		t.Fatal("pushed snapshot still contains the excluded event")
	}
}

func TestUpsertOnlyMergeKeepsStaleEvents(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "u1", nil, Handlers{})

	e := ev("e1", time.Now())
	src.push(t, "public", e)
	// The event no longer matches the clause; the merge never evicts.
	src.push(t, "public")

	if got := f.Events(); len(got) != 1 {
		t.Fatalf("merged event evicted by an empty snapshot: %d", len(got))
	}
}

func TestCloseCancelsAllClauses(t *testing.T) {
	src := newFakeSource()
	f := openTestFeed(t, src, "u1", []string{"g1", "g2"}, Handlers{})

	f.Close()
	for name, c := range src.clauses {
		if !c.cancelled {
			t.Fatalf("clause %q not cancelled on Close", name)
		}
	}

	// Late snapshots after Close are ignored.
	src.push(t, "public", ev("e1", time.Now()))
	if got := f.Events(); len(got) != 0 {
		t.Fatal("snapshot absorbed after Close")
	}
}

func TestOpenRollsBackOnStartFailure(t *testing.T) {
	src := newFakeSource()
	src.failStart["invited"] = errors.New("watch refused")

	_, err := Open(context.Background(), src, "u1", nil, Handlers{}, zap.NewNop())
	if err == nil {
		t.Fatal("Open succeeded with a failing clause")
	}
	for name, c := range src.clauses {
		if !c.cancelled {
			t.Fatalf("clause %q left running after failed Open", name)
		}
	}
}

func TestClauseErrorReportedOnce(t *testing.T) {
	src := newFakeSource()

	var errs []error
	openTestFeed(t, src, "u1", nil, Handlers{
		OnError: func(err error) { errs = append(errs, err) },
	})

	src.clauses["public"].onError(errors.New("stream broken"))
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}

	// Other clauses keep feeding the merge.
	src.push(t, "creator", ev("e1", time.Now()))
}

func TestMergeClausesOneShot(t *testing.T) {
	base := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	shared := ev("shared", base.Add(time.Hour))
	hidden := ev("hidden", base, func(e *models.Event) {
		e.ExcludedUserIDs = []string{"u1"}
	})
	mine := ev("mine", base.Add(2*time.Hour), func(e *models.Event) {
		e.CreatorID = "u1"
	})

	got := MergeClauses("u1",
		[]models.Event{shared, hidden},
		[]models.Event{shared, mine},
	)

	want := []string{"shared", "mine"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d is %q, want %q", i, got[i].ID, id)
		}
	}
}
