// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dispoapp/dispo/internal/app/system/codes"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls chain; an existing route context keeps its earlier params.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user keyed by phone digits.
func (f *Fixtures) CreateUser(ctx context.Context, phone, fullName string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         phone,
		Username:   "user_" + phone,
		UsernameCI: text.Fold("user_" + phone),
		FullName:   fullName,
		Phone:      phone,
		GroupIDs:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateGroup inserts a group owned by ownerID with the given members.
// The owner is added to the member list if absent.
func (f *Fixtures) CreateGroup(ctx context.Context, name, ownerID string, memberIDs ...string) models.Group {
	f.t.Helper()

	members := memberIDs
	hasOwner := false
	for _, id := range members {
		if id == ownerID {
			hasOwner = true
		}
	}
	if !hasOwner {
		members = append([]string{ownerID}, members...)
	}

	now := time.Now().UTC()
	g := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		MemberIDs: members,
		JoinCode:  codes.NewJoinCode(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	for _, id := range members {
		_, err := f.db.Collection("users").UpdateByID(ctx, id,
			bson.M{"$addToSet": bson.M{"group_ids": g.ID}})
		if err != nil {
			f.t.Fatalf("failed to mirror membership: %v", err)
		}
	}
	return g
}

// CreateEvent inserts an event. opts mutate the document before insert.
func (f *Fixtures) CreateEvent(ctx context.Context, title, creatorID string, visibility models.Visibility, opts ...func(*models.Event)) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:              uuid.NewString(),
		Title:           title,
		EventDate:       now.Add(24 * time.Hour),
		CreatorID:       creatorID,
		Visibility:      visibility,
		ExcludedUserIDs: []string{},
		InvitedUserIDs:  []string{},
		InviteCode:      codes.NewInviteCode(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateComment inserts a comment on an event.
func (f *Fixtures) CreateComment(ctx context.Context, eventID, authorID, authorName, body string) models.Comment {
	f.t.Helper()

	c := models.Comment{
		ID:         uuid.NewString(),
		EventID:    eventID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreateRSVP inserts an RSVP for an event.
func (f *Fixtures) CreateRSVP(ctx context.Context, eventID, userID, userName string, status models.RSVPStatus) models.RSVP {
	f.t.Helper()

	r := models.RSVP{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		UserName:  userName,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("rsvps").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test rsvp: %v", err)
	}
	return r
}
