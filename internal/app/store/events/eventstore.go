// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dispoapp/dispo/internal/app/system/codes"
	"github.com/dispoapp/dispo/internal/app/system/sanitize"
	"github.com/dispoapp/dispo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Per-clause result caps, matching the feed's fixed-limit pagination.
const (
	ClauseLimit      = 50 // public / created-by / invited clauses
	GroupClauseLimit = 20 // each per-group clause
)

type Store struct {
	c      *mongo.Collection
	groups *mongo.Collection // read-only, for the group-visibility gate
}

var (
	// ErrTitleRequired is returned when an event is created without a title.
	ErrTitleRequired = errors.New("event title is required")
	// ErrDateRequired is returned when an event has no date.
	ErrDateRequired = errors.New("event date is required")
	// ErrBadVisibility is returned for unknown visibility values.
	ErrBadVisibility = errors.New(`visibility must be "public"|"group"|"private"|"friends"`)
	// ErrGroupRequired guards group-visibility events: the referenced
	// group must exist and the creator must belong to it.
	ErrGroupRequired = errors.New("group events require an existing group the creator belongs to")
	// ErrCodeExhausted is returned when invite-code generation keeps
	// colliding.
	ErrCodeExhausted = errors.New("could not allocate a unique invite code")
)

const codeAttempts = 5

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("events"),
		groups: db.Collection("groups"),
	}
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByIDs loads the events with the given ids, ordered by date. Ids
// with no matching document are skipped; the event may have been
// deleted after the caller recorded its id.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	return s.query(ctx, bson.M{"_id": bson.M{"$in": ids}}, int64(len(ids)))
}

// Create validates and inserts a new event. The write gate lives here:
// title and date are required, visibility must be known, and a group
// event must reference an existing group the creator belongs to; the
// checks the original client scattered (or skipped) are centralized.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.Title = sanitize.Text(e.Title)
	if e.Title == "" {
		return models.Event{}, ErrTitleRequired
	}
	if e.EventDate.IsZero() {
		return models.Event{}, ErrDateRequired
	}
	if !e.Visibility.IsValid() {
		return models.Event{}, ErrBadVisibility
	}
	e.Description = sanitize.Text(e.Description)
	e.Location = sanitize.Text(e.Location)

	if e.Visibility == models.VisibilityGroup {
		n, err := s.groups.CountDocuments(ctx, bson.M{"_id": e.GroupID, "member_ids": e.CreatorID})
		if err != nil {
			return models.Event{}, err
		}
		if n == 0 {
			return models.Event{}, ErrGroupRequired
		}
	} else {
		e.GroupID = ""
	}

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatorID = strings.TrimSpace(e.CreatorID)
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.ExcludedUserIDs == nil {
		e.ExcludedUserIDs = []string{}
	}
	if e.InvitedUserIDs == nil {
		e.InvitedUserIDs = []string{}
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		e.InviteCode = codes.NewInviteCode()
		_, err := s.c.InsertOne(ctx, e)
		if err == nil {
			return e, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Event{}, err
		}
	}
	return models.Event{}, ErrCodeExhausted
}

// Update holds the fields an event's creator may change after creation.
// Nil pointers leave the stored value untouched.
type Update struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	Location    *string
}

// UpdateInfo applies upd to the event document.
func (s *Store) UpdateInfo(ctx context.Context, id string, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		title := sanitize.Text(*upd.Title)
		if title == "" {
			return ErrTitleRequired
		}
		set["title"] = title
	}
	if upd.Description != nil {
		set["description"] = sanitize.Text(*upd.Description)
	}
	if upd.EventDate != nil {
		if upd.EventDate.IsZero() {
			return ErrDateRequired
		}
		set["event_date"] = *upd.EventDate
	}
	if upd.Location != nil {
		set["location"] = sanitize.Text(*upd.Location)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetImageURL writes the uploaded image's URL back onto the event.
func (s *Store) SetImageURL(ctx context.Context, id, url string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"image_url": url, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the event document. Subentity cascades (comments, rsvps,
// photos) are orchestrated by the events feature inside txn.Run.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// FindByInviteCode resolves an invite code (case-insensitive) to its
// event. Returns mongo.ErrNoDocuments when no event carries the code.
func (s *Store) FindByInviteCode(ctx context.Context, code string) (models.Event, error) {
	var e models.Event
	err := s.c.FindOne(ctx, bson.M{"invite_code": codes.Normalize(code)}).Decode(&e)
	if err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// JoinByInviteCode adds userID to the event's invited list. Joining twice
// is a no-op.
func (s *Store) JoinByInviteCode(ctx context.Context, eventID, userID string) error {
	res, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$addToSet": bson.M{"invited_user_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Exclude adds userID to the event's denylist.
func (s *Store) Exclude(ctx context.Context, eventID, userID string) error {
	return s.updateList(ctx, eventID, "$addToSet", userID)
}

// Unexclude removes userID from the event's denylist.
func (s *Store) Unexclude(ctx context.Context, eventID, userID string) error {
	return s.updateList(ctx, eventID, "$pull", userID)
}

func (s *Store) updateList(ctx context.Context, eventID, op, userID string) error {
	res, err := s.c.UpdateByID(ctx, eventID, bson.M{
		op:     bson.M{"excluded_user_ids": userID},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* ------------------------------ feed clauses ------------------------------ */

// QueryPublic returns public events ordered by date.
func (s *Store) QueryPublic(ctx context.Context) ([]models.Event, error) {
	return s.query(ctx, bson.M{"visibility": models.VisibilityPublic}, ClauseLimit)
}

// QueryByCreator returns events created by userID.
func (s *Store) QueryByCreator(ctx context.Context, userID string) ([]models.Event, error) {
	return s.query(ctx, bson.M{"creator_id": userID}, ClauseLimit)
}

// QueryInvited returns events whose invited list contains userID.
func (s *Store) QueryInvited(ctx context.Context, userID string) ([]models.Event, error) {
	return s.query(ctx, bson.M{"invited_user_ids": userID}, ClauseLimit)
}

// QueryByGroup returns events attached to groupID.
func (s *Store) QueryByGroup(ctx context.Context, groupID string) ([]models.Event, error) {
	return s.query(ctx, bson.M{"group_id": groupID}, GroupClauseLimit)
}

func (s *Store) query(ctx context.Context, filter bson.M, limit int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "event_date", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
