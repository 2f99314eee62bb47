// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBadType = errors.New("unknown notification type")

// listLimit bounds how many notifications one page returns.
const listLimit = 50

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create writes a notification addressed to userID.
func (s *Store) Create(ctx context.Context, userID string, typ models.NotificationType, message, relatedID, relatedType, fromUserID string) (models.Notification, error) {
	if !typ.IsValid() {
		return models.Notification{}, ErrBadType
	}
	n := models.Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        typ,
		Message:     message,
		RelatedID:   relatedID,
		RelatedType: relatedType,
		FromUserID:  fromUserID,
		Read:        false,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListForUser returns the newest notifications for userID, capped at
// listLimit.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(listLimit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ns []models.Notification
	if err := cur.All(ctx, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// UnreadCount reports how many unread notifications userID has.
func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead flags one notification as read. The user filter keeps a user
// from marking someone else's notification.
func (s *Store) MarkRead(ctx context.Context, id, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead flags every unread notification for userID as read.
func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes one notification owned by userID.
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// NotifyNewGroupEvent fans a new-event notification out to every group
// member except the creator. Failures on individual inserts are returned
// but do not block earlier inserts.
func (s *Store) NotifyNewGroupEvent(ctx context.Context, e models.Event, g models.Group, creatorName string) error {
	msg := fmt.Sprintf("%s created %q in %s", creatorName, e.Title, g.Name)
	for _, memberID := range g.MemberIDs {
		if memberID == e.CreatorID {
			continue
		}
		if _, err := s.Create(ctx, memberID, models.NotifyNewEvent, msg, e.ID, "event", e.CreatorID); err != nil {
			return err
		}
	}
	return nil
}

// NotifyNewComment tells an event's creator about a comment on their
// event. Self-comments are skipped.
func (s *Store) NotifyNewComment(ctx context.Context, e models.Event, c models.Comment) error {
	if c.AuthorID == e.CreatorID {
		return nil
	}
	msg := fmt.Sprintf("%s commented on %q", c.AuthorName, e.Title)
	_, err := s.Create(ctx, e.CreatorID, models.NotifyNewComment, msg, e.ID, "event", c.AuthorID)
	return err
}

// NotifyRSVP tells an event's creator about an RSVP change. Creator RSVPs
// on their own event are skipped.
func (s *Store) NotifyRSVP(ctx context.Context, e models.Event, r models.RSVP) error {
	if r.UserID == e.CreatorID {
		return nil
	}
	var verb string
	switch r.Status {
	case models.RSVPGoing:
		verb = "is going to"
	case models.RSVPMaybe:
		verb = "might go to"
	default:
		verb = "declined"
	}
	msg := fmt.Sprintf("%s %s %q", r.UserName, verb, e.Title)
	_, err := s.Create(ctx, e.CreatorID, models.NotifyRSVPUpdate, msg, e.ID, "event", r.UserID)
	return err
}
