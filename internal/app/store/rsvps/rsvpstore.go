// internal/app/store/rsvps/rsvpstore.go
package rsvpstore

import (
	"context"
	"errors"
	"time"

	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrBadStatus is returned for unknown RSVP statuses.
var ErrBadStatus = errors.New(`rsvp status must be "going"|"maybe"|"declined"`)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("rsvps")}
}

// Set records or replaces the user's reply to an event. The upsert against
// the (event_id, user_id) unique index is the one-reply-per-user rule.
func (s *Store) Set(ctx context.Context, eventID, userID, userName string, status models.RSVPStatus) (models.RSVP, error) {
	if !status.IsValid() {
		return models.RSVP{}, ErrBadStatus
	}

	now := time.Now().UTC()
	filter := bson.M{"event_id": eventID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"user_name":  userName,
			"status":     status,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":      uuid.NewString(),
			"event_id": eventID,
			"user_id":  userID,
		},
	}
	after := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var r models.RSVP
	if err := s.c.FindOneAndUpdate(ctx, filter, update, after).Decode(&r); err != nil {
		return models.RSVP{}, err
	}
	return r, nil
}

// Get returns the user's reply to an event.
// Returns mongo.ErrNoDocuments when the user has not replied.
func (s *Store) Get(ctx context.Context, eventID, userID string) (models.RSVP, error) {
	var r models.RSVP
	err := s.c.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&r)
	if err != nil {
		return models.RSVP{}, err
	}
	return r, nil
}

// Remove withdraws the user's reply. Removing a missing reply is a no-op.
func (s *Store) Remove(ctx context.Context, eventID, userID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"event_id": eventID, "user_id": userID})
	return err
}

// ListByEvent returns an event's replies, most recent first.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.RSVP, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rsvps []models.RSVP
	if err := cur.All(ctx, &rsvps); err != nil {
		return nil, err
	}
	return rsvps, nil
}

// Counts tallies an event's replies by status. Statuses with no replies
// are present with a zero count.
func (s *Store) Counts(ctx context.Context, eventID string) (map[models.RSVPStatus]int64, error) {
	counts := map[models.RSVPStatus]int64{
		models.RSVPGoing:    0,
		models.RSVPMaybe:    0,
		models.RSVPDeclined: 0,
	}

	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eventID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status models.RSVPStatus `bson:"_id"`
		N      int64             `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := counts[row.Status]; ok {
			counts[row.Status] = row.N
		}
	}
	return counts, nil
}

// GoingEventIDs returns the ids of events the user replied "going" to,
// the cross-event query backing the client's calendar view.
func (s *Store) GoingEventIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "status": models.RSVPGoing})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var r models.RSVP
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		ids = append(ids, r.EventID)
	}
	return ids, cur.Err()
}

// DeleteByEvent removes every reply to eventID (event delete cascade).
func (s *Store) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
