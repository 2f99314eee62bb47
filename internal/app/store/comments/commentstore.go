// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dispoapp/dispo/internal/app/system/sanitize"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrTextRequired is returned when a comment has no text after
// sanitization.
var ErrTextRequired = errors.New("comment text is required")

// listLimit caps one-shot comment reads, like the client's fixed limit.
const listLimit = 100

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// Add inserts a comment on an event.
func (s *Store) Add(ctx context.Context, eventID, authorID, authorName, body string) (models.Comment, error) {
	body = sanitize.Text(body)
	if body == "" {
		return models.Comment{}, ErrTextRequired
	}
	c := models.Comment{
		ID:         uuid.NewString(),
		EventID:    eventID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// GetByID loads one comment. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListByEvent returns an event's comments oldest-first.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.Comment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(listLimit)
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateText replaces a comment's text.
func (s *Store) UpdateText(ctx context.Context, id, body string) error {
	body = sanitize.Text(body)
	if body == "" {
		return ErrTextRequired
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"text": body}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes one comment.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByEvent removes every comment on eventID (event delete cascade).
func (s *Store) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByEvent returns the number of comments on an event.
func (s *Store) CountByEvent(ctx context.Context, eventID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID})
}
