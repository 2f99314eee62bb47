// internal/app/store/photos/photostore.go
package photostore

import (
	"context"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("photos")}
}

// Add records a photo attached to an event. The blob itself is already in
// blob storage; imageURL points at it.
func (s *Store) Add(ctx context.Context, eventID, uploaderID, uploaderName, imageURL, caption string) (models.Photo, error) {
	p := models.Photo{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UploaderID:   uploaderID,
		UploaderName: uploaderName,
		ImageURL:     imageURL,
		Caption:      sanitize.Text(caption),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Photo{}, err
	}
	return p, nil
}

// ListByEvent returns an event's photos oldest-first.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var photos []models.Photo
	if err := cur.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// DeleteByEvent removes every photo record for eventID (event delete
// cascade). Blob cleanup is the caller's job.
func (s *Store) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
