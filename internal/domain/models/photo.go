// internal/domain/models/photo.go
package models

import "time"

// Photo is an image a user attached to an event.
type Photo struct {
	ID           string    `bson:"_id" json:"id"`
	EventID      string    `bson:"event_id" json:"event_id"`
	UploaderID   string    `bson:"uploader_id" json:"uploader_id"`
	UploaderName string    `bson:"uploader_name" json:"uploader_name"`
	ImageURL     string    `bson:"image_url" json:"image_url"`
	Caption      string    `bson:"caption,omitempty" json:"caption,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
