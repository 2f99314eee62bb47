// internal/domain/models/comment.go
package models

import "time"

// Comment is a user comment on an event. AuthorName is denormalized at
// write time so lists render without a user lookup.
type Comment struct {
	ID         string    `bson:"_id" json:"id"`
	EventID    string    `bson:"event_id" json:"event_id"`
	AuthorID   string    `bson:"author_id" json:"author_id"`
	AuthorName string    `bson:"author_name" json:"author_name"`
	Text       string    `bson:"text" json:"text"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
