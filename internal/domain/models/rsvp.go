// internal/domain/models/rsvp.go
package models

import "time"

// RSVPStatus is a user's reply to an event.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPDeclined RSVPStatus = "declined"
)

// IsValid reports whether s is one of the known RSVP statuses.
func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPDeclined:
		return true
	}
	return false
}

// RSVP records one user's reply to one event. A unique index on
// (event_id, user_id) keeps it to one reply per user; SetRSVP upserts
// against that pair.
type RSVP struct {
	ID        string     `bson:"_id" json:"id"`
	EventID   string     `bson:"event_id" json:"event_id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	UserName  string     `bson:"user_name" json:"user_name"`
	Status    RSVPStatus `bson:"status" json:"status"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
