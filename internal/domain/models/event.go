// internal/domain/models/event.go
package models

import "time"

// Visibility is an event's access class.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"  // everyone
	VisibilityGroup   Visibility = "group"   // members of GroupID
	VisibilityPrivate Visibility = "private" // creator only
	VisibilityFriends Visibility = "friends" // reserved; behaves like private
)

// IsValid reports whether v is one of the known visibility values.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityGroup, VisibilityPrivate, VisibilityFriends:
		return true
	}
	return false
}

// Event is a social event document.
//
// NOTE:
//   - ExcludedUserIDs is a per-event denylist: users listed here never see
//     the event in their feed even when it would otherwise be visible.
//   - InvitedUserIDs holds users who joined via the invite code; they see
//     the event regardless of visibility.
//   - GroupID may dangle after a group is deleted. The event then simply
//     stops matching any per-group feed clause.
type Event struct {
	ID              string     `bson:"_id" json:"id"`
	Title           string     `bson:"title" json:"title"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	EventDate       time.Time  `bson:"event_date" json:"event_date"`
	CreatorID       string     `bson:"creator_id" json:"creator_id"`
	Visibility      Visibility `bson:"visibility" json:"visibility"`
	GroupID         string     `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Location        string     `bson:"location,omitempty" json:"location,omitempty"`
	ImageURL        string     `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ExcludedUserIDs []string   `bson:"excluded_user_ids,omitempty" json:"excluded_user_ids,omitempty"`
	InvitedUserIDs  []string   `bson:"invited_user_ids,omitempty" json:"invited_user_ids,omitempty"`
	InviteCode      string     `bson:"invite_code" json:"invite_code"` // "EVT-" + 4 chars

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Excludes reports whether userID is on the event's denylist.
func (e Event) Excludes(userID string) bool {
	for _, id := range e.ExcludedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Invited reports whether userID joined the event via its invite code.
func (e Event) Invited(userID string) bool {
	for _, id := range e.InvitedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
