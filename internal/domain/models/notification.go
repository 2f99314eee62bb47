// internal/domain/models/notification.go
package models

import "time"

// NotificationType classifies a notification for client rendering.
type NotificationType string

const (
	NotifyNewEvent      NotificationType = "new_event"
	NotifyNewComment    NotificationType = "new_comment"
	NotifyCommentReply  NotificationType = "comment_reply"
	NotifyGroupInvite   NotificationType = "group_invite"
	NotifyEventReminder NotificationType = "event_reminder"
	NotifyRSVPUpdate    NotificationType = "rsvp_update"
)

// IsValid reports whether t is one of the known notification types.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotifyNewEvent, NotifyNewComment, NotifyCommentReply,
		NotifyGroupInvite, NotifyEventReminder, NotifyRSVPUpdate:
		return true
	}
	return false
}

// Notification is an in-app notification addressed to one user.
// These are documents only; delivery to the device is out of scope.
type Notification struct {
	ID          string           `bson:"_id" json:"id"`
	UserID      string           `bson:"user_id" json:"user_id"` // recipient
	Type        NotificationType `bson:"type" json:"type"`
	Message     string           `bson:"message" json:"message"`
	RelatedID   string           `bson:"related_id,omitempty" json:"related_id,omitempty"`
	RelatedType string           `bson:"related_type,omitempty" json:"related_type,omitempty"` // event | group | comment
	FromUserID  string           `bson:"from_user_id,omitempty" json:"from_user_id,omitempty"`
	Read        bool             `bson:"read" json:"read"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}
