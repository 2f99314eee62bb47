// internal/domain/models/user.go
package models

import "time"

// User represents a Dispo account.
//
// NOTE:
//   - The document id is the user's phone number reduced to bare digits.
//     There is no verification step; whoever claims a phone number owns
//     the matching account. This is a known product decision, not an
//     oversight.
//   - GroupIDs is denormalized onto the user so the feed can open its
//     per-group clauses without a join. The groups collection remains the
//     authoritative membership record.
type User struct {
	ID            string   `bson:"_id" json:"id"`
	Username      string   `bson:"username" json:"username"`
	UsernameCI    string   `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	FullName      string   `bson:"full_name" json:"full_name"`
	Phone         string   `bson:"phone" json:"phone"`
	Bio           string   `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfilePicURL string   `bson:"profile_pic_url,omitempty" json:"profile_pic_url,omitempty"`
	GroupIDs      []string `bson:"group_ids" json:"group_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
