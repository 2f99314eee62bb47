// internal/domain/models/group.go
package models

import "time"

// Group is a join-code circle of users.
//
// NOTE:
//   - MemberIDs is embedded on the group (unlike a join-collection design);
//     groups are small and the feed only needs the ids.
//   - OwnerID must always be present in MemberIDs. The group store enforces
//     this on create and on every membership mutation.
type Group struct {
	ID          string   `bson:"_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	NameCI      string   `bson:"name_ci" json:"name_ci"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	MemberIDs   []string `bson:"member_ids" json:"member_ids"`
	OwnerID     string   `bson:"owner_id" json:"owner_id"`
	JoinCode    string   `bson:"join_code" json:"join_code"` // 6 chars, restricted alphabet

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsMember reports whether userID belongs to the group.
func (g Group) IsMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
