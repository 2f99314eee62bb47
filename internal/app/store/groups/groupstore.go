// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dispoapp/dispo/internal/app/system/codes"
	"github.com/dispoapp/dispo/internal/app/system/sanitize"
	"github.com/dispoapp/dispo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrNameRequired is returned when a group is created without a name.
	ErrNameRequired = errors.New("group name is required")
	// ErrOwnerMustBeMember guards the owner-in-members invariant.
	ErrOwnerMustBeMember = errors.New("group owner must be a member of the group")
	// ErrCodeExhausted is returned when join-code generation keeps
	// colliding (practically unreachable with a 32^6 space).
	ErrCodeExhausted = errors.New("could not allocate a unique join code")
)

// codeAttempts bounds the regenerate-retry loop on join-code collisions.
const codeAttempts = 5

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// GetByID loads a group. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a new group owned by ownerID, who becomes its first
// member. The join code is allocated against the unique index; on the
// (unlikely) collision a fresh code is drawn.
func (s *Store) Create(ctx context.Context, name, description, ownerID string) (models.Group, error) {
	name = sanitize.Text(name)
	if name == "" {
		return models.Group{}, ErrNameRequired
	}

	now := time.Now().UTC()
	g := models.Group{
		ID:          uuid.NewString(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: sanitize.Text(description),
		MemberIDs:   []string{ownerID},
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		g.JoinCode = codes.NewJoinCode()
		_, err := s.c.InsertOne(ctx, g)
		if err == nil {
			return g, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Group{}, err
		}
	}
	return models.Group{}, ErrCodeExhausted
}

// UpdateInfo changes name/description. Empty name keeps the stored one;
// description can be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id, name, description string) error {
	set := bson.M{
		"description": sanitize.Text(description),
		"updated_at":  time.Now().UTC(),
	}
	if name = sanitize.Text(name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a group document. Cascades (member group_ids) are the
// caller's job; see the groups feature.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByMember returns the groups userID belongs to, sorted by name.
func (s *Store) ListByMember(ctx context.Context, userID string) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"member_ids": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// FindByJoinCode resolves a join code (case-insensitive) to its group.
// Returns mongo.ErrNoDocuments when no group carries the code.
func (s *Store) FindByJoinCode(ctx context.Context, code string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"join_code": codes.Normalize(code)}).Decode(&g)
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// AddMember adds userID to the group's member list. Adding an existing
// member is a no-op.
func (s *Store) AddMember(ctx context.Context, groupID, userID string) error {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveMember removes userID from the group. The owner cannot be removed;
// ownership must be transferred first (owner-in-members is a hard
// invariant here, unlike the original client).
func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return ErrOwnerMustBeMember
	}
	_, err = s.c.UpdateByID(ctx, groupID, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// TransferOwnership makes newOwnerID the owner. The new owner must already
// be a member.
func (s *Store) TransferOwnership(ctx context.Context, groupID, newOwnerID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": groupID, "member_ids": newOwnerID},
		bson.M{"$set": bson.M{"owner_id": newOwnerID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the group is gone or the candidate is not a member.
		if _, err := s.GetByID(ctx, groupID); err != nil {
			return err
		}
		return ErrOwnerMustBeMember
	}
	return nil
}

// RegenerateJoinCode replaces the group's join code and returns the new
// one. Retries on the unlikely unique-index collision.
func (s *Store) RegenerateJoinCode(ctx context.Context, groupID string) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := codes.NewJoinCode()
		res, err := s.c.UpdateByID(ctx, groupID, bson.M{
			"$set": bson.M{"join_code": code, "updated_at": time.Now().UTC()},
		})
		if err == nil {
			if res.MatchedCount == 0 {
				return "", mongo.ErrNoDocuments
			}
			return code, nil
		}
		if !wafflemongo.IsDup(err) {
			return "", err
		}
	}
	return "", ErrCodeExhausted
}
