// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dispoapp/dispo/internal/app/system/phone"
	"github.com/dispoapp/dispo/internal/app/system/sanitize"
	"github.com/dispoapp/dispo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrInvalidPhone is returned when the claimed phone number has no
	// usable digits.
	ErrInvalidPhone = errors.New("phone number must contain 7-15 digits")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by id (phone digits).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login creates the user for the claimed phone number, or returns the
// existing one. The id is the normalized digits; no verification happens
// anywhere, whoever claims a number gets its account. The bool reports
// whether the account was created by this call.
func (s *Store) Login(ctx context.Context, phoneNumber, fullName string) (*models.User, bool, error) {
	if !phone.Valid(phoneNumber) {
		return nil, false, ErrInvalidPhone
	}
	id := phone.Normalize(phoneNumber)

	if u, err := s.GetByID(ctx, id); err == nil {
		return u, false, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	fullName = sanitize.Text(fullName)
	username := defaultUsername(fullName, id)
	now := time.Now().UTC()
	u := models.User{
		ID:         id,
		Username:   username,
		UsernameCI: text.Fold(username),
		FullName:   fullName,
		Phone:      id,
		GroupIDs:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			// Lost a race with another login for the same number; the
			// existing document wins.
			existing, err := s.GetByID(ctx, id)
			return existing, false, err
		}
		return nil, false, err
	}
	return &u, true, nil
}

// ProfileUpdate holds the fields a user may change about themselves.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Username      *string
	FullName      *string
	Bio           *string
	ProfilePicURL *string
}

// UpdateProfile applies upd to the user's document.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Username != nil {
		username := sanitize.Text(*upd.Username)
		set["username"] = username
		set["username_ci"] = text.Fold(username)
	}
	if upd.FullName != nil {
		set["full_name"] = sanitize.Text(*upd.FullName)
	}
	if upd.Bio != nil {
		set["bio"] = sanitize.Text(*upd.Bio)
	}
	if upd.ProfilePicURL != nil {
		set["profile_pic_url"] = strings.TrimSpace(*upd.ProfilePicURL)
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

// SearchByUsernamePrefix returns up to limit users whose folded username
// starts with q. This is the range-via-prefix search the client's user
// picker uses.
func (s *Store) SearchByUsernamePrefix(ctx context.Context, q string, limit int64) ([]models.User, error) {
	prefix := text.Fold(strings.TrimSpace(q))
	if prefix == "" {
		return nil, nil
	}
	// [prefix, prefix+U+FFFF) covers every folded username with the prefix.
	filter := bson.M{"username_ci": bson.M{
		"$gte": prefix,
		"$lt":  prefix + "￿",
	}}
	opts := options.Find().SetSort(bson.D{{Key: "username_ci", Value: 1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddGroup records a group on the user's denormalized group list.
func (s *Store) AddGroup(ctx context.Context, userID, groupID string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"group_ids": groupID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveGroup removes a group from the user's denormalized group list.
func (s *Store) RemoveGroup(ctx context.Context, userID, groupID string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"group_ids": groupID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveGroupFromAll strips groupID from every user that carries it.
// Used by the group delete cascade.
func (s *Store) RemoveGroupFromAll(ctx context.Context, groupID string) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"group_ids": groupID},
		bson.M{
			"$pull": bson.M{"group_ids": groupID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// defaultUsername mirrors the client's fallback: full name lowered with
// underscores, or the phone id when there is no name.
func defaultUsername(fullName, id string) string {
	name := strings.ToLower(strings.TrimSpace(fullName))
	if name == "" {
		return id
	}
	return strings.Join(strings.Fields(name), "_")
}
