// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique indexes double as write gates: join codes, invite codes, and
one-RSVP-per-user are all enforced here rather than by ad hoc reads.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureUsers(ctx, db, logger); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureGroups(ctx, db, logger); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureEvents(ctx, db, logger); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureComments(ctx, db, logger); err != nil {
		problems = append(problems, "comments: "+err.Error())
	}
	if err := ensureRSVPs(ctx, db, logger); err != nil {
		problems = append(problems, "rsvps: "+err.Error())
	}
	if err := ensurePhotos(ctx, db, logger); err != nil {
		problems = append(problems, "photos: "+err.Error())
	}
	if err := ensureNotifications(ctx, db, logger); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("users"), []mongo.IndexModel{
		// username_ci supports the prefix search on /api/users?q=
		{Keys: bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("username_ci_1")},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("groups"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "join_code", Value: 1}},
			Options: options.Index().SetName("join_code_unique").SetUnique(true)},
		{Keys: bson.D{{Key: "member_ids", Value: 1}},
			Options: options.Index().SetName("member_ids_1")},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("events"), []mongo.IndexModel{
		// One index per feed clause, each ordered by event_date so the
		// clause queries read in emit order.
		{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "event_date", Value: 1}},
			Options: options.Index().SetName("visibility_event_date")},
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "event_date", Value: 1}},
			Options: options.Index().SetName("creator_event_date")},
		{Keys: bson.D{{Key: "invited_user_ids", Value: 1}, {Key: "event_date", Value: 1}},
			Options: options.Index().SetName("invited_event_date")},
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "event_date", Value: 1}},
			Options: options.Index().SetName("group_event_date")},
		{Keys: bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetName("invite_code_unique").SetUnique(true)},
	})
}

func ensureComments(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("comments"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("event_created_at")},
	})
}

func ensureRSVPs(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("rsvps"), []mongo.IndexModel{
		// The one-reply-per-user-per-event rule.
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("event_user_unique").SetUnique(true)},
		// Supports "events I'm going to" across all events.
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("user_status")},
	})
}

func ensurePhotos(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("photos"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("event_created_at")},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, logger, db.Collection("notifications"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_at_desc")},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av, bv := false, false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// ensureIndexSet brings the collection's indexes in line with the desired
// models: reuse when the key pattern and uniqueness already match, drop and
// recreate when options differ (e.g. upgrading to unique).
func ensureIndexSet(ctx context.Context, logger *zap.Logger, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				logger.Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range desired {
		var wantUnique *bool
		name := ""
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			wantUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(wantUnique, ex.Unique) {
				logger.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("keys", sig))
				continue
			}
			// Options mismatch: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): create failed: %v", coll.Name(), name, err))
			continue
		}
		logger.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", wantUnique != nil && *wantUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
