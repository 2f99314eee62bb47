// internal/app/store/events/subscribe.go
package eventstore

import (
	"context"

	"github.com/dispoapp/dispo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// A subscription delivers full snapshots: the clause's current query
// result immediately, then a fresh result after every change to the
// events collection. Re-querying on notification keeps the clause simple
// and always consistent with its index-backed query; the feed's merge map
// absorbs the redundancy.
//
// The returned cancel func stops the watch goroutine. After cancel (or
// after an error is reported) the subscription never calls back again.

// SubscribePublic streams the public-events clause.
func (s *Store) SubscribePublic(ctx context.Context, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.subscribe(ctx, bson.M{"visibility": models.VisibilityPublic}, ClauseLimit, onData, onError)
}

// SubscribeByCreator streams the created-by-user clause.
func (s *Store) SubscribeByCreator(ctx context.Context, userID string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.subscribe(ctx, bson.M{"creator_id": userID}, ClauseLimit, onData, onError)
}

// SubscribeInvited streams the invited-contains-user clause.
func (s *Store) SubscribeInvited(ctx context.Context, userID string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.subscribe(ctx, bson.M{"invited_user_ids": userID}, ClauseLimit, onData, onError)
}

// SubscribeByGroup streams one per-group clause.
func (s *Store) SubscribeByGroup(ctx context.Context, groupID string, onData func([]models.Event), onError func(error)) (func(), error) {
	return s.subscribe(ctx, bson.M{"group_id": groupID}, GroupClauseLimit, onData, onError)
}

func (s *Store) subscribe(ctx context.Context, filter bson.M, limit int64, onData func([]models.Event), onError func(error)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	stream, err := s.c.Watch(subCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())

		emit := func() bool {
			events, err := s.query(subCtx, filter, limit)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				return false
			}
			onData(events)
			return true
		}

		// First snapshot, then one per change notification. A failed
		// re-query or broken stream stops this clause for good; the
		// caller resubscribes by reopening the feed.
		if !emit() {
			return
		}
		for stream.Next(subCtx) {
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			onError(err)
		}
	}()

	return cancel, nil
}
