// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the activity log collection name.
const Collection = "activity_logs"

// Store manages the append-only group activity log.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the activity log needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		// "when did these users join / request" lookups
		{
			Keys: bson.D{
				{Key: "group_id", Value: 1},
				{Key: "action", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_activity_group_action_user"),
		},
		// group feed
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_group_ts"),
		},
		// user history
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_user_ts"),
		},
	}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Append records one entry. ID and Timestamp are filled in when zero.
func (s *Store) Append(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return entry, err
}

// LatestByAction returns, for each user in userIDs, the time of their most
// recent entry with the given action in the group. Users with no entry are
// absent from the map.
func (s *Store) LatestByAction(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID, action models.ActivityAction) (map[primitive.ObjectID]time.Time, error) {
	out := make(map[primitive.ObjectID]time.Time, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"group_id": groupID, "action": action, "user_id": bson.M{"$in": userIDs}}},
		{"$group": bson.M{"_id": "$user_id", "ts": bson.M{"$max": "$timestamp"}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			TS time.Time          `bson:"ts"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.TS
	}
	return out, cur.Err()
}

// ListByGroup returns the group's most recent entries, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.ActivityLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.ActivityLog{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByUser returns a user's most recent entries across groups, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.ActivityLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.ActivityLog{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
