// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubbera/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the memberships collection name.
const Collection = "group_memberships"

// ErrStateChanged is returned when a conditional write finds the pair in a
// state other than the one the caller read. The caller should re-read.
var ErrStateChanged = errors.New("membership state changed concurrently")

var errNoneState = errors.New("StateNone is represented by the absence of a document")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the memberships collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_gm_group_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "state", Value: 1}, {Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_state"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index().SetName("idx_gm_user_state"),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Get returns the state of (groupID, userID); StateNone when there is no document.
func (s *Store) Get(ctx context.Context, groupID, userID primitive.ObjectID) (models.MembershipState, error) {
	var m models.GroupMembership
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StateNone, nil
	}
	if err != nil {
		return models.StateNone, err
	}
	return m.State, nil
}

// Insert moves a pair from NONE to state. If a document already exists the
// pair is no longer NONE and ErrStateChanged is returned.
func (s *Store) Insert(ctx context.Context, groupID, userID primitive.ObjectID, state models.MembershipState) error {
	if state == models.StateNone {
		return errNoneState
	}
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrStateChanged
		}
		return err
	}
	return nil
}

// Transition moves a pair from one of from to to, only if its current state
// is in from. Otherwise ErrStateChanged.
func (s *Store) Transition(ctx context.Context, groupID, userID primitive.ObjectID, from []models.MembershipState, to models.MembershipState) error {
	if to == models.StateNone {
		return s.Delete(ctx, groupID, userID, from)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID, "state": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"state": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// Delete moves a pair back to NONE, only if its current state is in from.
func (s *Store) Delete(ctx context.Context, groupID, userID primitive.ObjectID, from []models.MembershipState) error {
	res, err := s.c.DeleteOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID, "state": bson.M{"$in": from}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// Upsert forces a pair into state regardless of its current state, returning
// the previous state. Used by ban, which is reachable from every state except
// the privileged ones the caller has already ruled out.
func (s *Store) Upsert(ctx context.Context, groupID, userID primitive.ObjectID, from []models.MembershipState, to models.MembershipState) (models.MembershipState, error) {
	prev, err := s.Get(ctx, groupID, userID)
	if err != nil {
		return models.StateNone, err
	}
	if !contains(from, prev) {
		return prev, ErrStateChanged
	}
	if prev == models.StateNone {
		return prev, s.Insert(ctx, groupID, userID, to)
	}
	return prev, s.Transition(ctx, groupID, userID, []models.MembershipState{prev}, to)
}

func contains(set []models.MembershipState, s models.MembershipState) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// ListByGroup returns the group's memberships in any of states, oldest change first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, states ...models.MembershipState) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if len(states) > 0 {
		filter["state"] = bson.M{"$in": states}
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountByGroup counts the group's memberships in any of states (all when none given).
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, states ...models.MembershipState) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if len(states) > 0 {
		filter["state"] = bson.M{"$in": states}
	}
	return s.c.CountDocuments(ctx, filter)
}

// GroupIDsForUser returns the ids of groups where the user is in any of states.
func (s *Store) GroupIDsForUser(ctx context.Context, userID primitive.ObjectID, states ...models.MembershipState) ([]primitive.ObjectID, error) {
	filter := bson.M{"user_id": userID}
	if len(states) > 0 {
		filter["state"] = bson.M{"$in": states}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"group_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			GroupID primitive.ObjectID `bson:"group_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.GroupID)
	}
	return ids, cur.Err()
}

// DeleteByGroup removes all memberships for a group.
// Returns the number of documents deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
