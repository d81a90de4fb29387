// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the events collection name.
const Collection = "events"

var (
	ErrNotFound         = errors.New("event not found")
	ErrAlreadyAttending = errors.New("already attending")
	ErrNotAttending     = errors.New("not attending")
	ErrFull             = errors.New("event is full")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the events collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "unique_url", Value: 1}},
			Options: options.Index().SetName("uniq_events_unique_url").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "event_date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_events_group_date"),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create assigns id, slug, and timestamps and inserts the event.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Name = normalize.Name(e.Name)
	e.UniqueURL = normalize.Slug(e.Name, now)
	if e.Attendees == nil {
		e.Attendees = []models.Attendee{}
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByGroup returns the group's events ordered by date.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the editable event fields. Nil means unchanged.
type Update struct {
	Name        *string
	Description *string
	EventDate   *time.Time
	StartTime   *string
	EndTime     *string
	Slots       *int
}

// Update applies upd and returns the updated event.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Event, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.EventDate != nil {
		set["event_date"] = upd.EventDate.UTC()
	}
	if upd.StartTime != nil {
		set["start_time"] = *upd.StartTime
	}
	if upd.EndTime != nil {
		set["end_time"] = *upd.EndTime
	}
	if upd.Slots != nil {
		set["slots"] = *upd.Slots
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetBanner replaces the banner reference.
func (s *Store) SetBanner(ctx context.Context, id primitive.ObjectID, ref models.ImageRef) (*models.Event, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"banner": ref, "updated_at": time.Now().UTC()}})
}

// Attend adds userID to the attendee list if they are not on it and a slot
// is free (slots == 0 means unlimited).
func (s *Store) Attend(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	filter := bson.M{
		"_id":            id,
		"attendees.user": bson.M{"$ne": userID},
		"$or": bson.A{
			bson.M{"slots": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$attendees"}, "$slots"}}},
		},
	}
	update := bson.M{
		"$push": bson.M{"attendees": models.Attendee{User: userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	e, err := s.findOneAndUpdate(ctx, filter, update)
	if !errors.Is(err, ErrNotFound) {
		return e, err
	}

	// Work out which precondition failed.
	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	for _, a := range cur.Attendees {
		if a.User == userID {
			return nil, ErrAlreadyAttending
		}
	}
	return nil, ErrFull
}

// Unattend removes userID from the attendee list.
func (s *Store) Unattend(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	e, err := s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "attendees.user": userID},
		bson.M{
			"$pull": bson.M{"attendees": bson.M{"user": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if errors.Is(err, ErrNotFound) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, ErrNotAttending
	}
	return e, err
}

// DeleteByGroup removes every event in the group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
