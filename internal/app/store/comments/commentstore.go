// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the comments collection name.
const Collection = "comments"

var ErrNotFound = errors.New("comment not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the comments collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "target.type", Value: 1},
				{Key: "target.id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_comments_target_created"),
		},
		{
			Keys:    bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_comments_author"),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create assigns id and timestamp and inserts the comment.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func targetFilter(t models.CommentTarget) bson.M {
	return bson.M{"target.type": t.Kind, "target.id": t.ID}
}

// CountReplies counts comments whose target is the given comment.
func (s *Store) CountReplies(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, targetFilter(models.ReplyTarget(id)))
}

// Delete removes one comment.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReplies removes every comment targeting the given comment and returns
// how many were removed.
func (s *Store) DeleteReplies(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, targetFilter(models.ReplyTarget(id)))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByGroup removes a group's top-level comments and their replies and
// returns how many documents were removed.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	filter := targetFilter(models.GroupTarget(groupID))
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}

	var total int64
	if len(ids) > 0 {
		res, err := s.c.DeleteMany(ctx, bson.M{"target.type": models.TargetComment, "target.id": bson.M{"$in": ids}})
		if err != nil {
			return 0, err
		}
		total = res.DeletedCount
	}
	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return total, err
	}
	return total + res.DeletedCount, nil
}

// ListParams controls ordering and paging of a comment listing.
type ListParams struct {
	SortBy string // "createdAt" (default)
	Desc   bool
	Skip   int64
	Limit  int64
}

var sortFields = map[string]string{
	"createdAt": "created_at",
}

// ValidSortBy reports whether field is an accepted sort key.
func ValidSortBy(field string) bool {
	_, ok := sortFields[field]
	return ok
}

// ListByTarget returns comments attached to t along with their total count.
func (s *Store) ListByTarget(ctx context.Context, t models.CommentTarget, p ListParams) ([]models.Comment, int64, error) {
	filter := targetFilter(t)

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	field, ok := sortFields[p.SortBy]
	if !ok {
		field = "created_at"
	}
	dir := 1
	if p.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(p.Skip)
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
