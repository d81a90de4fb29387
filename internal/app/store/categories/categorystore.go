// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the categories collection name.
const Collection = "categories"

var (
	ErrNotFound      = errors.New("category not found")
	ErrDuplicateName = errors.New("category already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the categories collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_categories_name_ci").SetUnique(true),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create inserts a category. Names are unique case-insensitively.
func (s *Store) Create(ctx context.Context, name string, creator primitive.ObjectID) (models.Category, error) {
	name = normalize.Name(name)
	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateName
		}
		return models.Category{}, err
	}
	return c, nil
}

// Delete removes a category and returns the removed document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns every category ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Category, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
