// internal/app/store/groups/groupstore.go
package groupstore

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

// Collection is the groups collection name.
const Collection = "groups"

// EarthRadiusMiles converts a search distance into the angular radius a
// $centerSphere query expects.
const EarthRadiusMiles = 3963.2

var (
	ErrNotFound       = errors.New("group not found")
	ErrDuplicateTitle = errors.New("a group with this title already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the groups collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title_ci", Value: 1}},
			Options: options.Index().SetName("uniq_groups_title_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "unique_url", Value: 1}},
			Options: options.Index().SetName("uniq_groups_unique_url").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_owner__id"),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "location.formatted_address", Value: "text"},
				{Key: "topics", Value: "text"},
			},
			Options: options.Index().SetName("text_groups_search"),
		},
		{
			Keys:    bson.D{{Key: "location.geo", Value: "2dsphere"}},
			Options: options.Index().SetName("geo_groups_location"),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create assigns id, slug, and timestamps and inserts the group.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Title = normalize.Name(g.Title)
	g.TitleCI = text.Fold(g.Title)
	g.UniqueURL = normalize.Slug(g.Title, now)
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateTitle
		}
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUniqueURL(ctx context.Context, slug string) (*models.Group, error) {
	return s.findOne(ctx, bson.M{"unique_url": slug})
}

// Resolve accepts either a group id hex or a uniqueURL.
func (s *Store) Resolve(ctx context.Context, ref string) (*models.Group, error) {
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		g, err := s.GetByID(ctx, oid)
		if !errors.Is(err, ErrNotFound) {
			return g, err
		}
	}
	return s.GetByUniqueURL(ctx, ref)
}

// Update holds the editable group fields. Nil means unchanged.
type Update struct {
	Title       *string
	Tagline     *string
	Description *string
	Location    *models.Place
	Topics      *[]string
	IsPrivate   *bool
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Title == nil && u.Tagline == nil && u.Description == nil &&
		u.Location == nil && u.Topics == nil && u.IsPrivate == nil
}

// Update applies upd and returns the updated group.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Group, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if upd.Tagline != nil {
		set["tagline"] = *upd.Tagline
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Location != nil {
		set["location"] = upd.Location
	}
	if upd.Topics != nil {
		set["topics"] = *upd.Topics
	}
	if upd.IsPrivate != nil {
		set["is_private"] = *upd.IsPrivate
	}
	return s.findOneAndSet(ctx, id, set)
}

// SetBanner replaces the banner reference.
func (s *Store) SetBanner(ctx context.Context, id primitive.ObjectID, ref models.ImageRef) (*models.Group, error) {
	return s.findOneAndSet(ctx, id, bson.M{"banner": ref, "updated_at": time.Now().UTC()})
}

func (s *Store) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Group, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	return &g, nil
}

// Delete removes the group document.
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

// Near restricts a search to a spherical cap around a point.
type Near struct {
	Lat   float64
	Lng   float64
	Miles float64
}

// SearchParams describes a group search.
type SearchParams struct {
	Text  string // empty: unfiltered listing
	Topic string
	Near  *Near
	Skip  int64
	Limit int64
}

// SearchFilter builds the query document for p.
func SearchFilter(p SearchParams) bson.M {
	filter := bson.M{"deactivated": bson.M{"$ne": true}}
	if p.Text != "" {
		filter["$text"] = bson.M{"$search": p.Text}
	}
	if p.Topic != "" {
		filter["topics"] = p.Topic
	}
	if p.Near != nil {
		filter["location.geo"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{p.Near.Lng, p.Near.Lat},
					p.Near.Miles / EarthRadiusMiles,
				},
			},
		}
	}
	return filter
}

// Search runs p. Text searches are ranked by relevance, then _id; unfiltered
// listings come back in insertion (_id) order.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]models.Group, error) {
	opts := options.Find().SetSkip(p.Skip).SetLimit(p.Limit)
	if p.Text != "" {
		score := bson.M{"$meta": "textScore"}
		opts.SetProjection(bson.M{"score": score})
		opts.SetSort(bson.D{{Key: "score", Value: score}, {Key: "_id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}

	cur, err := s.c.Find(ctx, SearchFilter(p), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
