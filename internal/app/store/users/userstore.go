// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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

// Collection is the users collection name.
const Collection = "users"

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrInvitePending is returned when the user already holds a moderator
	// invitation for the group.
	ErrInvitePending = errors.New("moderator invitation already pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// IndexModels are the indexes the users collection needs.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "unique_url", Value: 1}},
			Options: options.Index().SetName("uniq_users_unique_url").SetUnique(true),
		},
		{
			// auth gate lookup: _id + tokens.token
			Keys:    bson.D{{Key: "tokens.token", Value: 1}},
			Options: options.Index().SetName("idx_users_tokens"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci__id"),
		},
	}
}

// EnsureIndexes creates the collection's indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, IndexModels())
	return err
}

// Create inserts a new user after normalizing fields and applying defaults.
// The caller supplies an already-hashed password (or none, for OAuth users).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.UniqueURL = normalize.Slug(u.FullName, now)
	if u.Gender == "" {
		u.Gender = models.GenderPreferNotSay
	}
	u.IsActive = true
	u.Tokens = nil
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByUniqueURL looks up a user by profile slug.
func (s *Store) GetByUniqueURL(ctx context.Context, slug string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"unique_url": slug})
}

// GetByIDAndToken returns the user only if token is in their stored token list.
func (s *Store) GetByIDAndToken(ctx context.Context, id primitive.ObjectID, token string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "tokens.token": token})
}

// GetMany loads users by id. Missing ids are skipped.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToken appends a session token.
func (s *Store) AddToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{
		"$push": bson.M{"tokens": models.SessionToken{Token: token, CreatedAt: time.Now().UTC()}},
	})
}

// RemoveToken removes one session token (logout).
func (s *Store) RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{
		"$pull": bson.M{"tokens": bson.M{"token": token}},
	})
}

// ClearTokens removes every session token (logout everywhere).
func (s *Store) ClearTokens(ctx context.Context, id primitive.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{"tokens": bson.A{}, "updated_at": time.Now().UTC()},
	})
}

// SetPassword stores a new password hash. Every other session is signed out;
// keepToken, when non-empty, stays valid so the caller is not logged out.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash, keepToken string) error {
	update := bson.M{"$set": bson.M{"password": hash, "updated_at": time.Now().UTC()}}
	if keepToken != "" {
		update["$pull"] = bson.M{"tokens": bson.M{"token": bson.M{"$ne": keepToken}}}
	} else {
		update["$set"].(bson.M)["tokens"] = bson.A{}
	}
	return s.updateByID(ctx, id, update)
}

// SetEmailConfirmToken records the outstanding confirmation token.
func (s *Store) SetEmailConfirmToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"email_confirm_token": token}})
}

// ConfirmEmail marks the email confirmed if token is the outstanding one.
func (s *Store) ConfirmEmail(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "email_confirm_token": token},
		bson.M{
			"$set":   bson.M{"is_email_confirmed": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"email_confirm_token": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordResetToken records the outstanding reset token.
func (s *Store) SetPasswordResetToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"password_reset_token": token}})
}

// ConsumePasswordReset consumes the outstanding reset token, sets the new hash, and
// signs the user out everywhere.
func (s *Store) ConsumePasswordReset(ctx context.Context, id primitive.ObjectID, token, hash string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "password_reset_token": token},
		bson.M{
			"$set":   bson.M{"password": hash, "tokens": bson.A{}, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"password_reset_token": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate holds the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	Bio      *string
	Gender   *string
	Location *models.UserLocation
	Birthday *time.Time
	Topics   *[]primitive.ObjectID
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Gender != nil {
		set["gender"] = *upd.Gender
	}
	if upd.Location != nil {
		set["location"] = upd.Location
	}
	if upd.Birthday != nil {
		set["birthday"] = upd.Birthday.UTC()
	}
	if upd.Topics != nil {
		set["topics"] = *upd.Topics
	}
	return s.findOneAndSet(ctx, id, set)
}

// SetProfilePhoto replaces the profile photo reference.
func (s *Store) SetProfilePhoto(ctx context.Context, id primitive.ObjectID, ref models.ImageRef) (*models.User, error) {
	return s.findOneAndSet(ctx, id, bson.M{"profile_photo": ref, "updated_at": time.Now().UTC()})
}

// SetAdmin grants or revokes the admin flag by email.
func (s *Store) SetAdmin(ctx context.Context, email string, admin bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"is_admin": admin, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Find returns users whose email or folded full name contains q, ordered by
// name, along with the total match count.
func (s *Store) Find(ctx context.Context, q string, skip, limit int64) ([]models.User, int64, error) {
	filter := bson.M{}
	if q != "" {
		pat := regexp.QuoteMeta(text.Fold(q))
		filter["$or"] = bson.A{
			bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(normalize.Email(q)), Options: "i"}},
			bson.M{"full_name_ci": primitive.Regex{Pattern: pat, Options: "i"}},
		}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AddModeratorInvitation records a pending moderator invitation for groupID.
// Returns ErrInvitePending if one already exists for the group.
func (s *Store) AddModeratorInvitation(ctx context.Context, userID, groupID primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "moderator_invitations.group_id": bson.M{"$ne": groupID}},
		bson.M{"$push": bson.M{"moderator_invitations": models.ModeratorInvitation{GroupID: groupID, SentAt: at.UTC()}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
		return ErrInvitePending
	}
	return nil
}

// RemoveModeratorInvitation deletes the pending invitation for groupID and
// reports whether there was one.
func (s *Store) RemoveModeratorInvitation(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "moderator_invitations.group_id": groupID},
		bson.M{"$pull": bson.M{"moderator_invitations": bson.M{"group_id": groupID}}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ClearModeratorInvitations drops every pending invitation for groupID and
// returns how many users held one.
func (s *Store) ClearModeratorInvitations(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"moderator_invitations.group_id": groupID},
		bson.M{"$pull": bson.M{"moderator_invitations": bson.M{"group_id": groupID}}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AssignMissingURLs gives every user without a uniqueURL one derived from
// their name, as Create does. Slugs in one run are stamped a millisecond apart
// starting at at. It returns the updated users.
func (s *Store) AssignMissingURLs(ctx context.Context, at time.Time) ([]models.User, error) {
	missing := bson.M{"$or": bson.A{
		bson.M{"unique_url": bson.M{"$exists": false}},
		bson.M{"unique_url": ""},
	}}
	cur, err := s.c.Find(ctx, missing, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	updated := make([]models.User, 0, len(users))
	for i, u := range users {
		slug := normalize.Slug(u.FullName, at.Add(time.Duration(i)*time.Millisecond))
		filter := bson.M{"_id": u.ID, "$or": missing["$or"]}
		res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"unique_url": slug, "updated_at": time.Now().UTC()}})
		if err != nil {
			return updated, fmt.Errorf("user %s: %w", u.ID.Hex(), err)
		}
		if res.ModifiedCount == 0 {
			continue
		}
		u.UniqueURL = slug
		updated = append(updated, u)
	}
	return updated, nil
}
