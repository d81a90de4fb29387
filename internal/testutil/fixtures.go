package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the same request adds to the existing parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func slugFor(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-") + "-" + primitive.NewObjectID().Hex()
}

// CreateUser inserts an active user with a confirmed email. token, when
// non-empty, is stored as a session token.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, token string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		FullName:         fullName,
		FullNameCI:       text.Fold(fullName),
		Email:            strings.ToLower(email),
		UniqueURL:        slugFor(fullName),
		Gender:           models.GenderPreferNotSay,
		IsActive:         true,
		IsEmailConfirmed: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if token != "" {
		u.Tokens = []models.SessionToken{{Token: token, CreatedAt: now}}
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, "")
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"is_admin": true}}); err != nil {
		f.t.Fatalf("failed to promote test admin: %v", err)
	}
	u.IsAdmin = true
	return u
}

// CreateGroup inserts a group owned by owner.
func (f *Fixtures) CreateGroup(ctx context.Context, title string, owner primitive.ObjectID, private bool) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Title:     title,
		TitleCI:   text.Fold(title),
		UniqueURL: slugFor(title),
		Topics:    []string{},
		IsPrivate: private,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateMembership inserts a membership document in the given state.
func (f *Fixtures) CreateMembership(ctx context.Context, groupID, userID primitive.ObjectID, state models.MembershipState) models.GroupMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateComment inserts a comment on target.
func (f *Fixtures) CreateComment(ctx context.Context, author primitive.ObjectID, target models.CommentTarget, content string) models.Comment {
	f.t.Helper()

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   content,
		Author:    author,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreateEvent inserts an event under groupID with the given slot capacity.
func (f *Fixtures) CreateEvent(ctx context.Context, groupID, creator primitive.ObjectID, name string, slots int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:        primitive.NewObjectID(),
		UniqueURL: slugFor(name),
		Creator:   creator,
		GroupID:   groupID,
		Name:      name,
		Slots:     slots,
		Attendees: []models.Attendee{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateCategory inserts a category.
func (f *Fixtures) CreateCategory(ctx context.Context, name string, creator primitive.ObjectID) models.Category {
	f.t.Helper()

	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}
