package userstore

import (
	"context"

	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher loads the caller for the auth gate on each request so that logouts,
// deactivations, and flag changes take effect immediately.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchByToken returns the active user holding token, or nil if there is no
// such user or any error occurs.
func (f *Fetcher) FetchByToken(ctx context.Context, userID primitive.ObjectID, token string) *models.User {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByIDAndToken(ctx, userID, token)
	if err != nil || !u.IsActive {
		return nil
	}
	return u
}
