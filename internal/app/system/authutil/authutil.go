// Package authutil holds helpers shared by the credential endpoints.
package authutil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionSigner issues session tokens.
type SessionSigner interface {
	Session(userID primitive.ObjectID) (string, error)
}

// TokenStore records issued session tokens on the user.
type TokenStore interface {
	AddToken(ctx context.Context, userID primitive.ObjectID, token string) error
}

// IssueSession signs a new session token for userID and stores it so the
// bearer gate will accept it.
func IssueSession(ctx context.Context, signer SessionSigner, store TokenStore, userID primitive.ObjectID) (string, error) {
	tok, err := signer.Session(userID)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	if err := store.AddToken(ctx, userID, tok); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return tok, nil
}

// RandomPassword returns a random URL-safe string built from n random bytes.
// Accounts created through Google sign-in get one so the password field is
// never empty.
func RandomPassword(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
