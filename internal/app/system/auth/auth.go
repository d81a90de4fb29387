package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Messages                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	MsgUnauthenticated = "Please authenticate"
	MsgNotAdmin        = "You do not have the required permissions"
	MsgEmailUnverified = "Your email must be verified to access this resource"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborators                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenParser verifies a session token and returns the user id it carries.
type TokenParser interface {
	ParseSession(tok string) (primitive.ObjectID, error)
}

// UserFetcher loads an active user by id whose stored token list contains
// token. It returns nil when there is no such user.
type UserFetcher interface {
	FetchByToken(ctx context.Context, userID primitive.ObjectID, token string) *models.User
}

// Gate resolves bearer tokens to users and guards routes.
type Gate struct {
	tokens TokenParser
	users  UserFetcher
	log    *zap.Logger
}

func NewGate(tokens TokenParser, users UserFetcher, log *zap.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, log: log}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request context                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const (
	currentUserKey  ctxKey = "currentUser"
	currentTokenKey ctxKey = "currentToken"
)

// CurrentUser returns the user attached by Required or Optional.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// CurrentToken returns the bearer token the current user authenticated with.
func CurrentToken(r *http.Request) string {
	tok, _ := r.Context().Value(currentTokenKey).(string)
	return tok
}

// WithUser attaches u and tok to the request context.
// Handler tests use it to skip the bearer lookup.
func WithUser(r *http.Request, u *models.User, tok string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	ctx = context.WithValue(ctx, currentTokenKey, tok)
	return r.WithContext(ctx)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Required rejects the request with 401 unless the bearer token resolves to
// an active user holding that token. Malformed, unknown, and revoked tokens
// are indistinguishable to the caller.
func (g *Gate) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, tok := g.resolve(r)
		if u == nil {
			respond.Error(w, http.StatusUnauthorized, MsgUnauthenticated)
			return
		}
		next.ServeHTTP(w, WithUser(r, u, tok))
	})
}

// Optional attaches the user when the token resolves and never fails.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, tok := g.resolve(r); u != nil {
			r = WithUser(r, u, tok)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Required.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, MsgUnauthenticated)
			return
		}
		if !u.IsAdmin {
			respond.Error(w, http.StatusForbidden, MsgNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEmailConfirmed must run after Required.
func RequireEmailConfirmed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, MsgUnauthenticated)
			return
		}
		if !u.IsEmailConfirmed {
			respond.Error(w, http.StatusForbidden, MsgEmailUnverified)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func (g *Gate) resolve(r *http.Request) (*models.User, string) {
	tok := BearerToken(r)
	if tok == "" {
		return nil, ""
	}
	id, err := g.tokens.ParseSession(tok)
	if err != nil {
		return nil, ""
	}
	u := g.users.FetchByToken(r.Context(), id, tok)
	if u == nil {
		if g.log != nil {
			g.log.Debug("bearer token not on file", zap.String("user_id", id.Hex()))
		}
		return nil, ""
	}
	return u, tok
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
