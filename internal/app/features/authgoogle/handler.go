// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/authutil"
	"github.com/dalemusser/clubbera/internal/app/system/googleauth"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/app/system/tokens"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

const (
	MsgLoggedIn       = "User logged in with Google"
	MsgCodeRequired   = "Authorization code is required"
	MsgNotConfigured  = "Google sign-in is not available"
	MsgAuthFailed     = "Google authentication failed"
	MsgNoEmail        = "Google account has no email address"
	MsgAccountBlocked = "Account is deactivated"
)

// Handler signs users in with a Google authorization code obtained by the
// front end's popup flow.
type Handler struct {
	Users  *userstore.Store
	Tokens *tokens.Issuer
	Hasher *passwords.Hasher
	Google googleauth.Exchanger
	Log    *zap.Logger
}

// NewHandler creates a new Google sign-in handler.
func NewHandler(users *userstore.Store, issuer *tokens.Issuer, hasher *passwords.Hasher, google googleauth.Exchanger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  users,
		Tokens: issuer,
		Hasher: hasher,
		Google: google,
		Log:    logger,
	}
}

type loginResponse struct {
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
	Message string       `json:"message"`
}

// Login handles POST /google-auth {"code": "..."}.
//
// The code is exchanged with redirect "postmessage". An existing account with
// the same email is signed in; otherwise an account is created with the email
// already confirmed and the Google picture as its profile photo.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "google-auth: decode")
		return
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		respond.Error(w, http.StatusBadRequest, MsgCodeRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	profile, err := h.Google.Exchange(ctx, code)
	if errors.Is(err, googleauth.ErrNotConfigured) {
		respond.Error(w, http.StatusServiceUnavailable, MsgNotConfigured)
		return
	}
	if err != nil {
		h.Log.Warn("google-auth: exchange failed", zap.Error(err))
		respond.Error(w, http.StatusUnauthorized, MsgAuthFailed)
		return
	}
	email := normalize.Email(profile.Email)
	if email == "" {
		respond.Error(w, http.StatusBadRequest, MsgNoEmail)
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		created, cerr := h.createFromProfile(ctx, profile, email)
		if cerr != nil {
			respond.Err(w, h.Log, cerr, "google-auth: create user", zap.String("email", email))
			return
		}
		u = created
		h.Log.Info("user created via google", zap.String("user_id", u.ID.Hex()))
	case err != nil:
		respond.Err(w, h.Log, err, "google-auth: load user")
		return
	case !u.IsActive:
		respond.Error(w, http.StatusUnauthorized, MsgAccountBlocked)
		return
	}

	tok, err := authutil.IssueSession(ctx, h.Tokens, h.Users, u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "google-auth: issue session", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.OK(w, loginResponse{User: u, Token: tok, Message: MsgLoggedIn})
}

func (h *Handler) createFromProfile(ctx context.Context, p *googleauth.Profile, email string) (*models.User, error) {
	plain, err := authutil.RandomPassword(24)
	if err != nil {
		return nil, err
	}
	hash, err := h.Hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	name := normalize.Name(p.Name)
	if name == "" {
		name = email[:strings.IndexByte(email+"@", '@')]
	}
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}

	u := models.User{
		FullName:         name,
		Email:            email,
		Password:         hash,
		IsEmailConfirmed: true,
	}
	if p.Picture != "" {
		u.ProfilePhoto = &models.ImageRef{Provider: models.PhotoProviderGoogle, Location: p.Picture}
	}

	created, err := h.Users.Create(ctx, u)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost a race with a concurrent sign-in for the same address.
		return h.Users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}
