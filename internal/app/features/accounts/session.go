// internal/app/features/accounts/session.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/authutil"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/ratelimit"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login.
//
// Unknown emails, wrong passwords, and deactivated accounts all get the same
// 401 so the endpoint cannot be used to probe for accounts.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "login: decode")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.Error(w, http.StatusBadRequest, MsgEmailRequired)
		return
	}
	if in.Password == "" {
		respond.Error(w, http.StatusBadRequest, MsgPasswordRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, http.StatusUnauthorized, MsgBadCredentials)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "login: load user")
		return
	}
	if !u.IsActive || !h.Hasher.Verify(in.Password, u.Password) {
		respond.Error(w, http.StatusUnauthorized, MsgBadCredentials)
		return
	}

	tok, err := authutil.IssueSession(ctx, h.Tokens, h.Users, u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "login: issue session", zap.String("user_id", u.ID.Hex()))
		return
	}
	if h.Limiter != nil {
		if err := h.Limiter.Reset(ctx, ratelimit.Key(r)); err != nil {
			h.Log.Warn("login: rate limit reset failed", zap.Error(err))
		}
	}
	respond.OK(w, authResponse{User: u, Token: tok})
}

// Logout handles POST /logout: the presented token stops working.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.RemoveToken(ctx, u.ID, auth.CurrentToken(r)); err != nil {
		respond.Err(w, h.Log, err, "logout", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.Message(w, MsgLoggedOut)
}

// LogoutAll handles POST /logout-all: every token for the user stops working.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.ClearTokens(ctx, u.ID); err != nil {
		respond.Err(w, h.Log, err, "logout-all", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.Message(w, MsgLoggedOutAll)
}
