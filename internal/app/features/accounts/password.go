// internal/app/features/accounts/password.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/mailer"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgPasswordTooShort = "Password must be at least 8 characters"

// RequestPasswordReset handles POST /password-reset.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "password reset: decode")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.Error(w, http.StatusBadRequest, MsgEmailRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "password reset: load user")
		return
	}

	tok, err := h.Tokens.PasswordReset(u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "password reset: sign token", zap.String("user_id", u.ID.Hex()))
		return
	}
	if err := h.Users.SetPasswordResetToken(ctx, u.ID, tok); err != nil {
		respond.Err(w, h.Log, err, "password reset: store token", zap.String("user_id", u.ID.Hex()))
		return
	}

	msg := mailer.BuildPasswordResetEmail(mailer.LinkEmailData{
		SiteName:  h.Site.Name,
		Link:      mailer.ResetLink(h.Site.Website, tok),
		ExpiresIn: formatExpiry(h.Site.ResetTTL),
	})
	msg.To = u.Email
	h.send(ctx, msg, u)

	respond.Message(w, MsgResetSent)
}

// ResetPassword handles POST /reset-password/{token}. The reset token is
// single-use and every session is signed out.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	id, err := h.Tokens.ParsePasswordReset(tok)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, MsgInvalidToken)
		return
	}

	var in struct {
		Password string `json:"password"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "reset password: decode")
		return
	}
	hash, ok := h.hashOrReject(w, in.Password)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Users.ConsumePasswordReset(ctx, id, tok, hash)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidToken)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "reset password", zap.String("user_id", id.Hex()))
		return
	}
	respond.Message(w, MsgPasswordUpdated)
}

// ChangePassword handles PATCH /me/change-password. Other sessions are
// signed out; the current one stays valid.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "change password: decode")
		return
	}
	if !h.Hasher.Verify(in.CurrentPassword, u.Password) {
		respond.Error(w, http.StatusBadRequest, MsgWrongPassword)
		return
	}
	hash, ok := h.hashOrReject(w, in.NewPassword)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetPassword(ctx, u.ID, hash, auth.CurrentToken(r)); err != nil {
		respond.Err(w, h.Log, err, "change password", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.Message(w, MsgPasswordUpdated)
}

func (h *Handler) hashOrReject(w http.ResponseWriter, plain string) (string, bool) {
	if plain == "" {
		respond.Error(w, http.StatusBadRequest, MsgPasswordRequired)
		return "", false
	}
	hash, err := h.Hasher.Hash(plain)
	if errors.Is(err, passwords.ErrTooShort) {
		respond.Error(w, http.StatusBadRequest, msgPasswordTooShort)
		return "", false
	}
	if err != nil {
		respond.Err(w, h.Log, err, "hash password")
		return "", false
	}
	return hash, true
}
