// internal/app/features/accounts/verify.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequestVerificationEmail handles POST /request-verification-email.
func (h *Handler) RequestVerificationEmail(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if u.IsEmailConfirmed {
		respond.Error(w, http.StatusBadRequest, MsgAlreadyConfirmed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.sendConfirmation(ctx, u); err != nil {
		respond.Err(w, h.Log, err, "request verification email", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.Message(w, MsgVerificationSent)
}

// ConfirmEmail handles GET /confirm-email/{token}. The token must verify and
// must also be the one most recently sent to the user.
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	id, err := h.Tokens.ParseEmailConfirm(tok)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, MsgInvalidToken)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Users.ConfirmEmail(ctx, id, tok)
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidToken)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "confirm email", zap.String("user_id", id.Hex()))
		return
	}
	respond.Message(w, MsgEmailConfirmed)
}
