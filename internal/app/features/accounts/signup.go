// internal/app/features/accounts/signup.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/authutil"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

type signupInput struct {
	FullName string `json:"fullName" validate:"notblank,max=50" label:"Full name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	Gender   string `json:"gender"`
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "signup: decode")
		return
	}
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if in.Gender != "" && !models.ValidGender(in.Gender) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidGender)
		return
	}

	hash, err := h.Hasher.Hash(in.Password)
	if errors.Is(err, passwords.ErrTooShort) {
		respond.Error(w, http.StatusBadRequest, msgPasswordTooShort)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "signup: hash password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Password: hash,
		Gender:   in.Gender,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, http.StatusBadRequest, MsgUserExists)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "signup: create user", zap.String("email", in.Email))
		return
	}

	tok, err := authutil.IssueSession(ctx, h.Tokens, h.Users, u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "signup: issue session", zap.String("user_id", u.ID.Hex()))
		return
	}
	if err := h.sendConfirmation(ctx, &u); err != nil {
		h.Log.Warn("signup: confirmation email not sent", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()))
	respond.Created(w, authResponse{User: &u, Token: tok, Message: MsgUserCreated})
}
