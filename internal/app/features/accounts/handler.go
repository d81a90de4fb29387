// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/mailer"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/ratelimit"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/app/system/tokens"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

const (
	MsgWelcome          = "Welcome to the Clubbera API"
	MsgUserCreated      = "User created"
	MsgUserExists       = "User already exists"
	MsgBadCredentials   = "Invalid email or password"
	MsgLoggedOut        = "User logged out"
	MsgLoggedOutAll     = "User logged out from all devices"
	MsgAlreadyConfirmed = "Email is already confirmed"
	MsgVerificationSent = "Verification email sent"
	MsgEmailConfirmed   = "Email confirmed successfully"
	MsgInvalidToken     = "Invalid or expired token"
	MsgResetSent        = "Password reset email sent"
	MsgPasswordUpdated  = "Password updated successfully"
	MsgWrongPassword    = "Current password is incorrect"
	MsgUserNotFound     = "User not found"
	MsgPhotoUpdated     = "Profile photo updated"
	MsgNoImageData      = "No image data provided"
	MsgInvalidUpdates   = "Invalid updates!"
	MsgInvalidGender    = "Invalid gender"
	MsgInvalidBirthday  = "Invalid birthday"
	MsgInvalidTopic     = "Invalid topic id"
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgBioTooLong       = "Bio must be at most 500 characters"
	maxBioLength        = 500
)

// Site carries the values outgoing emails need.
type Site struct {
	Name     string // company name
	Website  string // front-end origin that owns /confirmation and /resetpassword
	EmailTTL time.Duration
	ResetTTL time.Duration
}

// Handler serves account, session, and profile endpoints.
type Handler struct {
	Users   *userstore.Store
	Tokens  *tokens.Issuer
	Hasher  *passwords.Hasher
	Mailer  mailer.Sender
	Objects objectstore.Store
	Site    Site
	Log     *zap.Logger

	// Limiter, when set, has the caller's /login window cleared after a
	// successful login.
	Limiter ratelimit.Allower
}

func NewHandler(
	users *userstore.Store,
	issuer *tokens.Issuer,
	hasher *passwords.Hasher,
	mail mailer.Sender,
	objects objectstore.Store,
	site Site,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:   users,
		Tokens:  issuer,
		Hasher:  hasher,
		Mailer:  mail,
		Objects: objects,
		Site:    site,
		Log:     logger,
	}
}

// authResponse is returned by signup and login.
type authResponse struct {
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
	Message string       `json:"message,omitempty"`
}

// Welcome handles GET /.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, MsgWelcome)
}

// sendConfirmation issues a fresh email-confirmation token, records it on
// the user, and emails the link. Only the token bookkeeping can fail; send
// errors are logged.
func (h *Handler) sendConfirmation(ctx context.Context, u *models.User) error {
	tok, err := h.Tokens.EmailConfirm(u.ID)
	if err != nil {
		return fmt.Errorf("sign email token: %w", err)
	}
	if err := h.Users.SetEmailConfirmToken(ctx, u.ID, tok); err != nil {
		return fmt.Errorf("store email token: %w", err)
	}
	msg := mailer.BuildConfirmationEmail(mailer.LinkEmailData{
		SiteName:  h.Site.Name,
		Link:      mailer.ConfirmationLink(h.Site.Website, tok),
		ExpiresIn: formatExpiry(h.Site.EmailTTL),
	})
	msg.To = u.Email
	h.send(ctx, msg, u)
	return nil
}

func (h *Handler) send(ctx context.Context, msg mailer.Email, u *models.User) {
	if h.Mailer == nil {
		return
	}
	// Delivery outlives the request's own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Long())
	defer cancel()
	if err := h.Mailer.Send(ctx, msg); err != nil {
		h.Log.Warn("email send failed",
			zap.String("subject", msg.Subject),
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}
}

// formatExpiry renders a lifetime as "30 minutes" or "2 hours".
func formatExpiry(d time.Duration) string {
	if d <= 0 {
		d = time.Hour
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
