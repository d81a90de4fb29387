// Package tokens issues and verifies the signed tokens used for bearer
// sessions, email confirmation links, and password reset links.
//
// All tokens are HS256 JWTs whose subject is the user id hex. Session tokens
// carry no expiry; they are valid while they remain in the user's stored token
// list. Email and reset tokens expire and are signed with their own secrets so
// one kind can never be replayed as another.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalid is returned for any token that fails to parse, verify, or match
// its expected purpose. Callers never learn which check failed.
var ErrInvalid = errors.New("invalid token")

// Purpose values embedded in each token.
const (
	PurposeSession = "session"
	PurposeEmail   = "email_confirm"
	PurposeReset   = "password_reset"
)

// Config holds the signing secrets and lifetimes.
type Config struct {
	SessionSecret string
	EmailSecret   string
	ResetSecret   string
	EmailTTL      time.Duration
	ResetTTL      time.Duration
}

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens.
type Issuer struct {
	session  []byte
	email    []byte
	reset    []byte
	emailTTL time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// NewIssuer builds an Issuer. Empty email/reset secrets fall back to the
// session secret; zero lifetimes default to one hour.
func NewIssuer(cfg Config) *Issuer {
	email, reset := cfg.EmailSecret, cfg.ResetSecret
	if email == "" {
		email = cfg.SessionSecret
	}
	if reset == "" {
		reset = cfg.SessionSecret
	}
	if cfg.EmailTTL <= 0 {
		cfg.EmailTTL = time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Issuer{
		session:  []byte(cfg.SessionSecret),
		email:    []byte(email),
		reset:    []byte(reset),
		emailTTL: cfg.EmailTTL,
		resetTTL: cfg.ResetTTL,
		now:      time.Now,
	}
}

// Session issues a bearer token for userID.
func (i *Issuer) Session(userID primitive.ObjectID) (string, error) {
	return i.sign(i.session, PurposeSession, userID, 0)
}

// EmailConfirm issues an email confirmation token for userID.
func (i *Issuer) EmailConfirm(userID primitive.ObjectID) (string, error) {
	return i.sign(i.email, PurposeEmail, userID, i.emailTTL)
}

// PasswordReset issues a password reset token for userID.
func (i *Issuer) PasswordReset(userID primitive.ObjectID) (string, error) {
	return i.sign(i.reset, PurposeReset, userID, i.resetTTL)
}

// ParseSession verifies a bearer token and returns its user id.
func (i *Issuer) ParseSession(tok string) (primitive.ObjectID, error) {
	return i.parse(tok, i.session, PurposeSession)
}

// ParseEmailConfirm verifies an email confirmation token.
func (i *Issuer) ParseEmailConfirm(tok string) (primitive.ObjectID, error) {
	return i.parse(tok, i.email, PurposeEmail)
}

// ParsePasswordReset verifies a password reset token.
func (i *Issuer) ParsePasswordReset(tok string) (primitive.ObjectID, error) {
	return i.parse(tok, i.reset, PurposeReset)
}

func (i *Issuer) sign(key []byte, purpose string, userID primitive.ObjectID, ttl time.Duration) (string, error) {
	now := i.now()
	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.Hex(),
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return s, nil
}

func (i *Issuer) parse(tok string, key []byte, purpose string) (primitive.ObjectID, error) {
	if tok == "" {
		return primitive.NilObjectID, ErrInvalid
	}
	var c claims
	_, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || c.Purpose != purpose {
		return primitive.NilObjectID, ErrInvalid
	}
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrInvalid
	}
	return id, nil
}
