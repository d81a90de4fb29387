// Package googleauth exchanges a one-time authorization code from the Google
// sign-in popup for the user's profile.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// PopupRedirectURL is the redirect the browser popup flow registers with Google.
const PopupRedirectURL = "postmessage"

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrNotConfigured is returned when no client credentials are set.
var ErrNotConfigured = errors.New("google sign-in is not configured")

// Profile is the subset of Google's userinfo response we use.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchanger turns an authorization code into a profile.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Client talks to Google's OAuth and userinfo endpoints.
type Client struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// New returns a client for the given OAuth credentials.
func New(clientID, clientSecret string) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  PopupRedirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// WithEndpoints overrides the token and userinfo URLs.
func (c *Client) WithEndpoints(tokenURL, userInfoURL string) *Client {
	c.cfg.Endpoint = oauth2.Endpoint{AuthURL: c.cfg.Endpoint.AuthURL, TokenURL: tokenURL}
	c.userInfoURL = userInfoURL
	return c
}

// Configured reports whether credentials are set.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

func (c *Client) Exchange(ctx context.Context, code string) (*Profile, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := c.cfg.Client(ctx, tok).Get(c.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info: unexpected status %d", resp.StatusCode)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if p.Email == "" {
		return nil, errors.New("user info has no email")
	}
	return &p, nil
}
