package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeParser struct {
	ids map[string]primitive.ObjectID
}

func (p fakeParser) ParseSession(tok string) (primitive.ObjectID, error) {
	id, ok := p.ids[tok]
	if !ok {
		return primitive.NilObjectID, errors.New("bad token")
	}
	return id, nil
}

type fakeFetcher struct {
	users map[string]*models.User // keyed by token
}

func (f fakeFetcher) FetchByToken(_ context.Context, id primitive.ObjectID, tok string) *models.User {
	u := f.users[tok]
	if u == nil || u.ID != id {
		return nil
	}
	return u
}

func newGate() (*auth.Gate, *models.User) {
	u := &models.User{ID: primitive.NewObjectID(), FullName: "Ada", IsActive: true}
	revoked := primitive.NewObjectID()
	p := fakeParser{ids: map[string]primitive.ObjectID{"good": u.ID, "revoked": revoked}}
	f := fakeFetcher{users: map[string]*models.User{"good": u}}
	return auth.NewGate(p, f, zap.NewNop()), u
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		w.Header().Set("X-User", "yes")
	}
	w.WriteHeader(http.StatusOK)
}

func TestRequired(t *testing.T) {
	gate, _ := newGate()
	h := gate.Required(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"malformed", "Bearer garbage", http.StatusUnauthorized},
		{"revoked", "Bearer revoked", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"valid lowercase scheme", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Body.String() != `{"error":"Please authenticate"}`+"\n" {
				t.Errorf("body: got %q", rec.Body.String())
			}
		})
	}
}

func TestRequired_AttachesToken(t *testing.T) {
	gate, u := newGate()
	var gotTok string
	var gotUser *models.User
	h := gate.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTok = auth.CurrentToken(r)
		gotUser, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotTok != "good" {
		t.Errorf("token: got %q", gotTok)
	}
	if gotUser == nil || gotUser.ID != u.ID {
		t.Errorf("user not attached")
	}
}

func TestOptional_NeverFails(t *testing.T) {
	gate, _ := newGate()
	h := gate.Optional(http.HandlerFunc(okHandler))

	for _, header := range []string{"", "Bearer garbage", "Bearer good"} {
		req := httptest.NewRequest(http.MethodGet, "/groups/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%q: status %d", header, rec.Code)
		}
		wantUser := header == "Bearer good"
		if (rec.Header().Get("X-User") == "yes") != wantUser {
			t.Errorf("%q: user attached mismatch", header)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	h := auth.RequireAdmin(http.HandlerFunc(okHandler))

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"regular", &models.User{ID: primitive.NewObjectID()}, http.StatusForbidden},
		{"admin", &models.User{ID: primitive.NewObjectID(), IsAdmin: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/category", nil)
			if tt.user != nil {
				req = auth.WithUser(req, tt.user, "tok")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireEmailConfirmed(t *testing.T) {
	h := auth.RequireEmailConfirmed(http.HandlerFunc(okHandler))

	req := auth.WithUser(httptest.NewRequest(http.MethodPost, "/x", nil), &models.User{}, "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("unconfirmed: got %d", rec.Code)
	}

	req = auth.WithUser(httptest.NewRequest(http.MethodPost, "/x", nil), &models.User{IsEmailConfirmed: true}, "tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("confirmed: got %d", rec.Code)
	}
}
