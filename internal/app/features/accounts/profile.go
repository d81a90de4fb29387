// internal/app/features/accounts/profile.go
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/paging"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	respond.OK(w, u)
}

// PublicProfile handles GET /users/{uniqueURL}.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUniqueURL(ctx, chi.URLParam(r, "uniqueURL"))
	if errors.Is(err, userstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "public profile")
		return
	}
	respond.OK(w, u)
}

// editableProfileFields is the whitelist for PATCH /edit-users-profile.
var editableProfileFields = map[string]bool{
	"fullName": true,
	"bio":      true,
	"gender":   true,
	"location": true,
	"birthday": true,
	"topics":   true,
}

type fullNameInput struct {
	FullName string `validate:"notblank,max=50" label:"Full name"`
}

// parseProfileUpdate turns a raw JSON object into a ProfileUpdate, rejecting
// any key outside the whitelist. The returned string is the client message.
func parseProfileUpdate(raw map[string]json.RawMessage) (userstore.ProfileUpdate, string) {
	var upd userstore.ProfileUpdate
	if len(raw) == 0 {
		return upd, MsgInvalidUpdates
	}
	for k := range raw {
		if !editableProfileFields[k] {
			return upd, MsgInvalidUpdates
		}
	}

	if v, ok := raw["fullName"]; ok {
		var name string
		if json.Unmarshal(v, &name) != nil {
			return upd, MsgInvalidUpdates
		}
		name = normalize.Name(name)
		if res := inputval.Validate(fullNameInput{FullName: name}); res.HasErrors() {
			return upd, res.First()
		}
		upd.FullName = &name
	}
	if v, ok := raw["bio"]; ok {
		var bio string
		if json.Unmarshal(v, &bio) != nil {
			return upd, MsgInvalidUpdates
		}
		bio = htmlsanitize.PlainText(bio)
		if len([]rune(bio)) > maxBioLength {
			return upd, MsgBioTooLong
		}
		upd.Bio = &bio
	}
	if v, ok := raw["gender"]; ok {
		var g string
		if json.Unmarshal(v, &g) != nil || !models.ValidGender(g) {
			return upd, MsgInvalidGender
		}
		upd.Gender = &g
	}
	if v, ok := raw["location"]; ok {
		var loc models.UserLocation
		if json.Unmarshal(v, &loc) != nil {
			return upd, MsgInvalidUpdates
		}
		loc.City = htmlsanitize.PlainText(loc.City)
		upd.Location = &loc
	}
	if v, ok := raw["birthday"]; ok {
		var s string
		if json.Unmarshal(v, &s) != nil {
			return upd, MsgInvalidBirthday
		}
		bd, err := parseDate(s)
		if err != nil || bd.After(time.Now()) {
			return upd, MsgInvalidBirthday
		}
		upd.Birthday = &bd
	}
	if v, ok := raw["topics"]; ok {
		var hexes []string
		if json.Unmarshal(v, &hexes) != nil {
			return upd, MsgInvalidTopic
		}
		ids := make([]primitive.ObjectID, 0, len(hexes))
		for _, hx := range hexes {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hx))
			if err != nil {
				return upd, MsgInvalidTopic
			}
			ids = append(ids, id)
		}
		upd.Topics = &ids
	}
	return upd, ""
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// EditProfile handles PATCH /edit-users-profile.
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var raw map[string]json.RawMessage
	if err := respond.DecodeJSON(r, &raw); err != nil {
		respond.Err(w, h.Log, err, "edit profile: decode")
		return
	}
	upd, msg := parseProfileUpdate(raw)
	if msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Users.UpdateProfile(ctx, u.ID, upd)
	if err != nil {
		respond.Err(w, h.Log, err, "edit profile", zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.OK(w, updated)
}

// UploadProfilePhoto handles POST /me/profile-photo with {"imageData": base64}.
// The previous photo is removed from storage when it was ours.
func (h *Handler) UploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in struct {
		ImageData string `json:"imageData"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "profile photo: decode")
		return
	}
	body, ctype, err := objectstore.DecodeBase64Image(in.ImageData)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, MsgNoImageData)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	obj, err := h.Objects.Put(ctx, objectstore.ProfilePhotoKey(u.ID.Hex(), time.Now()), body, ctype)
	if err != nil {
		respond.Err(w, h.Log, err, "profile photo: upload", zap.String("user_id", u.ID.Hex()))
		return
	}
	updated, err := h.Users.SetProfilePhoto(ctx, u.ID, models.ImageRef{
		Provider: models.PhotoProviderAWS,
		Key:      obj.Key,
		Location: obj.Location,
	})
	if err != nil {
		respond.Err(w, h.Log, err, "profile photo: save", zap.String("user_id", u.ID.Hex()))
		return
	}

	if old := u.ProfilePhoto; old != nil && old.Provider == models.PhotoProviderAWS && old.Key != "" && old.Key != obj.Key {
		if err := h.Objects.Delete(ctx, old.Key); err != nil {
			h.Log.Warn("profile photo: old object not deleted", zap.String("key", old.Key), zap.Error(err))
		}
	}

	respond.OK(w, map[string]any{"message": MsgPhotoUpdated, "user": updated})
}

// FindUsers handles GET /find-users?search=&page=&limit=. The older "query"
// parameter name is accepted too.
func (h *Handler) FindUsers(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(query.Get(r, "search"))
	if q == "" {
		q = normalize.QueryParam(query.Get(r, "query"))
	}
	pg := paging.Parse(r, paging.DefaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, total, err := h.Users.Find(ctx, q, pg.Skip(), pg.Limit64())
	if err != nil {
		respond.Err(w, h.Log, err, "find users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.OK(w, map[string]any{
		"users":      users,
		"totalPages": pg.TotalPages(total),
		"page":       pg.Number,
	})
}
