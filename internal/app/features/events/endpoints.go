// internal/app/features/events/endpoints.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/clubbera/internal/app/features/shared"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	EventDate   string        `json:"eventDate"`
	StartTime   string        `json:"startTime"`
	EndTime     string        `json:"endTime"`
	Slots       int           `json:"slots"`
	Location    *models.Place `json:"location"`
	Base64Data  string        `json:"base64data"`
	FileName    string        `json:"fileName"`
}

// Create handles POST /events/{groupUniqueURL}. Owners and moderators of the
// group may create events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.Groups.GetByUniqueURL(ctx, chi.URLParam(r, "groupUniqueURL"))
	if errors.Is(err, groupstore.ErrNotFound) || (err == nil && g.Deactivated) {
		respond.Error(w, http.StatusNotFound, MsgGroupNotFound)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "create event: group")
		return
	}
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "create event: authorize")
		return
	}

	var in createInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "create event: decode")
		return
	}
	fields := eventFields{
		Name:        normalize.Name(htmlsanitize.PlainText(in.Name)),
		Description: htmlsanitize.Rich(in.Description),
		Slots:       in.Slots,
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}
	e := models.Event{
		Creator:     u.ID,
		GroupID:     g.ID,
		Name:        fields.Name,
		Description: fields.Description,
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
		Slots:       in.Slots,
		Location:    in.Location,
	}
	if in.EventDate != "" {
		t, ok := parseDate(in.EventDate)
		if !ok {
			respond.Error(w, http.StatusBadRequest, MsgInvalidDate)
			return
		}
		e.EventDate = &t
	}
	if !validClock(e.StartTime) || !validClock(e.EndTime) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidTime)
		return
	}
	if !validPlace(e.Location) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidLocation)
		return
	}

	if in.Base64Data != "" && in.FileName != "" {
		ref, err := shared.UploadBanner(ctx, h.Objects, bannerPrefix, in.Base64Data, in.FileName)
		if errors.Is(err, objectstore.ErrNoImageData) {
			respond.Error(w, http.StatusBadRequest, MsgNoImageData)
			return
		}
		if err != nil {
			respond.Err(w, h.Log, err, "create event: upload banner", zap.String("group_id", g.ID.Hex()))
			return
		}
		e.Banner = &ref
	}

	created, err := h.Events.Create(ctx, e)
	if err != nil {
		shared.DiscardBanner(ctx, h.Objects, e.Banner, h.Log)
		respond.Err(w, h.Log, err, "create event", zap.String("group_id", g.ID.Hex()))
		return
	}
	h.Log.Info("event created", zap.String("event_id", created.ID.Hex()), zap.String("group_id", g.ID.Hex()))
	respond.Created(w, created)
}

// Get handles GET /events/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, _, err := h.event(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "get event")
		return
	}
	respond.OK(w, e)
}

// Update handles PATCH /events/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	e, g, err := h.event(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "update event")
		return
	}
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "update event: authorize")
		return
	}

	var raw map[string]json.RawMessage
	if err := respond.DecodeJSON(r, &raw); err != nil {
		respond.Error(w, http.StatusBadRequest, MsgInvalidUpdates)
		return
	}
	upd, msg := parseEventUpdate(raw, e)
	if msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}
	updated, err := h.Events.Update(ctx, e.ID, upd)
	if err != nil {
		respond.Err(w, h.Log, storeErr(err), "update event", zap.String("event_id", e.ID.Hex()))
		return
	}
	respond.OK(w, updated)
}

type bannerInput struct {
	Base64Data string `json:"base64data"`
	FileName   string `json:"fileName"`
}

// ChangeBanner handles PATCH /events/{id}/banner.
func (h *Handler) ChangeBanner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	e, g, err := h.event(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "event banner")
		return
	}
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "event banner: authorize")
		return
	}

	var in bannerInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "event banner: decode")
		return
	}
	if in.Base64Data == "" || in.FileName == "" {
		respond.Error(w, http.StatusBadRequest, MsgNoImageData)
		return
	}
	ref, err := shared.UploadBanner(ctx, h.Objects, bannerPrefix, in.Base64Data, in.FileName)
	if errors.Is(err, objectstore.ErrNoImageData) {
		respond.Error(w, http.StatusBadRequest, MsgNoImageData)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "event banner: upload", zap.String("event_id", e.ID.Hex()))
		return
	}

	updated, err := h.Events.SetBanner(ctx, e.ID, ref)
	if err != nil {
		shared.DiscardBanner(ctx, h.Objects, &ref, h.Log)
		respond.Err(w, h.Log, storeErr(err), "event banner: save", zap.String("event_id", e.ID.Hex()))
		return
	}
	shared.DiscardBanner(ctx, h.Objects, e.Banner, h.Log)
	respond.OK(w, updated)
}

// Attend handles POST /events/{id}/attend. Only group members may attend,
// and never beyond the event's slots.
func (h *Handler) Attend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	e, g, err := h.event(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "attend event")
		return
	}
	ok, err := h.Engine.IsMember(ctx, g, u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "attend event: membership", zap.String("event_id", e.ID.Hex()))
		return
	}
	if !ok {
		respond.Err(w, h.Log, apperr.Forbidden(MsgMustBeMember), "attend event")
		return
	}
	updated, err := h.Events.Attend(ctx, e.ID, u.ID)
	if err != nil {
		respond.Err(w, h.Log, storeErr(err), "attend event", zap.String("event_id", e.ID.Hex()))
		return
	}
	respond.OK(w, updated)
}

// Unattend handles POST /events/{id}/unattend.
func (h *Handler) Unattend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	e, _, err := h.event(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "unattend event")
		return
	}
	updated, err := h.Events.Unattend(ctx, e.ID, u.ID)
	if err != nil {
		respond.Err(w, h.Log, storeErr(err), "unattend event", zap.String("event_id", e.ID.Hex()))
		return
	}
	respond.OK(w, updated)
}
