// internal/app/features/groups/edit.go
package groups

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/features/shared"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

// Edit handles PATCH /group/{group}/edit. Owners and moderators may change
// the whitelisted fields; any other key rejects the whole update.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "edit group")
		return
	}
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "edit group: authorize")
		return
	}

	var raw map[string]json.RawMessage
	if err := respond.DecodeJSON(r, &raw); err != nil {
		respond.Error(w, http.StatusBadRequest, MsgInvalidUpdates)
		return
	}
	upd, msg := parseGroupUpdate(raw, g)
	if msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.Groups.Update(ctx, g.ID, upd)
	switch {
	case errors.Is(err, groupstore.ErrDuplicateTitle):
		respond.Error(w, http.StatusBadRequest, MsgDuplicateTitle)
		return
	case errors.Is(err, groupstore.ErrNotFound):
		respond.Error(w, http.StatusNotFound, MsgGroupNotFound)
		return
	case err != nil:
		respond.Err(w, h.Log, err, "edit group", zap.String("group_id", g.ID.Hex()))
		return
	}

	h.logGroupActivity(ctx, g.ID, u.ID, models.ActionEditedGroup)
	respond.OK(w, updated)
}

type bannerInput struct {
	Base64Data string `json:"base64data"`
	FileName   string `json:"fileName"`
}

// ChangeBanner handles PATCH /group/{group}/changebanner. The previous banner
// object is deleted after the group points at the new one.
func (h *Handler) ChangeBanner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "change banner")
		return
	}
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "change banner: authorize")
		return
	}

	var in bannerInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "change banner: decode")
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
		respond.Err(w, h.Log, err, "change banner: upload", zap.String("group_id", g.ID.Hex()))
		return
	}

	updated, err := h.Groups.SetBanner(ctx, g.ID, ref)
	if err != nil {
		shared.DiscardBanner(ctx, h.Objects, &ref, h.Log)
		respond.Err(w, h.Log, err, "change banner: save", zap.String("group_id", g.ID.Hex()))
		return
	}
	shared.DiscardBanner(ctx, h.Objects, g.Banner, h.Log)

	h.logGroupActivity(ctx, g.ID, u.ID, models.ActionEditedGroup)
	respond.OK(w, updated)
}

// Delete handles DELETE /group/{group}. Only the owner may delete, and only
// once every other member has left. Memberships (requests and bans), events,
// comments, and pending moderator invitations go with it. The activity log is
// kept as history.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete group")
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "delete group")
		return
	}
	if !g.IsOwner(u.ID) {
		respond.Error(w, http.StatusForbidden, MsgOwnerOnlyDelete)
		return
	}

	n, err := h.Memberships.CountByGroup(ctx, g.ID, models.StateMember, models.StateModerator)
	if err != nil {
		respond.Err(w, h.Log, err, "delete group: count members", zap.String("group_id", g.ID.Hex()))
		return
	}
	if n > 0 {
		respond.Error(w, http.StatusBadRequest, MsgStillHasMembers)
		return
	}

	_, err = h.Runner.Do(ctx, func(ctx context.Context) error {
		if _, err := h.Memberships.DeleteByGroup(ctx, g.ID); err != nil {
			return err
		}
		if _, err := h.EventStore.DeleteByGroup(ctx, g.ID); err != nil {
			return err
		}
		if _, err := h.Comments.DeleteByGroup(ctx, g.ID); err != nil {
			return err
		}
		if _, err := h.Users.ClearModeratorInvitations(ctx, g.ID); err != nil {
			return err
		}
		return h.Groups.Delete(ctx, g.ID)
	})
	if errors.Is(err, groupstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, MsgGroupNotFound)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "delete group", zap.String("group_id", g.ID.Hex()))
		return
	}
	shared.DiscardBanner(ctx, h.Objects, g.Banner, h.Log)

	h.Log.Info("group deleted", zap.String("group_id", g.ID.Hex()), zap.String("owner", u.ID.Hex()))
	respond.Message(w, MsgGroupDeleted)
}
