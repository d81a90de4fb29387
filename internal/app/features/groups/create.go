// internal/app/features/groups/create.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/features/shared"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/normalize"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Title       string        `json:"title"`
	Tagline     string        `json:"tagline"`
	Description string        `json:"description"`
	Location    *models.Place `json:"location"`
	Topics      []string      `json:"topics"`
	IsPrivate   bool          `json:"isPrivate"`
	Base64Data  string        `json:"base64data"`
	FileName    string        `json:"fileName"`
}

// Create handles POST /group and POST /creategroup. The caller becomes the
// owner; a banner is uploaded when base64data and fileName are both given.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in createInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "create group: decode")
		return
	}
	fields := groupFields{
		Title:       normalize.Name(htmlsanitize.PlainText(in.Title)),
		Tagline:     htmlsanitize.PlainText(in.Tagline),
		Description: htmlsanitize.Rich(in.Description),
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if !cleanPlace(in.Location) {
		respond.Error(w, http.StatusBadRequest, MsgInvalidLocation)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g := models.Group{
		Owner:       u.ID,
		Title:       fields.Title,
		Tagline:     fields.Tagline,
		Description: fields.Description,
		Location:    in.Location,
		Topics:      cleanTopics(in.Topics),
		IsPrivate:   in.IsPrivate,
	}
	if in.Base64Data != "" && in.FileName != "" {
		ref, err := shared.UploadBanner(ctx, h.Objects, bannerPrefix, in.Base64Data, in.FileName)
		if errors.Is(err, objectstore.ErrNoImageData) {
			respond.Error(w, http.StatusBadRequest, MsgNoImageData)
			return
		}
		if err != nil {
			respond.Err(w, h.Log, err, "create group: upload banner", zap.String("user_id", u.ID.Hex()))
			return
		}
		g.Banner = &ref
	}

	created, err := h.Groups.Create(ctx, g)
	if errors.Is(err, groupstore.ErrDuplicateTitle) {
		shared.DiscardBanner(ctx, h.Objects, g.Banner, h.Log)
		respond.Error(w, http.StatusBadRequest, MsgDuplicateTitle)
		return
	}
	if err != nil {
		shared.DiscardBanner(ctx, h.Objects, g.Banner, h.Log)
		respond.Err(w, h.Log, err, "create group", zap.String("user_id", u.ID.Hex()))
		return
	}

	h.Log.Info("group created", zap.String("group_id", created.ID.Hex()), zap.String("owner", u.ID.Hex()))
	respond.Created(w, groupView{Group: &created, MemberCount: 1, ButtonAction: membership.ButtonLeave})
}
