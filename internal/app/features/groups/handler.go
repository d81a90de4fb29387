// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"

	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/activityfeed"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgGroupNotFound     = "Group not found"
	MsgUserNotFound      = "User not found"
	MsgInvalidUserID     = "Invalid user id"
	MsgDuplicateTitle    = "A group with this title already exists"
	MsgInvalidUpdates    = "Invalid updates!"
	MsgInvalidLocation   = "Invalid location"
	MsgNoImageData       = "No image data provided"
	MsgStillHasMembers   = "Group still has members"
	MsgOwnerOnlyDelete   = "Only the group owner can delete the group"
	MsgGroupDeleted      = "Group deleted"
	MsgRequestAccepted   = "Request accepted"
	MsgRequestRejected   = "Request rejected"
	MsgUserBanned        = "User banned"
	MsgUserUnbanned      = "User unbanned"
	MsgModeratorInvited  = "Moderator invitation sent"
	MsgModeratorRemoved  = "Moderator removed"
	MsgModeratorAccepted = "You are now a moderator of this group"
	MsgModeratorDeclined = "Moderator invitation declined"

	bannerPrefix = "group-banners"
)

// Handler serves group endpoints and the membership transitions.
type Handler struct {
	Groups      *groupstore.Store
	Users       *userstore.Store
	Memberships *membershipstore.Store
	Activity    *activitystore.Store
	EventStore  *eventstore.Store
	Comments    *commentstore.Store
	Engine      *membership.Engine
	Objects     objectstore.Store
	Runner      *txn.Runner
	Feed        activityfeed.Publisher
	Log         *zap.Logger
}

func NewHandler(
	groups *groupstore.Store,
	users *userstore.Store,
	memberships *membershipstore.Store,
	activity *activitystore.Store,
	events *eventstore.Store,
	comments *commentstore.Store,
	engine *membership.Engine,
	objects objectstore.Store,
	runner *txn.Runner,
	feed activityfeed.Publisher,
	logger *zap.Logger,
) *Handler {
	if feed == nil {
		feed = activityfeed.Nop{}
	}
	return &Handler{
		Groups:      groups,
		Users:       users,
		Memberships: memberships,
		Activity:    activity,
		EventStore:  events,
		Comments:    comments,
		Engine:      engine,
		Objects:     objects,
		Runner:      runner,
		Feed:        feed,
		Log:         logger,
	}
}

// groupView is a group as the client sees it.
type groupView struct {
	*models.Group
	MemberCount  int64  `json:"memberCount"`
	ButtonAction string `json:"buttonAction"`
}

// view counts members (owner included) and computes the caller's button.
func (h *Handler) view(ctx context.Context, g *models.Group, viewer *models.User) (groupView, error) {
	n, err := h.Memberships.CountByGroup(ctx, g.ID, models.StateMember, models.StateModerator)
	if err != nil {
		return groupView{}, err
	}
	button, err := h.Engine.ButtonAction(ctx, g, viewer)
	if err != nil {
		return groupView{}, err
	}
	return groupView{Group: g, MemberCount: n + 1, ButtonAction: button}, nil
}

// group resolves the {group} URL parameter, which may be an id or a uniqueURL.
func (h *Handler) group(ctx context.Context, r *http.Request) (*models.Group, error) {
	return h.lookup(h.Groups.Resolve(ctx, chi.URLParam(r, "group")))
}

// groupByURL resolves the {uniqueURL} URL parameter.
func (h *Handler) groupByURL(ctx context.Context, r *http.Request) (*models.Group, error) {
	return h.lookup(h.Groups.GetByUniqueURL(ctx, chi.URLParam(r, "uniqueURL")))
}

func (h *Handler) lookup(g *models.Group, err error) (*models.Group, error) {
	if errors.Is(err, groupstore.ErrNotFound) {
		return nil, apperr.NotFound(MsgGroupNotFound)
	}
	if err != nil {
		return nil, err
	}
	if g.Deactivated {
		return nil, apperr.NotFound(MsgGroupNotFound)
	}
	return g, nil
}

// targetUser resolves the {userId} URL parameter to an existing user.
func (h *Handler) targetUser(ctx context.Context, r *http.Request) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		return nil, apperr.Validation(MsgInvalidUserID)
	}
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	return u, err
}

// requireManager fails with Forbidden unless userID owns or moderates g.
func (h *Handler) requireManager(ctx context.Context, g *models.Group, userID primitive.ObjectID) error {
	ok, err := h.Engine.CanManage(ctx, g, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(membership.MsgCannotManage)
	}
	return nil
}

// logGroupActivity appends an activity entry outside the membership engine
// (group edits). Failures are logged only.
func (h *Handler) logGroupActivity(ctx context.Context, groupID, userID primitive.ObjectID, action models.ActivityAction) {
	entry, err := h.Activity.Append(ctx, models.ActivityLog{GroupID: groupID, UserID: userID, Action: action})
	if err != nil {
		h.Log.Warn("activity log append failed",
			zap.String("group_id", groupID.Hex()),
			zap.String("action", string(action)),
			zap.Error(err))
		return
	}
	h.Feed.Publish(ctx, entry)
}
