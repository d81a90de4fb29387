// internal/app/features/groups/actions.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Join handles POST /group/{group}/join and answers with the refreshed group.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, "join group", h.Engine.Join)
}

// Leave handles POST /group/{group}/leave.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.selfService(w, r, "leave group", h.Engine.Leave)
}

func (h *Handler) selfService(
	w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, *models.Group, primitive.ObjectID) (models.MembershipState, error),
) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, op)
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, op)
		return
	}
	st, err := fn(ctx, g, u.ID)
	if err != nil {
		respond.Err(w, h.Log, err, op, zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()))
		return
	}
	h.Log.Debug(op, zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()), zap.String("state", string(st)))

	v, err := h.view(ctx, g, u)
	if err != nil {
		respond.Err(w, h.Log, err, op+": view", zap.String("group_id", g.ID.Hex()))
		return
	}
	respond.OK(w, v)
}

type moderationFunc func(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error

// AcceptRequest handles POST /group/{group}/accept-request/{userId}.
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "accept request", h.Engine.AcceptRequest, MsgRequestAccepted)
}

// RejectRequest handles POST /group/{group}/reject-request/{userId}.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "reject request", h.Engine.RejectRequest, MsgRequestRejected)
}

// Ban handles POST /group/{group}/ban-user/{userId}.
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "ban user", h.Engine.Ban, MsgUserBanned)
}

// Unban handles POST /group/{group}/unban-user/{userId}.
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "unban user", h.Engine.Unban, MsgUserUnbanned)
}

// AddModerator handles POST /group/{group}/add-moderator/{userId}. The target
// gets an invitation; the role changes when they accept it.
func (h *Handler) AddModerator(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "invite moderator", h.Engine.InviteModerator, MsgModeratorInvited)
}

// RemoveModerator handles POST /group/{group}/remove-moderator/{userId}.
func (h *Handler) RemoveModerator(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "remove moderator", h.Engine.RemoveModerator, MsgModeratorRemoved)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, op string, fn moderationFunc, done string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, op)
	defer cancel()

	actor, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, op)
		return
	}
	target, err := h.targetUser(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, op+": target", zap.String("group_id", g.ID.Hex()))
		return
	}
	if err := fn(ctx, g, actor.ID, target.ID); err != nil {
		respond.Err(w, h.Log, err, op,
			zap.String("group_id", g.ID.Hex()),
			zap.String("actor", actor.ID.Hex()),
			zap.String("target", target.ID.Hex()))
		return
	}
	h.Log.Info(op,
		zap.String("group_id", g.ID.Hex()),
		zap.String("actor", actor.ID.Hex()),
		zap.String("target", target.ID.Hex()))
	respond.Message(w, done)
}

// AcceptModerator handles POST /group/{group}/accept-moderator.
func (h *Handler) AcceptModerator(w http.ResponseWriter, r *http.Request) {
	h.answerInvitation(w, r, "accept moderator invitation", h.Engine.AcceptModeratorInvitation, MsgModeratorAccepted)
}

// RejectModerator handles POST /group/{group}/reject-moderator.
func (h *Handler) RejectModerator(w http.ResponseWriter, r *http.Request) {
	h.answerInvitation(w, r, "reject moderator invitation", h.Engine.RejectModeratorInvitation, MsgModeratorDeclined)
}

func (h *Handler) answerInvitation(
	w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, *models.Group, primitive.ObjectID) error, done string,
) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, op)
	defer cancel()

	u, _ := auth.CurrentUser(r)
	g, err := h.group(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, op)
		return
	}
	if err := fn(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, op, zap.String("group_id", g.ID.Hex()), zap.String("user_id", u.ID.Hex()))
		return
	}
	respond.Message(w, done)
}
