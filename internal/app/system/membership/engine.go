// Package membership runs the group membership lifecycle: joining, leaving,
// join requests, bans, and moderator promotion.
//
// Each (group, user) pair has at most one membership document holding its
// state. Every transition is a compare-and-set on that document, so two
// concurrent transitions on the same pair cannot both succeed. The state
// change and its activity entries share a transaction when the deployment
// supports one.
package membership

import (
	"context"
	"errors"
	"time"

	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/activityfeed"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	MsgAlreadyMember      = "You are already a member of this group"
	MsgAlreadyRequested   = "You already have a pending request to join this group"
	MsgBannedFromGroup    = "You are banned from this group"
	MsgOwnerCannotLeave   = "The owner cannot leave the group"
	MsgNotMemberOrPending = "You are not a member or do not have a pending request to join this group"
	MsgNoPendingRequest   = "User does not have a pending request to join this group"
	MsgCannotManage       = "User does not have sufficient permissions"
	MsgCannotBanPrivilege = "You cannot ban the owner or a moderator of this group"
	MsgAlreadyBanned      = "User is already banned from this group"
	MsgNotBanned          = "User is not banned from this group"
	MsgOwnerOnly          = "Only the group owner can manage moderators"
	MsgInviteNotMember    = "User must be a member of this group to become a moderator"
	MsgInvitePending      = "User already has a pending moderator invitation for this group"
	MsgNoInvitation       = "No pending moderator invitation for this group"
	MsgNoLongerMember     = "You are no longer a member of this group"
	MsgNotModerator       = "User is not a moderator of this group"
	MsgRetry              = "Membership changed, please retry"
	MsgUserNotFound       = "User not found"
)

// Button labels shown on a group page.
const (
	ButtonJoin      = "Join group"
	ButtonLeave     = "Leave group"
	ButtonRequested = "Requested"
	ButtonBanned    = "Banned"
)

// Engine applies membership transitions.
type Engine struct {
	memberships *membershipstore.Store
	users       *userstore.Store
	activity    *activitystore.Store
	txn         *txn.Runner
	feed        activityfeed.Publisher
	log         *zap.Logger
	now         func() time.Time
}

// New builds an Engine. A nil feed publishes nothing.
func New(m *membershipstore.Store, u *userstore.Store, a *activitystore.Store, runner *txn.Runner, feed activityfeed.Publisher, log *zap.Logger) *Engine {
	if feed == nil {
		feed = activityfeed.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		memberships: m,
		users:       u,
		activity:    a,
		txn:         runner,
		feed:        feed,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Queries                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// StateOf returns the user's state in the group. The owner is always a member.
func (e *Engine) StateOf(ctx context.Context, g *models.Group, userID primitive.ObjectID) (models.MembershipState, error) {
	if g.IsOwner(userID) {
		return models.StateMember, nil
	}
	return e.memberships.Get(ctx, g.ID, userID)
}

// IsMember reports whether the user is the owner, a member, or a moderator.
func (e *Engine) IsMember(ctx context.Context, g *models.Group, userID primitive.ObjectID) (bool, error) {
	st, err := e.StateOf(ctx, g, userID)
	if err != nil {
		return false, err
	}
	return st.IsMember(), nil
}

// CanManage reports whether the user is the owner or a moderator.
func (e *Engine) CanManage(ctx context.Context, g *models.Group, userID primitive.ObjectID) (bool, error) {
	if g.IsOwner(userID) {
		return true, nil
	}
	st, err := e.memberships.Get(ctx, g.ID, userID)
	if err != nil {
		return false, err
	}
	return st == models.StateModerator, nil
}

// ButtonAction picks the label for the group page's membership button.
// Precedence: Banned, Leave group, Requested, Join group.
func (e *Engine) ButtonAction(ctx context.Context, g *models.Group, u *models.User) (string, error) {
	if u == nil {
		return ButtonJoin, nil
	}
	st, err := e.StateOf(ctx, g, u.ID)
	if err != nil {
		return "", err
	}
	switch {
	case st == models.StateBanned:
		return ButtonBanned, nil
	case st.IsMember():
		return ButtonLeave, nil
	case st == models.StateRequested:
		return ButtonRequested, nil
	}
	return ButtonJoin, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Self-service                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// Join adds the user to the group, or files a join request when the group is
// private. It returns the resulting state.
func (e *Engine) Join(ctx context.Context, g *models.Group, userID primitive.ObjectID) (models.MembershipState, error) {
	if g.IsOwner(userID) {
		return "", apperr.Conflict(MsgAlreadyMember)
	}
	st, err := e.memberships.Get(ctx, g.ID, userID)
	if err != nil {
		return "", err
	}
	switch st {
	case models.StateBanned:
		return "", apperr.Forbidden(MsgBannedFromGroup)
	case models.StateMember, models.StateModerator:
		return "", apperr.Conflict(MsgAlreadyMember)
	case models.StateRequested:
		return "", apperr.Conflict(MsgAlreadyRequested)
	}

	to, action := models.StateMember, models.ActionJoined
	if g.IsPrivate {
		to, action = models.StateRequested, models.ActionRequestSent
	}
	err = e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		if err := e.memberships.Insert(ctx, g.ID, userID, to); err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, userID, action)}, nil
	})
	if err != nil {
		return "", err
	}
	return to, nil
}

// Leave removes a member, or retracts a pending request. It returns the state
// the user left.
func (e *Engine) Leave(ctx context.Context, g *models.Group, userID primitive.ObjectID) (models.MembershipState, error) {
	if g.IsOwner(userID) {
		return "", apperr.Validation(MsgOwnerCannotLeave)
	}
	st, err := e.memberships.Get(ctx, g.ID, userID)
	if err != nil {
		return "", err
	}

	var action models.ActivityAction
	switch st {
	case models.StateMember, models.StateModerator:
		action = models.ActionLeft
	case models.StateRequested:
		action = models.ActionRetractedRequest
	default:
		return "", apperr.Validation(MsgNotMemberOrPending)
	}

	err = e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		if err := e.memberships.Delete(ctx, g.ID, userID, []models.MembershipState{st}); err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, userID, action)}, nil
	})
	if err != nil {
		return "", err
	}
	return st, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Moderation                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// AcceptRequest admits a user with a pending request.
func (e *Engine) AcceptRequest(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if err := e.requireManager(ctx, g, actorID); err != nil {
		return err
	}
	if err := e.requireState(ctx, g, targetID, models.StateRequested, MsgNoPendingRequest); err != nil {
		return err
	}
	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		err := e.memberships.Transition(ctx, g.ID, targetID,
			[]models.MembershipState{models.StateRequested}, models.StateMember)
		if err != nil {
			return nil, err
		}
		return []models.ActivityLog{
			e.entry(g.ID, targetID, models.ActionRequestApproved),
			e.entry(g.ID, targetID, models.ActionJoined),
		}, nil
	})
}

// RejectRequest discards a pending request.
func (e *Engine) RejectRequest(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if err := e.requireManager(ctx, g, actorID); err != nil {
		return err
	}
	if err := e.requireState(ctx, g, targetID, models.StateRequested, MsgNoPendingRequest); err != nil {
		return err
	}
	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		err := e.memberships.Delete(ctx, g.ID, targetID, []models.MembershipState{models.StateRequested})
		if err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, targetID, models.ActionRequestDenied)}, nil
	})
}

// Ban bars a user from the group, removing any membership or request.
func (e *Engine) Ban(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if err := e.requireManager(ctx, g, actorID); err != nil {
		return err
	}
	if g.IsOwner(targetID) {
		return apperr.Validation(MsgCannotBanPrivilege)
	}
	st, err := e.memberships.Get(ctx, g.ID, targetID)
	if err != nil {
		return err
	}
	switch st {
	case models.StateModerator:
		return apperr.Validation(MsgCannotBanPrivilege)
	case models.StateBanned:
		return apperr.Validation(MsgAlreadyBanned)
	}

	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		prev, err := e.memberships.Upsert(ctx, g.ID, targetID, []models.MembershipState{st}, models.StateBanned)
		if err != nil {
			return nil, err
		}
		var out []models.ActivityLog
		if prev == models.StateMember {
			out = append(out, e.entry(g.ID, targetID, models.ActionRemoved))
		}
		return append(out, e.entry(g.ID, targetID, models.ActionBanned)), nil
	})
}

// Unban lifts a ban. The user returns to no relationship with the group.
func (e *Engine) Unban(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if err := e.requireManager(ctx, g, actorID); err != nil {
		return err
	}
	if err := e.requireState(ctx, g, targetID, models.StateBanned, MsgNotBanned); err != nil {
		return err
	}
	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		err := e.memberships.Delete(ctx, g.ID, targetID, []models.MembershipState{models.StateBanned})
		if err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, targetID, models.ActionUnbanned)}, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Moderators                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// InviteModerator records a pending moderator invitation on a plain member.
func (e *Engine) InviteModerator(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if !g.IsOwner(actorID) {
		return apperr.Forbidden(MsgOwnerOnly)
	}
	if g.IsOwner(targetID) {
		return apperr.Validation(MsgInviteNotMember)
	}
	if err := e.requireState(ctx, g, targetID, models.StateMember, MsgInviteNotMember); err != nil {
		return err
	}
	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		err := e.users.AddModeratorInvitation(ctx, targetID, g.ID, e.now())
		switch {
		case errors.Is(err, userstore.ErrInvitePending):
			return nil, apperr.Conflict(MsgInvitePending)
		case errors.Is(err, userstore.ErrNotFound):
			return nil, apperr.NotFound(MsgUserNotFound)
		case err != nil:
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, targetID, models.ActionModeratorInvited)}, nil
	})
}

// AcceptModeratorInvitation promotes the invited user to moderator. The user
// must still be a plain member; otherwise the stale invitation is dropped.
func (e *Engine) AcceptModeratorInvitation(ctx context.Context, g *models.Group, userID primitive.ObjectID) error {
	stale := false
	err := e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		stale = false
		removed, err := e.users.RemoveModeratorInvitation(ctx, userID, g.ID)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, apperr.NotFound(MsgNoInvitation)
		}
		err = e.memberships.Transition(ctx, g.ID, userID,
			[]models.MembershipState{models.StateMember}, models.StateModerator)
		if errors.Is(err, membershipstore.ErrStateChanged) {
			// Keep the invitation removal; the promotion no longer applies.
			stale = true
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, userID, models.ActionModeratorAdded)}, nil
	})
	if err != nil {
		return err
	}
	if stale {
		return apperr.Validation(MsgNoLongerMember)
	}
	return nil
}

// RejectModeratorInvitation drops a pending invitation.
func (e *Engine) RejectModeratorInvitation(ctx context.Context, g *models.Group, userID primitive.ObjectID) error {
	removed, err := e.users.RemoveModeratorInvitation(ctx, userID, g.ID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound(MsgNoInvitation)
	}
	return nil
}

// RemoveModerator demotes a moderator to a plain member.
func (e *Engine) RemoveModerator(ctx context.Context, g *models.Group, actorID, targetID primitive.ObjectID) error {
	if !g.IsOwner(actorID) {
		return apperr.Forbidden(MsgOwnerOnly)
	}
	if err := e.requireState(ctx, g, targetID, models.StateModerator, MsgNotModerator); err != nil {
		return err
	}
	return e.apply(ctx, g.ID, func(ctx context.Context) ([]models.ActivityLog, error) {
		err := e.memberships.Transition(ctx, g.ID, targetID,
			[]models.MembershipState{models.StateModerator}, models.StateMember)
		if err != nil {
			return nil, err
		}
		return []models.ActivityLog{e.entry(g.ID, targetID, models.ActionModeratorRemoved)}, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (e *Engine) requireManager(ctx context.Context, g *models.Group, actorID primitive.ObjectID) error {
	ok, err := e.CanManage(ctx, g, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden(MsgCannotManage)
	}
	return nil
}

func (e *Engine) requireState(ctx context.Context, g *models.Group, userID primitive.ObjectID, want models.MembershipState, msg string) error {
	if g.IsOwner(userID) {
		return apperr.Validation(msg)
	}
	st, err := e.memberships.Get(ctx, g.ID, userID)
	if err != nil {
		return err
	}
	if st != want {
		return apperr.Validation(msg)
	}
	return nil
}

func (e *Engine) entry(groupID, userID primitive.ObjectID, action models.ActivityAction) models.ActivityLog {
	return models.ActivityLog{GroupID: groupID, UserID: userID, Action: action, Timestamp: e.now()}
}

// apply runs change, appends the entries it returns, and publishes them once
// committed. Inside a transaction a failed append rolls the change back;
// without one the change has already committed, so the failure is logged.
func (e *Engine) apply(ctx context.Context, groupID primitive.ObjectID, change func(ctx context.Context) ([]models.ActivityLog, error)) error {
	var written []models.ActivityLog

	_, err := e.txn.Do(ctx, func(ctx context.Context) error {
		written = written[:0]
		entries, err := change(ctx)
		if err != nil {
			return err
		}
		for _, en := range entries {
			saved, err := e.activity.Append(ctx, en)
			if err != nil {
				if txn.InTxn(ctx) {
					return err
				}
				e.log.Error("activity append failed after membership change",
					zap.Error(err),
					zap.String("group_id", groupID.Hex()),
					zap.String("user_id", en.UserID.Hex()),
					zap.String("action", string(en.Action)))
				continue
			}
			written = append(written, saved)
		}
		return nil
	})
	if errors.Is(err, membershipstore.ErrStateChanged) {
		return apperr.Conflict(MsgRetry)
	}
	if err != nil {
		return err
	}

	for _, en := range written {
		e.feed.Publish(ctx, en)
	}
	return nil
}
