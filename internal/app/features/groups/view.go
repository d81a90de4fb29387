// internal/app/features/groups/view.go
package groups

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timefmt"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	dateJoinedLayout = "2 Jan 2006"
	timeJoinedLayout = "3:04:05 PM"

	RoleOwner     = "owner"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// Detail handles GET /groups/{uniqueURL}. The bearer token is optional; it
// only changes buttonAction.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.groupByURL(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "group detail")
		return
	}
	viewer, _ := auth.CurrentUser(r)
	v, err := h.view(ctx, g, viewer)
	if err != nil {
		respond.Err(w, h.Log, err, "group detail: view", zap.String("group_id", g.ID.Hex()))
		return
	}
	respond.OK(w, v)
}

type memberView struct {
	models.User
	Role       string `json:"role"`
	DateJoined string `json:"dateJoined,omitempty"`
	TimeJoined string `json:"timeJoined,omitempty"`
	joinedAt   time.Time
}

// Members handles GET /groups/{uniqueURL}/members. The owner is listed first,
// then moderators and members by join time.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.groupByURL(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "group members")
		return
	}

	rows, err := h.Memberships.ListByGroup(ctx, g.ID, models.StateMember, models.StateModerator)
	if err != nil {
		respond.Err(w, h.Log, err, "group members: list", zap.String("group_id", g.ID.Hex()))
		return
	}
	roles := make(map[primitive.ObjectID]string, len(rows)+1)
	fallback := make(map[primitive.ObjectID]time.Time, len(rows)+1)
	ids := []primitive.ObjectID{g.Owner}
	roles[g.Owner] = RoleOwner
	fallback[g.Owner] = g.CreatedAt
	for _, m := range rows {
		ids = append(ids, m.UserID)
		roles[m.UserID] = RoleMember
		if m.State == models.StateModerator {
			roles[m.UserID] = RoleModerator
		}
		fallback[m.UserID] = m.CreatedAt
	}

	users, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		respond.Err(w, h.Log, err, "group members: users", zap.String("group_id", g.ID.Hex()))
		return
	}
	joined, err := h.Activity.LatestByAction(ctx, g.ID, ids, models.ActionJoined)
	if err != nil {
		respond.Err(w, h.Log, err, "group members: join times", zap.String("group_id", g.ID.Hex()))
		return
	}

	members := make([]memberView, 0, len(users))
	for _, u := range users {
		at, ok := joined[u.ID]
		if !ok || roles[u.ID] == RoleOwner {
			at = fallback[u.ID]
		}
		mv := memberView{User: u, Role: roles[u.ID], joinedAt: at}
		if !at.IsZero() {
			mv.DateJoined = at.UTC().Format(dateJoinedLayout)
			mv.TimeJoined = at.UTC().Format(timeJoinedLayout)
		}
		members = append(members, mv)
	}
	sort.SliceStable(members, func(i, j int) bool {
		oi, oj := members[i].Role == RoleOwner, members[j].Role == RoleOwner
		if oi != oj {
			return oi
		}
		return members[i].joinedAt.Before(members[j].joinedAt)
	})

	respond.OK(w, map[string]any{"members": members})
}

type requestView struct {
	models.User
	RequestSent string `json:"requestSent"`
}

// Requests handles GET /groups/{uniqueURL}/requests (owner or moderator).
// requestSent is the age of the request: "3 d", "5 h", "12 min", "40 sec".
func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.groupByURL(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "group requests")
		return
	}
	u, _ := auth.CurrentUser(r)
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "group requests: authorize")
		return
	}

	rows, err := h.Memberships.ListByGroup(ctx, g.ID, models.StateRequested)
	if err != nil {
		respond.Err(w, h.Log, err, "group requests: list", zap.String("group_id", g.ID.Hex()))
		return
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	sentAt := make(map[primitive.ObjectID]time.Time, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
		sentAt[m.UserID] = m.CreatedAt
	}
	logged, err := h.Activity.LatestByAction(ctx, g.ID, ids, models.ActionRequestSent)
	if err != nil {
		respond.Err(w, h.Log, err, "group requests: times", zap.String("group_id", g.ID.Hex()))
		return
	}
	users, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		respond.Err(w, h.Log, err, "group requests: users", zap.String("group_id", g.ID.Hex()))
		return
	}

	now := time.Now()
	out := make([]requestView, 0, len(users))
	for _, ru := range users {
		at, ok := logged[ru.ID]
		if !ok {
			at = sentAt[ru.ID]
		}
		out = append(out, requestView{User: ru, RequestSent: timefmt.Ago(now.Sub(at))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sentAt[out[i].ID].Before(sentAt[out[j].ID])
	})
	respond.OK(w, out)
}

// Banned handles GET /groups/{uniqueURL}/banned (owner or moderator).
func (h *Handler) Banned(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.groupByURL(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "group banned")
		return
	}
	u, _ := auth.CurrentUser(r)
	if err := h.requireManager(ctx, g, u.ID); err != nil {
		respond.Err(w, h.Log, err, "group banned: authorize")
		return
	}

	rows, err := h.Memberships.ListByGroup(ctx, g.ID, models.StateBanned)
	if err != nil {
		respond.Err(w, h.Log, err, "group banned: list", zap.String("group_id", g.ID.Hex()))
		return
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		respond.Err(w, h.Log, err, "group banned: users", zap.String("group_id", g.ID.Hex()))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.OK(w, map[string]any{"banned": users})
}

// Events handles GET /groups/{uniqueURL}/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.groupByURL(ctx, r)
	if err != nil {
		respond.Err(w, h.Log, err, "group events")
		return
	}
	events, err := h.EventStore.ListByGroup(ctx, g.ID)
	if err != nil {
		respond.Err(w, h.Log, err, "group events: list", zap.String("group_id", g.ID.Hex()))
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	respond.OK(w, events)
}
