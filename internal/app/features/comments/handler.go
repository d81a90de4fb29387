// internal/app/features/comments/handler.go
package comments

import (
	"context"
	"net/http"
	"strings"

	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	commentsvc "github.com/dalemusser/clubbera/internal/app/system/comments"
	"github.com/dalemusser/clubbera/internal/app/system/paging"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgInvalidGroupID   = "Invalid group id"
	MsgInvalidCommentID = "Invalid comment id"
	MsgInvalidSort      = "Invalid sort field"
)

// Handler serves the comment wall and reply threads.
type Handler struct {
	Comments *commentsvc.Service
	Log      *zap.Logger
}

func NewHandler(svc *commentsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Comments: svc, Log: logger}
}

type contentInput struct {
	Content string `json:"content"`
}

func objectIDParam(r *http.Request, key, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(msg)
	}
	return id, nil
}

// listParams reads page, limit, sortBy, and order. Group walls default to
// newest first; reply threads pass desc=false to read oldest first.
func listParams(r *http.Request, desc bool) (commentstore.ListParams, error) {
	pg := paging.Parse(r, paging.DefaultLimit)
	p := commentstore.ListParams{SortBy: "createdAt", Desc: desc, Skip: pg.Skip(), Limit: pg.Limit64()}
	if s := strings.TrimSpace(query.Get(r, "sortBy")); s != "" {
		if !commentstore.ValidSortBy(s) {
			return p, apperr.Validation(MsgInvalidSort)
		}
		p.SortBy = s
	}
	switch strings.ToLower(query.Get(r, "order")) {
	case "asc":
		p.Desc = false
	case "desc":
		p.Desc = true
	}
	return p, nil
}

// Create handles POST /group/{groupId}/comment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	gid, err := objectIDParam(r, "groupId", MsgInvalidGroupID)
	if err != nil {
		respond.Err(w, h.Log, err, "create comment")
		return
	}
	var in contentInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "create comment: decode")
		return
	}
	c, err := h.Comments.Create(ctx, u, gid, in.Content)
	if err != nil {
		respond.Err(w, h.Log, err, "create comment", zap.String("group_id", gid.Hex()))
		return
	}
	respond.Created(w, c)
}

// Reply handles POST /comment/{commentId}/reply.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	pid, err := objectIDParam(r, "commentId", MsgInvalidCommentID)
	if err != nil {
		respond.Err(w, h.Log, err, "reply")
		return
	}
	var in contentInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "reply: decode")
		return
	}
	c, err := h.Comments.Reply(ctx, u, pid, in.Content)
	if err != nil {
		respond.Err(w, h.Log, err, "reply", zap.String("parent_id", pid.Hex()))
		return
	}
	respond.Created(w, c)
}

// Delete handles DELETE /comment/{commentId} for the comment's author.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	id, err := objectIDParam(r, "commentId", MsgInvalidCommentID)
	if err != nil {
		respond.Err(w, h.Log, err, "delete comment")
		return
	}
	if err := h.Comments.DeleteOwn(ctx, u, id); err != nil {
		respond.Err(w, h.Log, err, "delete comment", zap.String("comment_id", id.Hex()))
		return
	}
	respond.Message(w, commentsvc.MsgDeleted)
}

// ModeratorDelete handles DELETE /admin-delete-comment/{commentId}: a site
// admin or a manager of the comment's group removes it with its replies.
func (h *Handler) ModeratorDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "moderator delete comment")
	defer cancel()

	u, _ := auth.CurrentUser(r)
	id, err := objectIDParam(r, "commentId", MsgInvalidCommentID)
	if err != nil {
		respond.Err(w, h.Log, err, "moderator delete comment")
		return
	}
	n, err := h.Comments.ModeratorDelete(ctx, u, id)
	if err != nil {
		respond.Err(w, h.Log, err, "moderator delete comment", zap.String("comment_id", id.Hex()))
		return
	}
	h.Log.Info("comment removed by moderator",
		zap.String("comment_id", id.Hex()),
		zap.String("actor", u.ID.Hex()),
		zap.Int64("replies", n))
	respond.Message(w, commentsvc.MsgDeletedWithThread)
}

// ListForGroup handles GET /group/{groupId}/comments.
func (h *Handler) ListForGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gid, err := objectIDParam(r, "groupId", MsgInvalidGroupID)
	if err != nil {
		respond.Err(w, h.Log, err, "list comments")
		return
	}
	p, err := listParams(r, true)
	if err != nil {
		respond.Err(w, h.Log, err, "list comments")
		return
	}
	list, _, err := h.Comments.ListForGroup(ctx, gid, p)
	if err != nil {
		respond.Err(w, h.Log, err, "list comments", zap.String("group_id", gid.Hex()))
		return
	}
	respond.OK(w, list)
}

// ListReplies handles GET /comment/{commentId}/replies.
func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := objectIDParam(r, "commentId", MsgInvalidCommentID)
	if err != nil {
		respond.Err(w, h.Log, err, "list replies")
		return
	}
	p, err := listParams(r, false)
	if err != nil {
		respond.Err(w, h.Log, err, "list replies")
		return
	}
	list, _, err := h.Comments.ListReplies(ctx, id, p)
	if err != nil {
		respond.Err(w, h.Log, err, "list replies", zap.String("comment_id", id.Hex()))
		return
	}
	respond.OK(w, list)
}
