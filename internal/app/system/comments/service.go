// Package comments implements threaded group comments: top-level posts on a
// group, replies to comments, and the two deletion paths.
package comments

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	"github.com/dalemusser/clubbera/internal/app/system/activityfeed"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxLength bounds comment content, in characters.
const MaxLength = 2000

const (
	MsgGroupNotFound     = "Group not found"
	MsgCommentNotFound   = "Comment not found"
	MsgMustBeMember      = "You must be a member of this group to comment"
	MsgMustBeMemberReply = "You must be a member of this group to reply to a comment"
	MsgNoPermission      = "You do not have permission to delete this comment"
	MsgHasReplies        = "Cannot delete a comment with replies"
	MsgContentRequired   = "Comment content is required"
	MsgContentTooLong    = "Comment must be at most 2000 characters"
	MsgDeleted           = "Comment deleted"
	MsgDeletedWithThread = "Comment and its replies deleted"
)

// Service coordinates the comment store with group membership.
type Service struct {
	comments *commentstore.Store
	groups   *groupstore.Store
	members  *membership.Engine
	activity *activitystore.Store
	txn      *txn.Runner
	feed     activityfeed.Publisher
	log      *zap.Logger
}

func New(c *commentstore.Store, g *groupstore.Store, m *membership.Engine, a *activitystore.Store, runner *txn.Runner, feed activityfeed.Publisher, log *zap.Logger) *Service {
	if feed == nil {
		feed = activityfeed.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{comments: c, groups: g, members: m, activity: a, txn: runner, feed: feed, log: log}
}

// CleanContent strips markup and enforces the length bounds.
func CleanContent(raw string) (string, error) {
	s := strings.TrimSpace(htmlsanitize.PlainText(raw))
	if s == "" {
		return "", apperr.Validation(MsgContentRequired)
	}
	if utf8.RuneCountInString(s) > MaxLength {
		return "", apperr.Validation(MsgContentTooLong)
	}
	return s, nil
}

// Create posts a top-level comment on a group. The author must be a member.
func (s *Service) Create(ctx context.Context, author *models.User, groupID primitive.ObjectID, content string) (models.Comment, error) {
	g, err := s.group(ctx, groupID)
	if err != nil {
		return models.Comment{}, err
	}
	ok, err := s.members.IsMember(ctx, g, author.ID)
	if err != nil {
		return models.Comment{}, err
	}
	if !ok {
		return models.Comment{}, apperr.Forbidden(MsgMustBeMember)
	}
	text, err := CleanContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	c, err := s.comments.Create(ctx, models.Comment{
		Content: text,
		Author:  author.ID,
		Target:  models.GroupTarget(g.ID),
	})
	if err != nil {
		return models.Comment{}, err
	}
	s.logCommented(ctx, g.ID, author.ID, c.ID)
	return c, nil
}

// Reply answers a top-level comment. Threads are one level deep: the parent
// must target a group, and the author must be a member of it.
func (s *Service) Reply(ctx context.Context, author *models.User, parentID primitive.ObjectID, content string) (models.Comment, error) {
	parent, err := s.comment(ctx, parentID)
	if err != nil {
		return models.Comment{}, err
	}
	if parent.Target.Kind != models.TargetGroup {
		return models.Comment{}, apperr.NotFound(MsgGroupNotFound)
	}
	g, err := s.group(ctx, parent.Target.ID)
	if err != nil {
		return models.Comment{}, err
	}
	ok, err := s.members.IsMember(ctx, g, author.ID)
	if err != nil {
		return models.Comment{}, err
	}
	if !ok {
		return models.Comment{}, apperr.Forbidden(MsgMustBeMemberReply)
	}
	text, err := CleanContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	c, err := s.comments.Create(ctx, models.Comment{
		Content: text,
		Author:  author.ID,
		Target:  models.ReplyTarget(parent.ID),
	})
	if err != nil {
		return models.Comment{}, err
	}
	s.logCommented(ctx, g.ID, author.ID, c.ID)
	return c, nil
}

// DeleteOwn lets an author remove their comment while it has no replies.
func (s *Service) DeleteOwn(ctx context.Context, user *models.User, id primitive.ObjectID) error {
	c, err := s.comment(ctx, id)
	if err != nil {
		return err
	}
	if c.Author != user.ID {
		return apperr.Forbidden(MsgNoPermission)
	}
	n, err := s.comments.CountReplies(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Validation(MsgHasReplies)
	}
	if err := s.comments.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, commentstore.ErrNotFound) {
			return apperr.NotFound(MsgCommentNotFound)
		}
		return err
	}
	return nil
}

// ModeratorDelete removes a comment and its direct replies. Allowed for site
// admins and the owner or moderators of the comment's group. It returns the
// number of replies removed.
func (s *Service) ModeratorDelete(ctx context.Context, user *models.User, id primitive.ObjectID) (int64, error) {
	c, err := s.comment(ctx, id)
	if err != nil {
		return 0, err
	}
	if !user.IsAdmin {
		g, err := s.groupOf(ctx, c)
		if err != nil {
			return 0, err
		}
		ok, err := s.members.CanManage(ctx, g, user.ID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, apperr.Forbidden(MsgNoPermission)
		}
	}

	var replies int64
	inTxn, err := s.txn.Do(ctx, func(ctx context.Context) error {
		n, err := s.comments.DeleteReplies(ctx, c.ID)
		if err != nil {
			return err
		}
		replies = n
		return s.comments.Delete(ctx, c.ID)
	})
	if errors.Is(err, commentstore.ErrNotFound) {
		return 0, apperr.NotFound(MsgCommentNotFound)
	}
	if err != nil {
		if !inTxn {
			s.log.Error("comment cascade delete incomplete",
				zap.Error(err), zap.String("comment_id", c.ID.Hex()))
		}
		return 0, err
	}
	return replies, nil
}

// ListForGroup pages through a group's top-level comments.
func (s *Service) ListForGroup(ctx context.Context, groupID primitive.ObjectID, p commentstore.ListParams) ([]models.Comment, int64, error) {
	if _, err := s.group(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.comments.ListByTarget(ctx, models.GroupTarget(groupID), p)
}

// ListReplies pages through the replies to a comment, oldest first.
func (s *Service) ListReplies(ctx context.Context, id primitive.ObjectID, p commentstore.ListParams) ([]models.Comment, int64, error) {
	if _, err := s.comment(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.comments.ListByTarget(ctx, models.ReplyTarget(id), p)
}

// helpers

func (s *Service) group(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if errors.Is(err, groupstore.ErrNotFound) {
		return nil, apperr.NotFound(MsgGroupNotFound)
	}
	return g, err
}

func (s *Service) comment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, commentstore.ErrNotFound) {
		return nil, apperr.NotFound(MsgCommentNotFound)
	}
	return c, err
}

// groupOf resolves the group a comment belongs to. A reply is walked up one
// level to its parent.
func (s *Service) groupOf(ctx context.Context, c *models.Comment) (*models.Group, error) {
	target := c.Target
	if target.Kind == models.TargetComment {
		parent, err := s.comments.GetByID(ctx, target.ID)
		if errors.Is(err, commentstore.ErrNotFound) {
			return nil, apperr.NotFound(MsgGroupNotFound)
		}
		if err != nil {
			return nil, err
		}
		target = parent.Target
	}
	if target.Kind != models.TargetGroup {
		return nil, apperr.NotFound(MsgGroupNotFound)
	}
	return s.group(ctx, target.ID)
}

func (s *Service) logCommented(ctx context.Context, groupID, userID, commentID primitive.ObjectID) {
	entry, err := s.activity.Append(ctx, models.ActivityLog{
		GroupID:   groupID,
		UserID:    userID,
		CommentID: &commentID,
		Action:    models.ActionCommented,
	})
	if err != nil {
		s.log.Warn("activity append failed",
			zap.Error(err),
			zap.String("group_id", groupID.Hex()),
			zap.String("comment_id", commentID.Hex()))
		return
	}
	s.feed.Publish(ctx, entry)
}
