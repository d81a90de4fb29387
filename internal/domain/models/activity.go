package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityAction names a membership or moderation event.
type ActivityAction string

const (
	ActionRequestSent      ActivityAction = "request_sent"
	ActionRetractedRequest ActivityAction = "retracted_request"
	ActionJoined           ActivityAction = "joined"
	ActionLeft             ActivityAction = "left"
	ActionRequestApproved  ActivityAction = "request_approved"
	ActionRequestDenied    ActivityAction = "request_denied"
	ActionRemoved          ActivityAction = "removed"
	ActionBanned           ActivityAction = "banned"
	ActionUnbanned         ActivityAction = "unbanned"
	ActionModeratorInvited ActivityAction = "moderator_invited"
	ActionModeratorAdded   ActivityAction = "moderator_added"
	ActionModeratorRemoved ActivityAction = "moderator_removed"
	ActionCommented        ActivityAction = "commented"
	ActionEditedGroup      ActivityAction = "edited_group"
)

// ActivityLog is one append-only entry in the group activity trail.
type ActivityLog struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	GroupID   primitive.ObjectID  `bson:"group_id" json:"groupId"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"userId"`
	CommentID *primitive.ObjectID `bson:"comment_id,omitempty" json:"commentId,omitempty"`
	MeetingID *primitive.ObjectID `bson:"meeting_id,omitempty" json:"meetingId,omitempty"`
	Action    ActivityAction      `bson:"action" json:"action"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}
