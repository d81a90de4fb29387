package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TargetKind says what a comment is attached to.
type TargetKind string

const (
	TargetGroup   TargetKind = "Group"
	TargetComment TargetKind = "Comment"
)

// CommentTarget is either a group (top-level comment) or a parent comment (reply).
type CommentTarget struct {
	Kind TargetKind         `bson:"type" json:"targetType"`
	ID   primitive.ObjectID `bson:"id" json:"targetId"`
}

// GroupTarget attaches a comment to a group.
func GroupTarget(groupID primitive.ObjectID) CommentTarget {
	return CommentTarget{Kind: TargetGroup, ID: groupID}
}

// ReplyTarget attaches a comment to a parent comment.
func ReplyTarget(parentID primitive.ObjectID) CommentTarget {
	return CommentTarget{Kind: TargetComment, ID: parentID}
}

// Comment is a post on a group wall or a reply to another comment.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Content   string             `bson:"content" json:"content"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Target    CommentTarget      `bson:"target" json:"target"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
