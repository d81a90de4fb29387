// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipState is the relationship between one user and one group.
// StateNone is never stored: it is the absence of a document.
type MembershipState string

const (
	StateNone      MembershipState = ""
	StateRequested MembershipState = "requested"
	StateMember    MembershipState = "member"
	StateModerator MembershipState = "moderator"
	StateBanned    MembershipState = "banned"
)

// IsMember reports whether the state grants membership (moderators are members).
func (s MembershipState) IsMember() bool {
	return s == StateMember || s == StateModerator
}

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (group_id, user_id); state is a scalar.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"groupId"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	State     MembershipState    `bson:"state" json:"state"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
