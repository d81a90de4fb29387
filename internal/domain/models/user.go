// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender values accepted on a user profile.
const (
	GenderMale          = "male"
	GenderFemale        = "female"
	GenderPreferNotSay  = "prefer not to say"
	PhotoProviderAWS    = "aws"
	PhotoProviderGoogle = "google"
)

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderPreferNotSay:
		return true
	}
	return false
}

// ImageRef points at an uploaded image in object storage (or an external
// provider such as a Google profile picture).
type ImageRef struct {
	Provider string `bson:"provider,omitempty" json:"provider,omitempty"`
	Key      string `bson:"key,omitempty" json:"key,omitempty"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`
}

// UserLocation is the coarse home location a user shares on their profile.
type UserLocation struct {
	City string  `bson:"city,omitempty" json:"city,omitempty"`
	Lat  float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng  float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

// ModeratorInvitation is a pending offer from a group owner to make the user
// a moderator. At most one per group.
type ModeratorInvitation struct {
	GroupID primitive.ObjectID `bson:"group_id" json:"groupId"`
	SentAt  time.Time          `bson:"sent_at" json:"sentAt"`
}

// SessionToken is one issued bearer token. Logging out removes it; logging
// out everywhere clears the list.
type SessionToken struct {
	Token     string    `bson:"token" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"-"`
}

// User is an account holder.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
//   - Password, tokens, and one-time tokens never leave the server.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"fullName"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	UniqueURL  string             `bson:"unique_url" json:"uniqueURL"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Gender     string             `bson:"gender" json:"gender"`

	Location     *UserLocation `bson:"location,omitempty" json:"location,omitempty"`
	ProfilePhoto *ImageRef     `bson:"profile_photo,omitempty" json:"profilePhoto,omitempty"`
	Birthday     *time.Time    `bson:"birthday,omitempty" json:"birthday,omitempty"`

	// Interest categories.
	Topics []primitive.ObjectID `bson:"topics,omitempty" json:"topics"`

	IsAdmin          bool `bson:"is_admin" json:"isAdmin"`
	IsVerified       bool `bson:"is_verified" json:"isVerified"`
	IsActive         bool `bson:"is_active" json:"isActive"`
	IsEmailConfirmed bool `bson:"is_email_confirmed" json:"isEmailConfirmed"`

	ModeratorInvitations []ModeratorInvitation `bson:"moderator_invitations,omitempty" json:"moderatorInvitations"`

	Tokens             []SessionToken `bson:"tokens,omitempty" json:"-"`
	EmailConfirmToken  string         `bson:"email_confirm_token,omitempty" json:"-"`
	PasswordResetToken string         `bson:"password_reset_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasInvitation reports whether the user holds a pending moderator invitation
// for the group.
func (u *User) HasInvitation(groupID primitive.ObjectID) bool {
	for _, inv := range u.ModeratorInvitations {
		if inv.GroupID == groupID {
			return true
		}
	}
	return false
}
