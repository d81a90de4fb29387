// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is a GeoJSON point. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Place is a resolved map location as returned by the places picker.
type Place struct {
	PlaceID          string    `bson:"place_id,omitempty" json:"placeId,omitempty"`
	FormattedAddress string    `bson:"formatted_address,omitempty" json:"formattedAddress,omitempty"`
	Name             string    `bson:"name,omitempty" json:"name,omitempty"`
	Types            []string  `bson:"types,omitempty" json:"types,omitempty"`
	Geo              *GeoPoint `bson:"geo,omitempty" json:"geo,omitempty"`
}

// Group is a user-created club.
//
// NOTE:
//   - Member, request, moderator, and ban lists are not embedded on Group.
//     Each (group, user) pair has at most one document in group_memberships.
//   - The owner never has a membership document; they are implicitly a member.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Tagline     string             `bson:"tagline,omitempty" json:"tagline,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	UniqueURL   string             `bson:"unique_url" json:"uniqueURL"`
	Banner      *ImageRef          `bson:"banner,omitempty" json:"banner,omitempty"`
	Location    *Place             `bson:"location,omitempty" json:"location,omitempty"`
	Topics      []string           `bson:"topics,omitempty" json:"topics"`
	IsPrivate   bool               `bson:"is_private" json:"isPrivate"`
	Deactivated bool               `bson:"deactivated" json:"deactivated"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsOwner reports whether userID owns the group.
func (g *Group) IsOwner(userID primitive.ObjectID) bool {
	return g.Owner == userID
}
