package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendee is a user who signed up for an event.
type Attendee struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	Attended bool               `bson:"attended" json:"attended"`
}

// Event is a meeting scheduled under a group.
type Event struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UniqueURL   string             `bson:"unique_url" json:"uniqueURL"`
	Creator     primitive.ObjectID `bson:"creator" json:"creator"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Banner      *ImageRef          `bson:"banner,omitempty" json:"banner,omitempty"`
	Location    *Place             `bson:"location,omitempty" json:"location,omitempty"`
	EventDate   *time.Time         `bson:"event_date,omitempty" json:"eventDate,omitempty"`
	StartTime   string             `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime     string             `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Slots       int                `bson:"slots" json:"slots"` // 0 means unlimited
	Attendees   []Attendee         `bson:"attendees" json:"attendees"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
