package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is an interest tag users pick on their profile.
type Category struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Creator   primitive.ObjectID `bson:"creator" json:"creator"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
