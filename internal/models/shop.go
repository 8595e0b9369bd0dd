package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shop is a restaurant owned by a user with the owner role.
type Shop struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	City      string             `bson:"city" json:"city"`
	State     string             `bson:"state" json:"state"`
	Address   string             `bson:"address" json:"address"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"` // S3 object key
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
