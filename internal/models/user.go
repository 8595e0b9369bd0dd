package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role determines which dashboard a user sees and which realtime
// events their connection is addressed with.
type Role string

const (
	RoleUser        Role = "user"
	RoleOwner       Role = "owner"
	RoleDeliveryBoy Role = "deliveryBoy"
)

// User represents an account in the system.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Email        string             `bson:"email" json:"email"`
	Mobile       string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	PasswordHash string             `bson:"password" json:"-"` // Store hash, not plaintext
	Role         Role               `bson:"role" json:"role"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether r is one of the known dashboard roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleOwner, RoleDeliveryBoy:
		return true
	}
	return false
}
