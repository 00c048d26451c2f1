// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User status values.
const (
	UserPending = "pending" // registered, OTP not yet verified
	UserActive  = "active"
)

// User is a registered author/reader.
//
// NOTE:
//   - Only one refresh token ID is stored, so a new login replaces any
//     earlier session.
//   - Preferences reference documents in the categories collection.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName    string               `bson:"first_name" json:"firstName"`
	LastName     string               `bson:"last_name" json:"lastName"`
	Email        string               `bson:"email" json:"email"`
	EmailCI      string               `bson:"email_ci" json:"-"` // folded copy, unique index
	Phone        string               `bson:"phone" json:"phone"`
	DOB          time.Time            `bson:"dob" json:"dob"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Preferences  []primitive.ObjectID `bson:"preferences" json:"preferences"`
	ProfileImage string               `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	Status       string               `bson:"status" json:"status"`
	Verified     bool                 `bson:"verified" json:"verified"`
	RefreshID    string               `bson:"refresh_id,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the account completed OTP verification.
func (u User) IsActive() bool {
	return u.Status == UserActive && u.Verified
}
