// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account that can complete a login-code challenge.
//
// Email is the only credential-bearing field: it is stored lowercase and is
// unique across the collection. Roles are free-form strings mirrored into the
// session when the user logs in.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string             `bson:"email" json:"email"` // canonical (lowercase, trimmed)
	Roles []string           `bson:"roles,omitempty" json:"roles,omitempty"`

	// Extra registration attributes captured when the account was created
	// through the just-in-time registration path (allow-listed keys only).
	Extra map[string]string `bson:"extra,omitempty" json:"extra,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
