// Package users manages registered user profiles. A user is created when an
// authenticated caller registers their token's username.
package users

import (
	"time"

	"github.com/google/uuid"
)

// MaxUsernameLength bounds a registered username, in characters.
const MaxUsernameLength = 100

// User is a registered profile. Username is unique.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	CreatedAt *time.Time `json:"created_at"`
}
