package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a learner who signed in through the identity provider.
// Subject is the opaque id the provider issues; progress records are keyed by it.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Subject      string     `json:"subject"`
	Email        string     `json:"email"`
	Name         *string    `json:"name,omitempty"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns the name if set, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
