package models

import "time"

const DefaultUserRole = "parent"

// User is the application profile mirroring an external identity.
// ID is always the identity provider's id, never allocated locally.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
