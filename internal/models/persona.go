package models

import "time"

const DefaultPersonaColor = "#4A90E2"

// FamilyMember is a named avatar inside a family. Children who never sign in
// are personas too; UserID is set only when the persona represents a user.
type FamilyMember struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	UserID    *string   `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	BirthYear *int      `json:"birth_year,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointsTotal is one leaderboard row
type PointsTotal struct {
	MemberID    int64  `json:"member_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Points      int    `json:"points"`
	Completions int    `json:"completions"`
}
