package models

import "time"

// CalendarConnection links a user's external calendar to a family.
// Tokens are stored sealed and never serialized.
type CalendarConnection struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	FamilyID     int64      `json:"family_id"`
	AccountEmail string     `json:"account_email,omitempty"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	SyncStatus   string     `json:"sync_status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SyncResult counts the events written by a calendar sync
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
