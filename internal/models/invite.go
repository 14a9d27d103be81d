package models

import "time"

// Invite statuses
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
)

// InviteTTL is how long an invite stays acceptable after creation
const InviteTTL = 7 * 24 * time.Hour

type Invite struct {
	ID         int64      `json:"id"`
	FamilyID   int64      `json:"family_id"`
	Email      string     `json:"email"`
	InvitedBy  string     `json:"invited_by"`
	Token      string     `json:"token,omitempty"`
	Status     string     `json:"status"`
	AcceptedBy *string    `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	FamilyName string     `json:"family_name,omitempty"` // Populated via JOIN
}

// IsExpired reports whether the invite expired before now
func (i *Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

func (i *Invite) IsPending() bool {
	return i.Status == InviteStatusPending
}
