package models

import "time"

// Membership roles
const (
	RoleOwner  = "owner"
	RoleParent = "parent"
	RoleMember = "member"
)

// Family is the tenant boundary owning every family-scoped resource
type Family struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Membership grants a user access to a family with a role
type Membership struct {
	ID       int64     `json:"id"`
	FamilyID int64     `json:"family_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// FamilyMembership pairs a family with the caller's role in it
type FamilyMembership struct {
	Family Family `json:"family"`
	Role   string `json:"role"`
}

// MemberUser is a membership joined with the user's profile
type MemberUser struct {
	Membership
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
