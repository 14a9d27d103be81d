package models

import "time"

type Chore struct {
	ID               int64      `json:"id"`
	FamilyID         int64      `json:"family_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	AssignedMemberID *int64     `json:"assigned_member_id,omitempty"`
	Points           int        `json:"points"`
	Recurring        string     `json:"recurring,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ChoreCompletion credits points to the persona that did the chore
type ChoreCompletion struct {
	ID            int64     `json:"id"`
	ChoreID       int64     `json:"chore_id"`
	CompletedByID int64     `json:"completed_by_id"`
	PointsAwarded int       `json:"points_awarded"`
	Notes         string    `json:"notes,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}
