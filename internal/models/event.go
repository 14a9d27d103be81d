package models

import "time"

// Event is a family calendar entry, either local or mirrored from a provider
type Event struct {
	ID                   int64      `json:"id"`
	FamilyID             int64      `json:"family_id"`
	CalendarConnectionID *int64     `json:"calendar_connection_id,omitempty"`
	ExternalEventID      *string    `json:"external_event_id,omitempty"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Location             string     `json:"location,omitempty"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	AllDay               bool       `json:"all_day"`
	AssignedMemberID     *int64     `json:"assigned_member_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
