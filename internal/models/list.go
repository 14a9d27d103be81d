package models

import "time"

const DefaultListType = "grocery"

// List is a family shopping or to-do list
type List struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ListItem represents an entry in a list
type ListItem struct {
	ID               int64      `json:"id"`
	ListID           int64      `json:"list_id"`
	Title            string     `json:"title"`
	Purchased        bool       `json:"purchased"`
	AssignedMemberID *int64     `json:"assigned_member_id,omitempty"`
	PurchasedAt      *time.Time `json:"purchased_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ListWithItems combines a list with its items
type ListWithItems struct {
	List
	Items []ListItem `json:"items"`
}
