package models

import "time"

// Message is a school or activity message ingested for a family
type Message struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender,omitempty"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Body        string    `json:"body,omitempty"`
	Preview     string    `json:"preview,omitempty"`
	IsUrgent    bool      `json:"is_urgent"`
	IsRead      bool      `json:"is_read"`
	ReceivedAt  time.Time `json:"received_at"`
}
