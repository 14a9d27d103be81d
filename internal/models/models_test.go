package models

import (
	"testing"
	"time"
)

func TestInviteIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: now.Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "expires exactly now",
			expiresAt: now,
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: now.Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired last week",
			expiresAt: now.Add(-InviteTTL),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invite := Invite{
				ID:        1,
				Status:    InviteStatusPending,
				ExpiresAt: tt.expiresAt,
				CreatedAt: tt.expiresAt.Add(-InviteTTL),
			}
			if got := invite.IsExpired(now); got != tt.want {
				t.Errorf("Invite.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInviteIsPending(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{InviteStatusPending, true},
		{InviteStatusAccepted, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			invite := Invite{Status: tt.status}
			if got := invite.IsPending(); got != tt.want {
				t.Errorf("Invite.IsPending() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"active", true},
		{"trialing", true},
		{"incomplete", false},
		{"past_due", false},
		{"canceled", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			sub := Subscription{Status: tt.status}
			if got := sub.IsActive(); got != tt.want {
				t.Errorf("Subscription.IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
