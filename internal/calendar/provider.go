// Package calendar talks to external calendar providers.
package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Event is a provider event mapped one-to-one onto a local event row
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         *time.Time
	AllDay      bool
}

// Provider is the narrow surface the calendar service needs from a calendar API
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	AccountEmail(ctx context.Context, accessToken string) (string, error)
	ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]Event, error)
}
