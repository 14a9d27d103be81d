package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleAPIBase     = "https://www.googleapis.com"
	googleUserInfoURL = "/oauth2/v2/userinfo"
	googleEventsURL   = "/calendar/v3/calendars/primary/events"
	maxPages          = 10
)

// GoogleProvider reads the primary Google calendar of a connected account
type GoogleProvider struct {
	config  *oauth2.Config
	apiBase string
	timeout time.Duration
}

// NewGoogleProvider configures OAuth for read-only calendar access.
// redirectURL must match the callback registered with Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/calendar.readonly",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		apiBase: googleAPIBase,
		timeout: timeout,
	}
}

// AuthCodeURL asks for offline access so a refresh token is issued
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.config.Exchange(ctx, code)
}

// Refresh trades a refresh token for a new access token
func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token stored")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

func (p *GoogleProvider) client(ctx context.Context, accessToken string) *http.Client {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client.Timeout = p.timeout
	return client
}

func (p *GoogleProvider) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	resp, err := p.client(ctx, accessToken).Get(p.apiBase + googleUserInfoURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch Google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch Google user info: status %d", resp.StatusCode)
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse Google user info: %w", err)
	}
	return payload.Email, nil
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleEvent struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

type googleEventsPage struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// ListEvents returns single (expanded) events overlapping [from, to)
func (p *GoogleProvider) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]Event, error) {
	client := p.client(ctx, accessToken)
	var events []Event
	pageToken := ""

	for page := 0; page < maxPages; page++ {
		params := url.Values{
			"timeMin":      {from.UTC().Format(time.RFC3339)},
			"timeMax":      {to.UTC().Format(time.RFC3339)},
			"singleEvents": {"true"},
			"orderBy":      {"startTime"},
			"maxResults":   {"250"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		result, err := p.fetchPage(client, p.apiBase+googleEventsURL+"?"+params.Encode())
		if err != nil {
			return nil, err
		}

		for _, item := range result.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := item.toEvent()
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	return events, nil
}

func (p *GoogleProvider) fetchPage(client *http.Client, u string) (*googleEventsPage, error) {
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to list Google events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list Google events: status %d", resp.StatusCode)
	}

	var page googleEventsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to parse Google events: %w", err)
	}
	return &page, nil
}

func (e googleEvent) toEvent() (Event, error) {
	ev := Event{ID: e.ID, Title: e.Summary, Description: e.Description, Location: e.Location}
	if ev.Title == "" {
		ev.Title = "(no title)"
	}

	if e.Start.DateTime == "" {
		// All-day events carry dates only; the end date is exclusive.
		start, err := time.Parse("2006-01-02", e.Start.Date)
		if err != nil {
			return Event{}, fmt.Errorf("event %s has invalid start date: %w", e.ID, err)
		}
		ev.Start = start
		ev.AllDay = true
		if end, err := time.Parse("2006-01-02", e.End.Date); err == nil {
			ev.End = &end
		}
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, e.Start.DateTime)
	if err != nil {
		return Event{}, fmt.Errorf("event %s has invalid start time: %w", e.ID, err)
	}
	ev.Start = start.UTC()
	if end, err := time.Parse(time.RFC3339, e.End.DateTime); err == nil {
		end = end.UTC()
		ev.End = &end
	}
	return ev, nil
}
