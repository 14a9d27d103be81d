package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyhub/internal/calendar"
	"familyhub/internal/payments"
	"familyhub/internal/validation"
)

func connectCalendar(t *testing.T, env *testEnv, userID string, familyID int64) int64 {
	t.Helper()
	ctx := context.Background()

	authURL, err := env.calendar.ConnectURL(ctx, userID, familyID)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	conn, err := env.calendar.Callback(ctx, state, "code1")
	require.NoError(t, err)
	return conn.ID
}

func TestCalendarSyncIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")
	connectCalendar(t, env, alice.ID, family.ID)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(time.Hour)
	env.provider.events = []calendar.Event{
		{ID: "g1", Title: "Soccer", Start: start, End: &end, Location: "Field 3"},
		{ID: "g2", Title: "Piano", Start: start.Add(48 * time.Hour)},
	}

	first, err := env.calendar.Sync(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Updated)

	second, err := env.calendar.Sync(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)

	events, err := env.events.List(ctx, alice.ID, family.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// the access token from the exchange was cached, no refresh needed
	assert.Equal(t, "access-code1", env.provider.lastToken)
	assert.Zero(t, env.provider.refreshes)
}

func TestCalendarSyncRefreshesExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.expiry = time.Now().Add(-time.Minute)
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")
	connectCalendar(t, env, alice.ID, family.ID)

	_, err := env.calendar.Sync(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.provider.refreshes)
	assert.Equal(t, "refreshed-access", env.provider.lastToken)

	// the refreshed token is served from the cache on the next sync
	_, err = env.calendar.Sync(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.provider.refreshes)
}

func TestCalendarStateIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")

	authURL, err := env.calendar.ConnectURL(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	_, err = env.calendar.Callback(ctx, state, "code1")
	require.NoError(t, err)

	_, err = env.calendar.Callback(ctx, state, "code1")
	var vErr validation.Error
	assert.True(t, errors.As(err, &vErr))

	_, err = env.calendar.Callback(ctx, "forged", "code1")
	assert.True(t, errors.As(err, &vErr))
}

func TestCalendarCallbackUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.exchangeErr = errors.New("invalid_grant")
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")

	authURL, err := env.calendar.ConnectURL(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	parsed, _ := url.Parse(authURL)

	_, err = env.calendar.Callback(ctx, parsed.Query().Get("state"), "bad")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCalendarRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signIn(t, "user-a", "a@example.com")
	mallory := env.signIn(t, "user-m", "m@example.com")
	family := env.family(t, alice, "Smiths")

	_, err := env.calendar.ConnectURL(ctx, mallory.ID, family.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.calendar.Sync(ctx, mallory.ID, family.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionCreateAndWebhook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")

	created, err := env.subscriptions.Create(ctx, alice, family.ID)
	require.NoError(t, err)
	assert.Equal(t, "incomplete", created.Status)
	assert.NotEmpty(t, created.ClientSecret)

	mirror, err := env.subscriptions.Get(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SubscriptionID, mirror.StripeSubscriptionID)
	assert.False(t, mirror.IsActive())

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","subscription":{"ID":"` + created.SubscriptionID + `","Status":"active"}}`)
	require.NoError(t, env.subscriptions.HandleWebhook(ctx, payload, "whsec_fake"))

	mirror, err = env.subscriptions.Get(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", mirror.Status)

	_, err = env.subscriptions.Create(ctx, alice, family.ID)
	assert.ErrorIs(t, err, ErrConflict)

	err = env.subscriptions.HandleWebhook(ctx, payload, "wrong")
	assert.ErrorIs(t, err, payments.ErrInvalidSignature)

	unknown := []byte(`{"id":"evt_2","type":"customer.subscription.deleted","subscription":{"ID":"sub_unknown","Status":"canceled"}}`)
	assert.NoError(t, env.subscriptions.HandleWebhook(ctx, unknown, "whsec_fake"))
}

func TestSubscriptionMirrorRefreshesWhenStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")

	created, err := env.subscriptions.Create(ctx, alice, family.ID)
	require.NoError(t, err)
	env.payments.SetStatus(created.SubscriptionID, "past_due")

	mirror, err := env.subscriptions.Get(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, "incomplete", mirror.Status)
	assert.Zero(t, env.payments.GetCalls)

	env.subscriptions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	mirror, err = env.subscriptions.Get(ctx, alice.ID, family.ID)
	require.NoError(t, err)
	assert.Equal(t, "past_due", mirror.Status)
	assert.Equal(t, 1, env.payments.GetCalls)
}

func TestSubscriptionNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signIn(t, "user-a", "a@example.com")
	family := env.family(t, alice, "Smiths")

	disabled := NewSubscriptionService(env.subRepo, env.membership, nil, "", env.membership.logger)
	_, err := disabled.Create(context.Background(), alice, family.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
