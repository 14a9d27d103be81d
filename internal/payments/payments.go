// Package payments wraps the Stripe API calls the subscription mirror relies on.
package payments

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Subscription is the provider-side state copied into the local mirror
type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	ClientSecret       string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// WebhookEvent is a verified provider event. Subscription is set only for
// customer.subscription.* events.
type WebhookEvent struct {
	ID           string
	Type         string
	Subscription *Subscription
}

// Provider is implemented by StripeProvider and by test fakes
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string, familyID int64) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string, familyID int64) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
