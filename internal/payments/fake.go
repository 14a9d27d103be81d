package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Fake is an in-memory Provider for tests and local development without Stripe.
// ParseWebhook accepts a JSON body of the form
// {"id":..., "type":..., "subscription": {...}} when the header equals Secret.
type Fake struct {
	Secret string

	mu            sync.Mutex
	next          int
	Customers     map[string]string
	Subscriptions map[string]*Subscription
	GetCalls      int
}

// NewFake creates an empty fake provider
func NewFake(secret string) *Fake {
	return &Fake{
		Secret:        secret,
		Customers:     map[string]string{},
		Subscriptions: map[string]*Subscription{},
	}
}

func (f *Fake) CreateCustomer(ctx context.Context, email, name string, familyID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("cus_%d", f.next)
	f.Customers[id] = email
	return id, nil
}

func (f *Fake) CreateSubscription(ctx context.Context, customerID, priceID string, familyID int64) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Customers[customerID]; !ok {
		return nil, fmt.Errorf("no such customer: %s", customerID)
	}
	f.next++
	sub := &Subscription{
		ID:           fmt.Sprintf("sub_%d", f.next),
		CustomerID:   customerID,
		PriceID:      priceID,
		Status:       "incomplete",
		ClientSecret: fmt.Sprintf("pi_%d_secret", f.next),
	}
	f.Subscriptions[sub.ID] = sub
	copied := *sub
	return &copied, nil
}

func (f *Fake) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	sub, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", subscriptionID)
	}
	copied := *sub
	copied.ClientSecret = ""
	return &copied, nil
}

// SetStatus changes provider-side state, as if updated in the Stripe dashboard
func (f *Fake) SetStatus(subscriptionID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.Subscriptions[subscriptionID]; ok {
		sub.Status = status
	}
}

func (f *Fake) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if signatureHeader != f.Secret {
		return nil, ErrInvalidSignature
	}
	var body struct {
		ID           string        `json:"id"`
		Type         string        `json:"type"`
		Subscription *Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &WebhookEvent{ID: body.ID, Type: body.Type, Subscription: body.Subscription}, nil
}
