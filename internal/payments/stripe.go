package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider talks to Stripe with a per-instance API client
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a provider for the given secret key.
// backends may be nil to use Stripe's default HTTP backends.
func NewStripeProvider(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name string, familyID int64) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.AddMetadata("family_id", strconv.FormatInt(familyID, 10))

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateSubscription starts an incomplete subscription whose first invoice is
// paid client-side with the returned client secret.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string, familyID int64) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddMetadata("family_id", strconv.FormatInt(familyID, 10))
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stripe subscription: %w", err)
	}
	return fromStripe(sub), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get Stripe subscription: %w", err)
	}
	return fromStripe(sub), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (p *StripeProvider) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "customer.subscription.") && event.Data != nil {
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription event: %w", err)
		}
		out.Subscription = fromStripe(&sub)
	}
	return out, nil
}

func fromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
