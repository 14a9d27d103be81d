package models

import "time"

// Subscription mirrors the payment provider's subscription state.
// The provider stays the source of truth.
type Subscription struct {
	ID                   int64      `json:"id"`
	FamilyID             int64      `json:"family_id"`
	UserID               string     `json:"user_id"`
	StripeCustomerID     string     `json:"stripe_customer_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	StripePriceID        string     `json:"stripe_price_id"`
	Status               string     `json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsActive reports whether the mirrored status grants paid features
func (s *Subscription) IsActive() bool {
	return s.Status == "active" || s.Status == "trialing"
}
