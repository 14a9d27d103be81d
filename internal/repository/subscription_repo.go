package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// SubscriptionRepository stores the local mirror of payment subscriptions
type SubscriptionRepository struct {
	db *database.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, family_id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, status,
	current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row scanner) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := row.Scan(
		&s.ID, &s.FamilyID, &s.UserID, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.StripePriceID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSubscription stores a new mirror row
func (r *SubscriptionRepository) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO subscriptions (family_id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id, status,
			current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.FamilyID, s.UserID, s.StripeCustomerID, s.StripeSubscriptionID, s.StripePriceID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, now, now,
	)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetFamilySubscription retrieves the most recent subscription of a family
func (r *SubscriptionRepository) GetFamilySubscription(ctx context.Context, familyID int64) (*models.Subscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM subscriptions WHERE family_id = ? ORDER BY created_at DESC, id DESC LIMIT 1"
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, familyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return s, nil
}

// UpdateStatus overwrites the mirrored provider state of a subscription.
// It reports whether a mirror row for the provider id existed.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, s *models.Subscription) (bool, error) {
	now := time.Now().UTC()
	query := `
		UPDATE subscriptions
		SET status = ?, current_period_start = ?, current_period_end = ?, cancel_at_period_end = ?, updated_at = ?
		WHERE stripe_subscription_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, now, s.StripeSubscriptionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update subscription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update subscription: %w", err)
	}
	s.UpdatedAt = now
	return affected > 0, nil
}
