package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyhub/internal/identity"
	"familyhub/internal/models"
	"familyhub/internal/payments"
	"familyhub/internal/repository"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

// mirror rows older than this are refreshed from the provider on read
const mirrorRefreshAfter = time.Hour

// CreatedSubscription is returned to the client to confirm payment
type CreatedSubscription struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
	Status         string `json:"status"`
}

// SubscriptionService keeps a local mirror of the family's payment subscription.
// The provider is the source of truth.
type SubscriptionService struct {
	subscriptions *repository.SubscriptionRepository
	access        *MembershipService
	provider      payments.Provider
	priceID       string
	logger        *zap.Logger
	now           func() time.Time
}

// NewSubscriptionService creates a subscription service. A nil provider
// disables the endpoints with ErrNotConfigured.
func NewSubscriptionService(subscriptions *repository.SubscriptionRepository, access *MembershipService, provider payments.Provider, priceID string, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		access:        access,
		provider:      provider,
		priceID:       priceID,
		logger:        logger,
		now:           time.Now,
	}
}

// Create starts a subscription for the family and stores its mirror row
func (s *SubscriptionService) Create(ctx context.Context, id *identity.Identity, familyID int64) (*CreatedSubscription, error) {
	if s.provider == nil || s.priceID == "" {
		return nil, ErrNotConfigured
	}
	if _, err := s.access.RequireMember(ctx, id.ID, familyID); err != nil {
		return nil, err
	}

	existing, err := s.subscriptions.GetFamilySubscription(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsActive() {
		return nil, fmt.Errorf("%w: family already has an active subscription", ErrConflict)
	}

	customerID := ""
	if existing != nil {
		customerID = existing.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(ctx, validation.NormalizeEmail(id.Email), id.DisplayName(), familyID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, s.priceID, familyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	mirror := &models.Subscription{
		FamilyID:             familyID,
		UserID:               id.ID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        s.priceID,
		Status:               sub.Status,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if err := s.subscriptions.CreateSubscription(ctx, mirror); err != nil {
		return nil, err
	}

	s.logger.Info("subscription created", zap.Int64("family_id", familyID), zap.String("subscription_id", sub.ID))
	return &CreatedSubscription{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret, Status: sub.Status}, nil
}

// Get returns the family's mirror row, refreshing it from the provider when
// stale. A failed refresh serves the stale row.
func (s *SubscriptionService) Get(ctx context.Context, userID string, familyID int64) (*models.Subscription, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	mirror, err := s.subscriptions.GetFamilySubscription(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if mirror == nil {
		return nil, ErrNotFound
	}

	if s.provider == nil || s.now().Sub(mirror.UpdatedAt) < mirrorRefreshAfter {
		return mirror, nil
	}

	remote, err := s.provider.GetSubscription(ctx, mirror.StripeSubscriptionID)
	if err != nil {
		s.logger.Warn("subscription refresh failed, serving mirror", zap.Int64("family_id", familyID), zap.Error(err))
		return mirror, nil
	}
	applyRemote(mirror, remote)
	if _, err := s.subscriptions.UpdateStatus(ctx, mirror); err != nil {
		return nil, err
	}
	return mirror, nil
}

// HandleWebhook verifies a provider event and applies subscription changes
// to the mirror. Events for unknown subscriptions are acknowledged and dropped.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrNotConfigured
	}

	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return err
		}
		return validation.Error{Field: "body", Message: "malformed event"}
	}
	if event.Subscription == nil {
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}

	mirror := &models.Subscription{StripeSubscriptionID: event.Subscription.ID}
	applyRemote(mirror, event.Subscription)
	found, err := s.subscriptions.UpdateStatus(ctx, mirror)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Info("webhook for unknown subscription", zap.String("subscription_id", event.Subscription.ID), zap.String("type", event.Type))
		return nil
	}

	s.logger.Info("subscription updated from webhook",
		zap.String("subscription_id", mirror.StripeSubscriptionID), zap.String("status", mirror.Status))
	return nil
}

func applyRemote(mirror *models.Subscription, remote *payments.Subscription) {
	mirror.Status = remote.Status
	mirror.CurrentPeriodStart = remote.CurrentPeriodStart
	mirror.CurrentPeriodEnd = remote.CurrentPeriodEnd
	mirror.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
}
