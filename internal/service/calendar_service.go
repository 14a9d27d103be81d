package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"familyhub/internal/cache"
	"familyhub/internal/calendar"
	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/security"
	"familyhub/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	connectStateTTL = 10 * time.Minute
	syncWindow      = 30 * 24 * time.Hour
	// tokens are treated as expired this long before the provider says so
	tokenExpirySkew = time.Minute
	// upper bound for tokens without an expiry
	maxTokenTTL = 50 * time.Minute
)

// Connection sync statuses
const (
	SyncStatusActive = "active"
	SyncStatusError  = "error"
)

type connectState struct {
	UserID   string `json:"user_id"`
	FamilyID int64  `json:"family_id"`
}

// CalendarService connects external calendars and mirrors their events
type CalendarService struct {
	connections *repository.CalendarRepository
	events      *repository.EventRepository
	access      *MembershipService
	provider    calendar.Provider
	store       cache.Store
	sealer      *security.Sealer
	logger      *zap.Logger
	now         func() time.Time
}

// NewCalendarService creates a calendar service. A nil provider disables
// calendar endpoints with ErrNotConfigured.
func NewCalendarService(connections *repository.CalendarRepository, events *repository.EventRepository, access *MembershipService,
	provider calendar.Provider, store cache.Store, sealer *security.Sealer, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		connections: connections,
		events:      events,
		access:      access,
		provider:    provider,
		store:       store,
		sealer:      sealer,
		logger:      logger,
		now:         time.Now,
	}
}

func stateKey(state string) string {
	return "calendar:state:" + state
}

func tokenKey(connectionID int64) string {
	return "calendar:token:" + strconv.FormatInt(connectionID, 10)
}

// ConnectURL returns the provider consent URL. The OAuth state is single-use
// and bound to the caller and family.
func (s *CalendarService) ConnectURL(ctx context.Context, userID string, familyID int64) (string, error) {
	if s.provider == nil {
		return "", ErrNotConfigured
	}
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return "", err
	}

	state := uuid.NewString()
	payload, err := json.Marshal(connectState{UserID: userID, FamilyID: familyID})
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, stateKey(state), payload, connectStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// Callback completes the OAuth flow. The request is authenticated by the
// state alone since the browser arrives from the provider without a bearer token.
func (s *CalendarService) Callback(ctx context.Context, state, code string) (*models.CalendarConnection, error) {
	if s.provider == nil {
		return nil, ErrNotConfigured
	}
	if state == "" || code == "" {
		return nil, validation.Error{Field: "state", Message: "state and code are required"}
	}

	raw, err := cache.Take(ctx, s.store, stateKey(state))
	if errors.Is(err, cache.ErrMiss) {
		return nil, validation.Error{Field: "state", Message: "invalid or expired state"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth state: %w", err)
	}
	var pending connectState
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}

	// membership may have been revoked while the user was at the consent screen
	if _, err := s.access.RequireMember(ctx, pending.UserID, pending.FamilyID); err != nil {
		return nil, err
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	email, err := s.provider.AccountEmail(ctx, token.AccessToken)
	if err != nil {
		s.logger.Warn("failed to fetch calendar account email", zap.Error(err))
	}

	conn := &models.CalendarConnection{
		UserID:       pending.UserID,
		FamilyID:     pending.FamilyID,
		AccountEmail: email,
		SyncStatus:   SyncStatusActive,
	}
	if err := s.sealTokens(conn, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return nil, err
	}
	if err := s.connections.CreateConnection(ctx, conn); err != nil {
		return nil, err
	}

	s.cacheToken(ctx, conn.ID, token.AccessToken, conn.ExpiresAt)
	s.logger.Info("calendar connected", zap.Int64("connection_id", conn.ID), zap.Int64("family_id", conn.FamilyID))
	return conn, nil
}

// Connections lists the caller's calendar connections in a family
func (s *CalendarService) Connections(ctx context.Context, userID string, familyID int64) ([]models.CalendarConnection, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.connections.GetUserConnections(ctx, userID, familyID)
}

// Sync pulls the next 30 days from each of the caller's connections in the
// family and upserts them by provider event id
func (s *CalendarService) Sync(ctx context.Context, userID string, familyID int64) (*models.SyncResult, error) {
	if s.provider == nil {
		return nil, ErrNotConfigured
	}
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	conns, err := s.connections.GetUserConnections(ctx, userID, familyID)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, fmt.Errorf("%w: no calendar connected", ErrNotFound)
	}

	result := &models.SyncResult{}
	for i := range conns {
		if err := s.syncConnection(ctx, &conns[i], result); err != nil {
			if markErr := s.connections.MarkSynced(ctx, conns[i].ID, SyncStatusError, s.now().UTC()); markErr != nil {
				s.logger.Warn("failed to record sync failure", zap.Error(markErr))
			}
			return nil, err
		}
	}
	return result, nil
}

func (s *CalendarService) syncConnection(ctx context.Context, conn *models.CalendarConnection, result *models.SyncResult) error {
	accessToken, err := s.accessToken(ctx, conn)
	if err != nil {
		return err
	}

	from := s.now().UTC()
	events, err := s.provider.ListEvents(ctx, accessToken, from, from.Add(syncWindow))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	for _, ev := range events {
		externalID := ev.ID
		connID := conn.ID
		e := &models.Event{
			FamilyID:             conn.FamilyID,
			CalendarConnectionID: &connID,
			ExternalEventID:      &externalID,
			Title:                ev.Title,
			Description:          ev.Description,
			Location:             ev.Location,
			StartTime:            ev.Start.UTC(),
			EndTime:              utcPtr(ev.End),
			AllDay:               ev.AllDay,
		}
		created, err := s.events.UpsertExternalEvent(ctx, e)
		if err != nil {
			return err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("calendar synced", zap.Int64("connection_id", conn.ID), zap.Int("events", len(events)))
	return s.connections.MarkSynced(ctx, conn.ID, SyncStatusActive, s.now().UTC())
}

// accessToken returns a usable access token for the connection. The cache is
// consulted first; on a miss the stored token is used while still valid,
// otherwise it is refreshed synchronously.
func (s *CalendarService) accessToken(ctx context.Context, conn *models.CalendarConnection) (string, error) {
	if cached, err := s.store.Get(ctx, tokenKey(conn.ID)); err == nil {
		return string(cached), nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("token cache read failed", zap.Error(err))
	}

	if conn.ExpiresAt != nil && s.now().Add(tokenExpirySkew).Before(*conn.ExpiresAt) {
		token, err := s.sealer.Open(conn.AccessToken)
		if err != nil {
			return "", err
		}
		if token != "" {
			s.cacheToken(ctx, conn.ID, token, conn.ExpiresAt)
			return token, nil
		}
	}

	refreshToken, err := s.sealer.Open(conn.RefreshToken)
	if err != nil {
		return "", err
	}
	token, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: token refresh failed: %v", ErrUpstream, err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	if err := s.sealTokens(conn, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return "", err
	}
	if err := s.connections.UpdateTokens(ctx, conn.ID, conn.AccessToken, conn.RefreshToken, conn.ExpiresAt); err != nil {
		return "", err
	}

	s.cacheToken(ctx, conn.ID, token.AccessToken, conn.ExpiresAt)
	return token.AccessToken, nil
}

func (s *CalendarService) sealTokens(conn *models.CalendarConnection, accessToken, refreshToken string, expiry time.Time) error {
	sealedAccess, err := s.sealer.Seal(accessToken)
	if err != nil {
		return err
	}
	sealedRefresh, err := s.sealer.Seal(refreshToken)
	if err != nil {
		return err
	}
	conn.AccessToken = sealedAccess
	conn.RefreshToken = sealedRefresh
	conn.ExpiresAt = nil
	if !expiry.IsZero() {
		e := expiry.UTC()
		conn.ExpiresAt = &e
	}
	return nil
}

func (s *CalendarService) cacheToken(ctx context.Context, connectionID int64, token string, expiresAt *time.Time) {
	ttl := maxTokenTTL
	if expiresAt != nil {
		ttl = expiresAt.Sub(s.now()) - tokenExpirySkew
	}
	if ttl <= 0 || token == "" {
		return
	}
	if err := s.store.Set(ctx, tokenKey(connectionID), []byte(token), ttl); err != nil {
		s.logger.Warn("token cache write failed", zap.Error(err))
	}
}
