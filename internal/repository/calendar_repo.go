package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// CalendarRepository handles database operations for calendar connections
type CalendarRepository struct {
	db *database.DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *database.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const connectionColumns = `id, user_id, family_id, account_email, COALESCE(access_token, ''), COALESCE(refresh_token, ''),
	expires_at, last_synced_at, sync_status, created_at`

func scanConnection(row scanner) (*models.CalendarConnection, error) {
	c := &models.CalendarConnection{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.FamilyID, &c.AccountEmail, &c.AccessToken, &c.RefreshToken,
		&c.ExpiresAt, &c.LastSyncedAt, &c.SyncStatus, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateConnection stores a new calendar connection. Tokens must already be sealed.
func (r *CalendarRepository) CreateConnection(ctx context.Context, c *models.CalendarConnection) error {
	now := time.Now().UTC()
	if c.SyncStatus == "" {
		c.SyncStatus = "active"
	}
	query := `
		INSERT INTO calendar_connections (user_id, family_id, account_email, access_token, refresh_token, expires_at, sync_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		c.UserID, c.FamilyID, c.AccountEmail, c.AccessToken, c.RefreshToken, c.ExpiresAt, c.SyncStatus, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create calendar connection: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

// GetConnectionByID retrieves a calendar connection by ID
func (r *CalendarRepository) GetConnectionByID(ctx context.Context, id int64) (*models.CalendarConnection, error) {
	query := "SELECT " + connectionColumns + " FROM calendar_connections WHERE id = ?"
	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar connection: %w", err)
	}
	return c, nil
}

// GetUserConnections retrieves a user's connections within a family
func (r *CalendarRepository) GetUserConnections(ctx context.Context, userID string, familyID int64) ([]models.CalendarConnection, error) {
	query := "SELECT " + connectionColumns + " FROM calendar_connections WHERE user_id = ? AND family_id = ? ORDER BY id ASC"
	rows, err := r.db.QueryContext(ctx, query, userID, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar connections: %w", err)
	}
	defer rows.Close()

	connections := []models.CalendarConnection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar connection: %w", err)
		}
		connections = append(connections, *c)
	}

	return connections, rows.Err()
}

// UpdateTokens stores refreshed (sealed) tokens for a connection
func (r *CalendarRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	query := "UPDATE calendar_connections SET access_token = ?, refresh_token = ?, expires_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, id); err != nil {
		return fmt.Errorf("failed to update calendar tokens: %w", err)
	}
	return nil
}

// MarkSynced records the outcome of a sync attempt
func (r *CalendarRepository) MarkSynced(ctx context.Context, id int64, status string, at time.Time) error {
	query := "UPDATE calendar_connections SET sync_status = ?, last_synced_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, status, at, id); err != nil {
		return fmt.Errorf("failed to mark calendar synced: %w", err)
	}
	return nil
}
