package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

type InviteRepository struct {
	db *database.DB
}

func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// GenerateInviteToken generates a random invite token
func GenerateInviteToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateInvite stores a pending invite. Token, ExpiresAt and CreatedAt must be set.
func (r *InviteRepository) CreateInvite(ctx context.Context, inv *models.Invite) error {
	inv.Status = models.InviteStatusPending
	query := `
		INSERT INTO invites (family_id, email, invited_by, token, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, inv.FamilyID, inv.Email, inv.InvitedBy, inv.Token, inv.Status, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	inv.ID = id
	return nil
}

const inviteSelect = `
	SELECT i.id, i.family_id, i.email, i.invited_by, i.token, i.status, i.accepted_by, i.accepted_at,
	       i.expires_at, i.created_at, f.name
	FROM invites i
	INNER JOIN families f ON i.family_id = f.id
`

func scanInvite(row scanner) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(
		&inv.ID, &inv.FamilyID, &inv.Email, &inv.InvitedBy, &inv.Token, &inv.Status,
		&inv.AcceptedBy, &inv.AcceptedAt, &inv.ExpiresAt, &inv.CreatedAt, &inv.FamilyName,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInviteByToken retrieves an invite by token
func (r *InviteRepository) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, inviteSelect+" WHERE i.token = ?", token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// GetInviteByID retrieves an invite by ID
func (r *InviteRepository) GetInviteByID(ctx context.Context, id int64) (*models.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, inviteSelect+" WHERE i.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// GetFamilyInvites retrieves every invite of a family, newest first
func (r *InviteRepository) GetFamilyInvites(ctx context.Context, familyID int64) ([]models.Invite, error) {
	rows, err := r.db.QueryContext(ctx, inviteSelect+" WHERE i.family_id = ? ORDER BY i.created_at DESC, i.id DESC", familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}

	return invites, rows.Err()
}

// AcceptInvite marks a pending invite accepted and grants the membership in
// one transaction. Only one concurrent caller can flip the status; the
// others get ErrInviteNotPending. ErrDuplicate means the user was already a
// member and nothing was written.
func (r *InviteRepository) AcceptInvite(ctx context.Context, inviteID int64, userID, role string, now time.Time) (*models.Membership, error) {
	var membership *models.Membership

	err := r.db.InTx(ctx, func(tx *database.Tx) error {
		query := `
			UPDATE invites SET status = ?, accepted_by = ?, accepted_at = ?
			WHERE id = ? AND status = ?
		`
		result, err := tx.ExecContext(ctx, query, models.InviteStatusAccepted, userID, now, inviteID, models.InviteStatusPending)
		if err != nil {
			return fmt.Errorf("failed to accept invite: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to accept invite: %w", err)
		}
		if affected != 1 {
			return ErrInviteNotPending
		}

		var familyID int64
		if err := tx.QueryRowContext(ctx, "SELECT family_id FROM invites WHERE id = ?", inviteID).Scan(&familyID); err != nil {
			return fmt.Errorf("failed to load invite family: %w", err)
		}

		membership, err = addMembership(ctx, tx, familyID, userID, role)
		return err
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// DeleteInvite deletes a pending invite. Returns ErrInviteNotPending if it
// was accepted in the meantime.
func (r *InviteRepository) DeleteInvite(ctx context.Context, id int64) error {
	query := "DELETE FROM invites WHERE id = ? AND status = ?"
	result, err := r.db.ExecContext(ctx, query, id, models.InviteStatusPending)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	if affected == 0 {
		return ErrInviteNotPending
	}
	return nil
}
