package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// FamilyRepository handles database operations for families and memberships
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateFamily creates a family, grants the creator ownership and adds the
// creator's persona in a single transaction. family.InviteCode must be set.
// Returns ErrDuplicate when the invite code is already taken.
func (r *FamilyRepository) CreateFamily(ctx context.Context, family *models.Family, ownerID string, persona *models.FamilyMember) (*models.Membership, error) {
	now := time.Now().UTC()
	membership := &models.Membership{UserID: ownerID, Role: models.RoleOwner, JoinedAt: now}

	err := r.db.InTx(ctx, func(tx *database.Tx) error {
		query := "INSERT INTO families (name, invite_code, created_at, updated_at) VALUES (?, ?, ?, ?)"
		familyID, err := tx.ExecReturningID(ctx, query, family.Name, nullString(family.InviteCode), now, now)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create family: %w", err)
		}
		family.ID = familyID
		membership.FamilyID = familyID

		query = "INSERT INTO memberships (family_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)"
		membership.ID, err = tx.ExecReturningID(ctx, query, familyID, ownerID, models.RoleOwner, now)
		if err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}

		if persona != nil {
			persona.FamilyID = familyID
			if err := insertPersona(ctx, tx, persona, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	family.CreatedAt = now
	family.UpdatedAt = now
	return membership, nil
}

const familyColumns = "id, name, COALESCE(invite_code, ''), created_at, updated_at"

func scanFamily(row scanner) (*models.Family, error) {
	family := &models.Family{}
	err := row.Scan(&family.ID, &family.Name, &family.InviteCode, &family.CreatedAt, &family.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return family, nil
}

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(ctx context.Context, familyID int64) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	family, err := scanFamily(r.db.QueryRowContext(ctx, query, familyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetAllFamilies retrieves every family ordered by ID
func (r *FamilyRepository) GetAllFamilies(ctx context.Context) ([]models.Family, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+familyColumns+" FROM families ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, *f)
	}

	return families, rows.Err()
}

// GetFamilyByInviteCode retrieves a family by its join code
func (r *FamilyRepository) GetFamilyByInviteCode(ctx context.Context, code string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE invite_code = ?"
	family, err := scanFamily(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family by code: %w", err)
	}
	return family, nil
}

// GetUserMemberships retrieves every family a user belongs to with the user's role
func (r *FamilyRepository) GetUserMemberships(ctx context.Context, userID string) ([]models.FamilyMembership, error) {
	query := `
		SELECT f.id, f.name, COALESCE(f.invite_code, ''), f.created_at, f.updated_at, m.role
		FROM families f
		INNER JOIN memberships m ON f.id = m.family_id
		WHERE m.user_id = ?
		ORDER BY m.joined_at ASC, f.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.FamilyMembership{}
	for rows.Next() {
		var fm models.FamilyMembership
		f := &fm.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.InviteCode, &f.CreatedAt, &f.UpdatedAt, &fm.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, fm)
	}

	return memberships, rows.Err()
}

// GetMembership returns the user's membership in a family, or nil when absent
func (r *FamilyRepository) GetMembership(ctx context.Context, familyID int64, userID string) (*models.Membership, error) {
	query := "SELECT id, family_id, user_id, role, joined_at FROM memberships WHERE family_id = ? AND user_id = ?"
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, familyID, userID).Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// AddMembership grants a user access to a family.
// Returns ErrDuplicate if the user is already a member.
func (r *FamilyRepository) AddMembership(ctx context.Context, familyID int64, userID, role string) (*models.Membership, error) {
	return addMembership(ctx, r.db, familyID, userID, role)
}

func addMembership(ctx context.Context, q database.DBTX, familyID int64, userID, role string) (*models.Membership, error) {
	now := time.Now().UTC()
	query := "INSERT INTO memberships (family_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)"
	id, err := q.ExecReturningID(ctx, query, familyID, userID, role, now)
	if err != nil {
		if q.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to add membership: %w", err)
	}
	return &models.Membership{ID: id, FamilyID: familyID, UserID: userID, Role: role, JoinedAt: now}, nil
}

// RemoveMembership revokes a user's access to a family
func (r *FamilyRepository) RemoveMembership(ctx context.Context, familyID int64, userID string) error {
	query := "DELETE FROM memberships WHERE family_id = ? AND user_id = ?"
	if _, err := r.db.ExecContext(ctx, query, familyID, userID); err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}

// GetFamilyMembers retrieves the memberships of a family joined with user profiles
func (r *FamilyRepository) GetFamilyMembers(ctx context.Context, familyID int64) ([]models.MemberUser, error) {
	query := `
		SELECT m.id, m.family_id, m.user_id, m.role, m.joined_at, u.email, u.full_name
		FROM memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.family_id = ?
		ORDER BY m.joined_at ASC, m.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	members := []models.MemberUser{}
	for rows.Next() {
		var mu models.MemberUser
		if err := rows.Scan(&mu.ID, &mu.FamilyID, &mu.UserID, &mu.Role, &mu.JoinedAt, &mu.Email, &mu.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, mu)
	}

	return members, rows.Err()
}

// UpdateInviteCode replaces a family's join code.
// Returns ErrDuplicate if another family already uses the code.
func (r *FamilyRepository) UpdateInviteCode(ctx context.Context, familyID int64, code string) error {
	query := "UPDATE families SET invite_code = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, code, time.Now().UTC(), familyID)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update invite code: %w", err)
	}
	return nil
}

// DeleteFamily deletes a family and all associated data
func (r *FamilyRepository) DeleteFamily(ctx context.Context, familyID int64) error {
	query := "DELETE FROM families WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, familyID)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
