package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// PersonaRepository handles database operations for family member personas
type PersonaRepository struct {
	db *database.DB
}

// NewPersonaRepository creates a new persona repository
func NewPersonaRepository(db *database.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

func insertPersona(ctx context.Context, q database.DBTX, p *models.FamilyMember, now time.Time) error {
	if p.Color == "" {
		p.Color = models.DefaultPersonaColor
	}
	query := `
		INSERT INTO family_members (family_id, user_id, name, role, birth_year, avatar_url, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(ctx, query, p.FamilyID, p.UserID, p.Name, p.Role, p.BirthYear, p.AvatarURL, p.Color, now, now)
	if err != nil {
		if q.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create family member: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

const personaColumns = "id, family_id, user_id, name, role, birth_year, COALESCE(avatar_url, ''), color, created_at, updated_at"

func scanPersona(row scanner) (*models.FamilyMember, error) {
	p := &models.FamilyMember{}
	err := row.Scan(&p.ID, &p.FamilyID, &p.UserID, &p.Name, &p.Role, &p.BirthYear, &p.AvatarURL, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePersona creates a new persona in a family
func (r *PersonaRepository) CreatePersona(ctx context.Context, p *models.FamilyMember) error {
	return insertPersona(ctx, r.db, p, time.Now().UTC())
}

// EnsureUserPersona creates the persona representing userID in the family
// unless one already exists. Safe to retry.
func (r *PersonaRepository) EnsureUserPersona(ctx context.Context, p *models.FamilyMember) (*models.FamilyMember, error) {
	if p.UserID == nil {
		return nil, fmt.Errorf("persona has no user id")
	}
	existing, err := r.GetPersonaByUser(ctx, p.FamilyID, *p.UserID)
	if err != nil || existing != nil {
		return existing, err
	}

	err = r.CreatePersona(ctx, p)
	if err == ErrDuplicate {
		return r.GetPersonaByUser(ctx, p.FamilyID, *p.UserID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPersonaByID retrieves a persona by ID
func (r *PersonaRepository) GetPersonaByID(ctx context.Context, id int64) (*models.FamilyMember, error) {
	query := "SELECT " + personaColumns + " FROM family_members WHERE id = ?"
	p, err := scanPersona(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}
	return p, nil
}

// GetPersonaByUser retrieves the persona linked to a user within a family
func (r *PersonaRepository) GetPersonaByUser(ctx context.Context, familyID int64, userID string) (*models.FamilyMember, error) {
	query := "SELECT " + personaColumns + " FROM family_members WHERE family_id = ? AND user_id = ?"
	p, err := scanPersona(r.db.QueryRowContext(ctx, query, familyID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family member by user: %w", err)
	}
	return p, nil
}

// GetFamilyPersonas retrieves all personas in a family
func (r *PersonaRepository) GetFamilyPersonas(ctx context.Context, familyID int64) ([]models.FamilyMember, error) {
	query := "SELECT " + personaColumns + " FROM family_members WHERE family_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	personas := []models.FamilyMember{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		personas = append(personas, *p)
	}

	return personas, rows.Err()
}

// UpdatePersona writes a persona's editable fields
func (r *PersonaRepository) UpdatePersona(ctx context.Context, p *models.FamilyMember) error {
	now := time.Now().UTC()
	query := `
		UPDATE family_members
		SET name = ?, role = ?, birth_year = ?, avatar_url = ?, color = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Role, p.BirthYear, p.AvatarURL, p.Color, now, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update family member: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// DeletePersona deletes a persona
func (r *PersonaRepository) DeletePersona(ctx context.Context, id int64) error {
	query := "DELETE FROM family_members WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete family member: %w", err)
	}
	return nil
}
