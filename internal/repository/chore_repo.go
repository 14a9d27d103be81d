package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// ChoreRepository handles chore and completion database operations
type ChoreRepository struct {
	db *database.DB
}

// NewChoreRepository creates a new chore repository
func NewChoreRepository(db *database.DB) *ChoreRepository {
	return &ChoreRepository{db: db}
}

const choreColumns = `id, family_id, title, COALESCE(description, ''), assigned_member_id, points, recurring, due_date,
	created_at, updated_at`

func scanChore(row scanner) (*models.Chore, error) {
	c := &models.Chore{}
	err := row.Scan(
		&c.ID, &c.FamilyID, &c.Title, &c.Description, &c.AssignedMemberID, &c.Points, &c.Recurring, &c.DueDate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateChore creates a new chore
func (r *ChoreRepository) CreateChore(ctx context.Context, c *models.Chore) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO chores (family_id, title, description, assigned_member_id, points, recurring, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		c.FamilyID, c.Title, c.Description, c.AssignedMemberID, c.Points, c.Recurring, c.DueDate, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create chore: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetChoreByID retrieves a chore by ID
func (r *ChoreRepository) GetChoreByID(ctx context.Context, id int64) (*models.Chore, error) {
	query := "SELECT " + choreColumns + " FROM chores WHERE id = ?"
	c, err := scanChore(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chore: %w", err)
	}
	return c, nil
}

// GetFamilyChores retrieves all chores for a family
func (r *ChoreRepository) GetFamilyChores(ctx context.Context, familyID int64) ([]models.Chore, error) {
	query := "SELECT " + choreColumns + " FROM chores WHERE family_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chores: %w", err)
	}
	defer rows.Close()

	chores := []models.Chore{}
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chore: %w", err)
		}
		chores = append(chores, *c)
	}

	return chores, rows.Err()
}

// UpdateChore writes a chore's editable fields
func (r *ChoreRepository) UpdateChore(ctx context.Context, c *models.Chore) error {
	now := time.Now().UTC()
	query := `
		UPDATE chores
		SET title = ?, description = ?, assigned_member_id = ?, points = ?, recurring = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, c.Title, c.Description, c.AssignedMemberID, c.Points, c.Recurring, c.DueDate, now, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update chore: %w", err)
	}
	c.UpdatedAt = now
	return nil
}

// DeleteChore deletes a chore and its completions
func (r *ChoreRepository) DeleteChore(ctx context.Context, id int64) error {
	query := "DELETE FROM chores WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}
	return nil
}

// RecordCompletion records that a persona completed a chore
func (r *ChoreRepository) RecordCompletion(ctx context.Context, cc *models.ChoreCompletion) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO chore_completions (chore_id, completed_by_id, points_awarded, notes, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, cc.ChoreID, cc.CompletedByID, cc.PointsAwarded, cc.Notes, now)
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	cc.ID = id
	cc.CompletedAt = now
	return nil
}

// GetChoreCompletions retrieves completions of a chore, newest first
func (r *ChoreRepository) GetChoreCompletions(ctx context.Context, choreID int64) ([]models.ChoreCompletion, error) {
	query := `
		SELECT id, chore_id, completed_by_id, points_awarded, COALESCE(notes, ''), completed_at
		FROM chore_completions
		WHERE chore_id = ?
		ORDER BY completed_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, choreID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completions := []models.ChoreCompletion{}
	for rows.Next() {
		var cc models.ChoreCompletion
		if err := rows.Scan(&cc.ID, &cc.ChoreID, &cc.CompletedByID, &cc.PointsAwarded, &cc.Notes, &cc.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, cc)
	}

	return completions, rows.Err()
}

// GetFamilyPoints totals awarded points per persona, highest first.
// Personas without completions are included with zero points.
func (r *ChoreRepository) GetFamilyPoints(ctx context.Context, familyID int64) ([]models.PointsTotal, error) {
	query := `
		SELECT fm.id, fm.name, fm.color, COALESCE(SUM(cc.points_awarded), 0), COUNT(cc.id)
		FROM family_members fm
		LEFT JOIN chore_completions cc ON cc.completed_by_id = fm.id
		WHERE fm.family_id = ?
		GROUP BY fm.id, fm.name, fm.color
		ORDER BY COALESCE(SUM(cc.points_awarded), 0) DESC, fm.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	totals := []models.PointsTotal{}
	for rows.Next() {
		var pt models.PointsTotal
		if err := rows.Scan(&pt.MemberID, &pt.Name, &pt.Color, &pt.Points, &pt.Completions); err != nil {
			return nil, fmt.Errorf("failed to scan points: %w", err)
		}
		totals = append(totals, pt)
	}

	return totals, rows.Err()
}
