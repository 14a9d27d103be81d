package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a profile keyed by the identity id.
// Returns ErrDuplicate when a profile with that id already exists.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = models.DefaultUserRole
	}

	query := `
		INSERT INTO users (id, email, full_name, avatar_url, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.FullName, user.AvatarURL, user.Role, now, now)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user by identity id
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, full_name, COALESCE(avatar_url, ''), role, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateProfile refreshes the email and name mirrored from the identity provider
func (r *UserRepository) UpdateProfile(ctx context.Context, id, email, fullName string) error {
	query := "UPDATE users SET email = ?, full_name = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, email, fullName, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
