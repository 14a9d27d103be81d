package repository

import (
	"context"
	"database/sql"
	"fmt"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// MessageRepository handles database operations for ingested messages
type MessageRepository struct {
	db *database.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, family_id, subject, sender, sender_email, COALESCE(body, ''), preview, is_urgent, is_read, received_at`

func scanMessage(row scanner) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(&m.ID, &m.FamilyID, &m.Subject, &m.Sender, &m.SenderEmail, &m.Body, &m.Preview, &m.IsUrgent, &m.IsRead, &m.ReceivedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMessage stores a message. ReceivedAt must be set.
func (r *MessageRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (family_id, subject, sender, sender_email, body, preview, is_urgent, is_read, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		m.FamilyID, m.Subject, m.Sender, m.SenderEmail, m.Body, m.Preview, m.IsUrgent, m.IsRead, m.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	m.ID = id
	return nil
}

// GetMessageByID retrieves a message by ID
func (r *MessageRepository) GetMessageByID(ctx context.Context, id int64) (*models.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id = ?"
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// GetFamilyMessages retrieves a family's messages, newest first
func (r *MessageRepository) GetFamilyMessages(ctx context.Context, familyID int64) ([]models.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE family_id = ? ORDER BY received_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *m)
	}

	return messages, rows.Err()
}

// MarkRead flags a message as read
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	query := "UPDATE messages SET is_read = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, true, id); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// DeleteMessage deletes a message
func (r *MessageRepository) DeleteMessage(ctx context.Context, id int64) error {
	query := "DELETE FROM messages WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
