package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// EventRepository handles database operations for calendar events
type EventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, family_id, calendar_connection_id, external_event_id, title, COALESCE(description, ''),
	location, start_time, end_time, all_day, assigned_member_id, created_at, updated_at`

func scanEvent(row scanner) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.FamilyID, &e.CalendarConnectionID, &e.ExternalEventID, &e.Title, &e.Description,
		&e.Location, &e.StartTime, &e.EndTime, &e.AllDay, &e.AssignedMemberID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEvent inserts a new event
func (r *EventRepository) CreateEvent(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO events (family_id, calendar_connection_id, external_event_id, title, description, location,
			start_time, end_time, all_day, assigned_member_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		e.FamilyID, e.CalendarConnectionID, e.ExternalEventID, e.Title, e.Description, e.Location,
		e.StartTime, e.EndTime, e.AllDay, e.AssignedMemberID, now, now,
	)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetEventByID retrieves an event by ID
func (r *EventRepository) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE id = ?"
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// GetEventByExternalID retrieves an event mirrored from a calendar provider
func (r *EventRepository) GetEventByExternalID(ctx context.Context, familyID int64, externalID string) (*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE family_id = ? AND external_event_id = ?"
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, familyID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by external id: %w", err)
	}
	return e, nil
}

// GetFamilyEvents lists a family's events ordered by start time. When from
// and to are set, only events overlapping [from, to) are returned. Bounds are
// passed in UTC since SQLite compares stored timestamps as text.
func (r *EventRepository) GetFamilyEvents(ctx context.Context, familyID int64, from, to *time.Time) ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE family_id = ?"
	args := []interface{}{familyID}
	if to != nil {
		query += " AND start_time < ?"
		args = append(args, to.UTC())
	}
	if from != nil {
		query += " AND COALESCE(end_time, start_time) >= ?"
		args = append(args, from.UTC())
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}

	return events, rows.Err()
}

// UpdateEvent writes an event's editable fields
func (r *EventRepository) UpdateEvent(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	query := `
		UPDATE events
		SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?, all_day = ?,
			assigned_member_id = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.AllDay, e.AssignedMemberID, now, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	e.UpdatedAt = now
	return nil
}

// UpsertExternalEvent inserts or overwrites an event keyed by
// (family_id, external_event_id). It reports whether a new row was created.
func (r *EventRepository) UpsertExternalEvent(ctx context.Context, e *models.Event) (bool, error) {
	if e.ExternalEventID == nil {
		return false, fmt.Errorf("event has no external id")
	}

	existing, err := r.GetEventByExternalID(ctx, e.FamilyID, *e.ExternalEventID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		err = r.CreateEvent(ctx, e)
		if err != ErrDuplicate {
			return err == nil, err
		}
		// Lost a race with a concurrent sync; overwrite the winner's row.
		if existing, err = r.GetEventByExternalID(ctx, e.FamilyID, *e.ExternalEventID); err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("event %s vanished during upsert", *e.ExternalEventID)
		}
	}

	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.AssignedMemberID = existing.AssignedMemberID
	now := time.Now().UTC()
	query := `
		UPDATE events
		SET calendar_connection_id = ?, title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
			all_day = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		e.CalendarConnectionID, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.AllDay, now, e.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update external event: %w", err)
	}
	e.UpdatedAt = now
	return false, nil
}

// DeleteEvent deletes an event
func (r *EventRepository) DeleteEvent(ctx context.Context, id int64) error {
	query := "DELETE FROM events WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
