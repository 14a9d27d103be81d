package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyhub/internal/database"
	"familyhub/internal/models"
)

// ListRepository handles database operations for lists and their items
type ListRepository struct {
	db *database.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *database.DB) *ListRepository {
	return &ListRepository{db: db}
}

// CreateList creates a new list
func (r *ListRepository) CreateList(ctx context.Context, l *models.List) error {
	now := time.Now().UTC()
	query := "INSERT INTO lists (family_id, name, type, created_at) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, l.FamilyID, l.Name, l.Type, now)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	l.ID = id
	l.CreatedAt = now
	return nil
}

// GetListByID retrieves a list by ID
func (r *ListRepository) GetListByID(ctx context.Context, id int64) (*models.List, error) {
	query := "SELECT id, family_id, name, type, created_at FROM lists WHERE id = ?"
	l := &models.List{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.FamilyID, &l.Name, &l.Type, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return l, nil
}

// GetFamilyLists retrieves all lists for a family
func (r *ListRepository) GetFamilyLists(ctx context.Context, familyID int64) ([]models.List, error) {
	query := "SELECT id, family_id, name, type, created_at FROM lists WHERE family_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.FamilyID, &l.Name, &l.Type, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}

	return lists, rows.Err()
}

// UpdateList updates a list's name and type
func (r *ListRepository) UpdateList(ctx context.Context, l *models.List) error {
	query := "UPDATE lists SET name = ?, type = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, l.Name, l.Type, l.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return nil
}

// DeleteList deletes a list and its items
func (r *ListRepository) DeleteList(ctx context.Context, id int64) error {
	query := "DELETE FROM lists WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// AddItem adds an item to a list
func (r *ListRepository) AddItem(ctx context.Context, item *models.ListItem) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO list_items (list_id, title, purchased, assigned_member_id, purchased_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, item.ListID, item.Title, item.Purchased, item.AssignedMemberID, item.PurchasedAt, now)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	return nil
}

const itemColumns = "id, list_id, title, purchased, assigned_member_id, purchased_at, created_at"

func scanItem(row scanner) (*models.ListItem, error) {
	item := &models.ListItem{}
	err := row.Scan(&item.ID, &item.ListID, &item.Title, &item.Purchased, &item.AssignedMemberID, &item.PurchasedAt, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItemByID retrieves a list item by ID
func (r *ListRepository) GetItemByID(ctx context.Context, id int64) (*models.ListItem, error) {
	query := "SELECT " + itemColumns + " FROM list_items WHERE id = ?"
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// GetListItems retrieves all items for a list, unpurchased first
func (r *ListRepository) GetListItems(ctx context.Context, listID int64) ([]models.ListItem, error) {
	query := "SELECT " + itemColumns + " FROM list_items WHERE list_id = ? ORDER BY purchased ASC, created_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.ListItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// UpdateItem writes an item's editable fields
func (r *ListRepository) UpdateItem(ctx context.Context, item *models.ListItem) error {
	query := "UPDATE list_items SET title = ?, purchased = ?, assigned_member_id = ?, purchased_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, item.Title, item.Purchased, item.AssignedMemberID, item.PurchasedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// DeleteItem deletes a list item
func (r *ListRepository) DeleteItem(ctx context.Context, id int64) error {
	query := "DELETE FROM list_items WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
