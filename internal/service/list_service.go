package service

import (
	"context"
	"strings"
	"time"

	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"
)

type ListInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ListPatch struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type ItemInput struct {
	Title            string `json:"title"`
	AssignedMemberID *int64 `json:"assigned_member_id"`
}

type ItemPatch struct {
	Title            *string         `json:"title"`
	Purchased        *bool           `json:"purchased"`
	AssignedMemberID Nullable[int64] `json:"assigned_member_id"`
}

// ListService handles shopping and to-do list business logic
type ListService struct {
	lists    *repository.ListRepository
	personas *repository.PersonaRepository
	access   *MembershipService
	now      func() time.Time
}

// NewListService creates a new list service
func NewListService(lists *repository.ListRepository, personas *repository.PersonaRepository, access *MembershipService) *ListService {
	return &ListService{lists: lists, personas: personas, access: access, now: time.Now}
}

// List returns every list of the family with its items
func (s *ListService) List(ctx context.Context, userID string, familyID int64) ([]models.ListWithItems, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	lists, err := s.lists.GetFamilyLists(ctx, familyID)
	if err != nil {
		return nil, err
	}

	result := make([]models.ListWithItems, 0, len(lists))
	for _, l := range lists {
		items, err := s.lists.GetListItems(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.ListWithItems{List: l, Items: items})
	}
	return result, nil
}

func (s *ListService) Create(ctx context.Context, userID string, familyID int64, in ListInput) (*models.List, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	l := &models.List{FamilyID: familyID, Name: strings.TrimSpace(in.Name), Type: strings.TrimSpace(in.Type)}
	if l.Type == "" {
		l.Type = models.DefaultListType
	}
	if err := validation.ValidateRequired("name", l.Name, 100); err != nil {
		return nil, err
	}

	if err := s.lists.CreateList(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListService) Update(ctx context.Context, userID string, listID int64, patch ListPatch) (*models.List, error) {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		l.Name = trimmed(patch.Name)
	}
	if patch.Type != nil {
		l.Type = trimmed(patch.Type)
	}
	if l.Type == "" {
		l.Type = models.DefaultListType
	}
	if err := validation.ValidateRequired("name", l.Name, 100); err != nil {
		return nil, err
	}

	if err := s.lists.UpdateList(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListService) Delete(ctx context.Context, userID string, listID int64) error {
	if _, err := s.load(ctx, userID, listID); err != nil {
		return err
	}
	return s.lists.DeleteList(ctx, listID)
}

func (s *ListService) Items(ctx context.Context, userID string, listID int64) ([]models.ListItem, error) {
	if _, err := s.load(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.lists.GetListItems(ctx, listID)
}

func (s *ListService) AddItem(ctx context.Context, userID string, listID int64, in ItemInput) (*models.ListItem, error) {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	item := &models.ListItem{ListID: listID, Title: strings.TrimSpace(in.Title), AssignedMemberID: in.AssignedMemberID}
	if err := validation.ValidateRequired("title", item.Title, 200); err != nil {
		return nil, err
	}
	if err := checkAssignee(ctx, s.personas, l.FamilyID, item.AssignedMemberID, "assigned_member_id"); err != nil {
		return nil, err
	}

	if err := s.lists.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem edits an item. Toggling purchased stamps or clears purchased_at.
func (s *ListService) UpdateItem(ctx context.Context, userID string, listID, itemID int64, patch ItemPatch) (*models.ListItem, error) {
	l, item, err := s.loadItem(ctx, userID, listID, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		item.Title = trimmed(patch.Title)
	}
	if patch.Purchased != nil && *patch.Purchased != item.Purchased {
		item.Purchased = *patch.Purchased
		if item.Purchased {
			now := s.now().UTC()
			item.PurchasedAt = &now
		} else {
			item.PurchasedAt = nil
		}
	}
	patch.AssignedMemberID.apply(&item.AssignedMemberID)
	if err := validation.ValidateRequired("title", item.Title, 200); err != nil {
		return nil, err
	}
	if err := checkAssignee(ctx, s.personas, l.FamilyID, item.AssignedMemberID, "assigned_member_id"); err != nil {
		return nil, err
	}

	if err := s.lists.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ListService) DeleteItem(ctx context.Context, userID string, listID, itemID int64) error {
	if _, _, err := s.loadItem(ctx, userID, listID, itemID); err != nil {
		return err
	}
	return s.lists.DeleteItem(ctx, itemID)
}

func (s *ListService) load(ctx context.Context, userID string, listID int64) (*models.List, error) {
	l, err := s.lists.GetListByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if _, err := s.access.RequireMember(ctx, userID, l.FamilyID); err != nil {
		return nil, err
	}
	return l, nil
}

// loadItem resolves an item addressed through its list; an item of another list is not found
func (s *ListService) loadItem(ctx context.Context, userID string, listID, itemID int64) (*models.List, *models.ListItem, error) {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.lists.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil || item.ListID != l.ID {
		return nil, nil, ErrNotFound
	}
	return l, item, nil
}
