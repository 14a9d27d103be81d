package service

import (
	"context"
	"strings"
	"time"

	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"
)

type ChoreInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	AssignedMemberID *int64     `json:"assigned_member_id"`
	Points           int        `json:"points"`
	Recurring        string     `json:"recurring"`
	DueDate          *time.Time `json:"due_date"`
}

type ChorePatch struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	AssignedMemberID Nullable[int64]     `json:"assigned_member_id"`
	Points           *int                `json:"points"`
	Recurring        *string             `json:"recurring"`
	DueDate          Nullable[time.Time] `json:"due_date"`
}

// CompleteInput names the persona that did the chore. A zero MemberID
// falls back to the chore's assignee.
type CompleteInput struct {
	MemberID int64  `json:"member_id"`
	Notes    string `json:"notes"`
}

// ChoreService manages chores and the points they award
type ChoreService struct {
	chores   *repository.ChoreRepository
	personas *repository.PersonaRepository
	access   *MembershipService
}

// NewChoreService creates a new chore service
func NewChoreService(chores *repository.ChoreRepository, personas *repository.PersonaRepository, access *MembershipService) *ChoreService {
	return &ChoreService{chores: chores, personas: personas, access: access}
}

func (s *ChoreService) List(ctx context.Context, userID string, familyID int64) ([]models.Chore, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.chores.GetFamilyChores(ctx, familyID)
}

func (s *ChoreService) Create(ctx context.Context, userID string, familyID int64, in ChoreInput) (*models.Chore, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	c := &models.Chore{
		FamilyID:         familyID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		AssignedMemberID: in.AssignedMemberID,
		Points:           in.Points,
		Recurring:        strings.TrimSpace(in.Recurring),
		DueDate:          utcPtr(in.DueDate),
	}
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}

	if err := s.chores.CreateChore(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreService) Update(ctx context.Context, userID string, choreID int64, patch ChorePatch) (*models.Chore, error) {
	c, err := s.load(ctx, userID, choreID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		c.Title = trimmed(patch.Title)
	}
	if patch.Description != nil {
		c.Description = trimmed(patch.Description)
	}
	patch.AssignedMemberID.apply(&c.AssignedMemberID)
	if patch.Points != nil {
		c.Points = *patch.Points
	}
	if patch.Recurring != nil {
		c.Recurring = trimmed(patch.Recurring)
	}
	patch.DueDate.apply(&c.DueDate)
	c.DueDate = utcPtr(c.DueDate)
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}

	if err := s.chores.UpdateChore(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreService) Delete(ctx context.Context, userID string, choreID int64) error {
	if _, err := s.load(ctx, userID, choreID); err != nil {
		return err
	}
	return s.chores.DeleteChore(ctx, choreID)
}

// Complete records a completion credited to a persona of the chore's family.
// Points go to the persona, never to the signed-in user.
func (s *ChoreService) Complete(ctx context.Context, userID string, choreID int64, in CompleteInput) (*models.ChoreCompletion, error) {
	c, err := s.load(ctx, userID, choreID)
	if err != nil {
		return nil, err
	}

	memberID := in.MemberID
	if memberID == 0 && c.AssignedMemberID != nil {
		memberID = *c.AssignedMemberID
	}
	if memberID == 0 {
		return nil, validation.Error{Field: "member_id", Message: "member_id is required"}
	}
	if err := checkAssignee(ctx, s.personas, c.FamilyID, &memberID, "member_id"); err != nil {
		return nil, err
	}

	completion := &models.ChoreCompletion{
		ChoreID:       c.ID,
		CompletedByID: memberID,
		PointsAwarded: c.Points,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.chores.RecordCompletion(ctx, completion); err != nil {
		return nil, err
	}
	return completion, nil
}

func (s *ChoreService) Completions(ctx context.Context, userID string, choreID int64) ([]models.ChoreCompletion, error) {
	if _, err := s.load(ctx, userID, choreID); err != nil {
		return nil, err
	}
	return s.chores.GetChoreCompletions(ctx, choreID)
}

// Points returns the family leaderboard
func (s *ChoreService) Points(ctx context.Context, userID string, familyID int64) ([]models.PointsTotal, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.chores.GetFamilyPoints(ctx, familyID)
}

func (s *ChoreService) load(ctx context.Context, userID string, choreID int64) (*models.Chore, error) {
	c, err := s.chores.GetChoreByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if _, err := s.access.RequireMember(ctx, userID, c.FamilyID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreService) validate(ctx context.Context, c *models.Chore) error {
	if err := validation.ValidateRequired("title", c.Title, 200); err != nil {
		return err
	}
	if err := validation.ValidatePoints(c.Points); err != nil {
		return err
	}
	return checkAssignee(ctx, s.personas, c.FamilyID, c.AssignedMemberID, "assigned_member_id")
}
