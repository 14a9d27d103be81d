package service

import (
	"context"
	"strings"
	"time"

	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"
)

type EventInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	AllDay           bool       `json:"all_day"`
	AssignedMemberID *int64     `json:"assigned_member_id"`
}

type EventPatch struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	Location         *string             `json:"location"`
	StartTime        *time.Time          `json:"start_time"`
	EndTime          Nullable[time.Time] `json:"end_time"`
	AllDay           *bool               `json:"all_day"`
	AssignedMemberID Nullable[int64]     `json:"assigned_member_id"`
}

// EventService manages family calendar events
type EventService struct {
	events   *repository.EventRepository
	personas *repository.PersonaRepository
	access   *MembershipService
}

// NewEventService creates a new event service
func NewEventService(events *repository.EventRepository, personas *repository.PersonaRepository, access *MembershipService) *EventService {
	return &EventService{events: events, personas: personas, access: access}
}

// List returns the family's events, limited to those overlapping [from, to) when given
func (s *EventService) List(ctx context.Context, userID string, familyID int64, from, to *time.Time) ([]models.Event, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, validation.Error{Field: "to", Message: "to must be after from"}
	}
	return s.events.GetFamilyEvents(ctx, familyID, utcPtr(from), utcPtr(to))
}

func (s *EventService) Create(ctx context.Context, userID string, familyID int64, in EventInput) (*models.Event, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	e := &models.Event{
		FamilyID:         familyID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Location:         strings.TrimSpace(in.Location),
		StartTime:        in.StartTime.UTC(),
		EndTime:          utcPtr(in.EndTime),
		AllDay:           in.AllDay,
		AssignedMemberID: in.AssignedMemberID,
	}
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}

	if err := s.events.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) Update(ctx context.Context, userID string, eventID int64, patch EventPatch) (*models.Event, error) {
	e, err := s.load(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = trimmed(patch.Title)
	}
	if patch.Description != nil {
		e.Description = trimmed(patch.Description)
	}
	if patch.Location != nil {
		e.Location = trimmed(patch.Location)
	}
	if patch.StartTime != nil {
		e.StartTime = patch.StartTime.UTC()
	}
	patch.EndTime.apply(&e.EndTime)
	e.EndTime = utcPtr(e.EndTime)
	if patch.AllDay != nil {
		e.AllDay = *patch.AllDay
	}
	patch.AssignedMemberID.apply(&e.AssignedMemberID)
	if err := s.validate(ctx, e); err != nil {
		return nil, err
	}

	if err := s.events.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, userID string, eventID int64) error {
	if _, err := s.load(ctx, userID, eventID); err != nil {
		return err
	}
	return s.events.DeleteEvent(ctx, eventID)
}

func (s *EventService) load(ctx context.Context, userID string, eventID int64) (*models.Event, error) {
	e, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	if _, err := s.access.RequireMember(ctx, userID, e.FamilyID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) validate(ctx context.Context, e *models.Event) error {
	if err := validation.ValidateRequired("title", e.Title, 200); err != nil {
		return err
	}
	if err := validation.ValidateTimeRange(e.StartTime, e.EndTime); err != nil {
		return err
	}
	return checkAssignee(ctx, s.personas, e.FamilyID, e.AssignedMemberID, "assigned_member_id")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
