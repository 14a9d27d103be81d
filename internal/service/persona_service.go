package service

import (
	"context"
	"strings"
	"time"

	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"
)

// PersonaInput is the body of a persona create request
type PersonaInput struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	BirthYear *int   `json:"birth_year"`
	AvatarURL string `json:"avatar_url"`
	Color     string `json:"color"`
}

// PersonaPatch holds the fields a persona update may change
type PersonaPatch struct {
	Name      *string       `json:"name"`
	Role      *string       `json:"role"`
	BirthYear Nullable[int] `json:"birth_year"`
	AvatarURL *string       `json:"avatar_url"`
	Color     *string       `json:"color"`
}

// PersonaService manages family member personas
type PersonaService struct {
	personas *repository.PersonaRepository
	access   *MembershipService
	now      func() time.Time
}

// NewPersonaService creates a new persona service
func NewPersonaService(personas *repository.PersonaRepository, access *MembershipService) *PersonaService {
	return &PersonaService{personas: personas, access: access, now: time.Now}
}

func (s *PersonaService) List(ctx context.Context, userID string, familyID int64) ([]models.FamilyMember, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.personas.GetFamilyPersonas(ctx, familyID)
}

func (s *PersonaService) Create(ctx context.Context, userID string, familyID int64, in PersonaInput) (*models.FamilyMember, error) {
	if _, err := s.access.RequireMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	p := &models.FamilyMember{
		FamilyID:  familyID,
		Name:      strings.TrimSpace(in.Name),
		Role:      strings.TrimSpace(in.Role),
		BirthYear: in.BirthYear,
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		Color:     strings.TrimSpace(in.Color),
	}
	if p.Role == "" {
		p.Role = models.RoleMember
	}
	if p.Color == "" {
		p.Color = models.DefaultPersonaColor
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}

	if err := s.personas.CreatePersona(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PersonaService) Update(ctx context.Context, userID string, personaID int64, patch PersonaPatch) (*models.FamilyMember, error) {
	p, err := s.load(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = trimmed(patch.Name)
	}
	if patch.Role != nil {
		p.Role = trimmed(patch.Role)
	}
	patch.BirthYear.apply(&p.BirthYear)
	if patch.AvatarURL != nil {
		p.AvatarURL = trimmed(patch.AvatarURL)
	}
	if patch.Color != nil {
		p.Color = trimmed(patch.Color)
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}

	if err := s.personas.UpdatePersona(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PersonaService) Delete(ctx context.Context, userID string, personaID int64) error {
	if _, err := s.load(ctx, userID, personaID); err != nil {
		return err
	}
	return s.personas.DeletePersona(ctx, personaID)
}

func (s *PersonaService) load(ctx context.Context, userID string, personaID int64) (*models.FamilyMember, error) {
	p, err := s.personas.GetPersonaByID(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if _, err := s.access.RequireMember(ctx, userID, p.FamilyID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PersonaService) validate(p *models.FamilyMember) error {
	if err := validation.ValidateRequired("name", p.Name, 100); err != nil {
		return err
	}
	if err := validation.ValidateColor(p.Color); err != nil {
		return err
	}
	if p.BirthYear != nil {
		if err := validation.ValidateBirthYear(*p.BirthYear, s.now()); err != nil {
			return err
		}
	}
	return nil
}
