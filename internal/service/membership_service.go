package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"familyhub/internal/credentials"
	"familyhub/internal/identity"
	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

const inviteCodeAttempts = 5

// MembershipService owns user profiles, families and memberships
type MembershipService struct {
	users    *repository.UserRepository
	families *repository.FamilyRepository
	personas *repository.PersonaRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewMembershipService creates a new membership service
func NewMembershipService(users *repository.UserRepository, families *repository.FamilyRepository, personas *repository.PersonaRepository, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		users:    users,
		families: families,
		personas: personas,
		logger:   logger,
		now:      time.Now,
	}
}

// FamilyDetail is a family as seen by one of its members
type FamilyDetail struct {
	models.Family
	Role    string              `json:"role"`
	Members []models.MemberUser `json:"members"`
}

// EnsureUserProfile returns the profile for the identity, creating it on first use.
// Concurrent first requests race on the primary key; the loser re-reads.
func (s *MembershipService) EnsureUserProfile(ctx context.Context, id *identity.Identity) (*models.User, error) {
	email := validation.NormalizeEmail(id.Email)

	user, err := s.users.GetUserByID(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	if user != nil {
		if email != "" && user.Email != email {
			if err := s.users.UpdateProfile(ctx, user.ID, email, user.FullName); err != nil {
				return nil, err
			}
			user.Email = email
		}
		return user, nil
	}

	user = &models.User{
		ID:       id.ID,
		Email:    email,
		FullName: id.DisplayName(),
		Role:     models.DefaultUserRole,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		user, err = s.users.GetUserByID(ctx, id.ID)
		if err == nil && user == nil {
			err = fmt.Errorf("user %s vanished after duplicate insert", id.ID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	return user, nil
}

// CreateFamily creates a family owned by the caller, together with the
// caller's persona
func (s *MembershipService) CreateFamily(ctx context.Context, id *identity.Identity, name string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := credentials.GenerateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		family := &models.Family{Name: name, InviteCode: code}
		_, err = s.families.CreateFamily(ctx, family, id.ID, s.personaFor(id))
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("family created", zap.Int64("family_id", family.ID), zap.String("user_id", id.ID))
		return family, nil
	}

	return nil, fmt.Errorf("failed to allocate a unique invite code after %d attempts", inviteCodeAttempts)
}

// GetMembershipsFor lists every family the caller belongs to
func (s *MembershipService) GetMembershipsFor(ctx context.Context, id *identity.Identity) ([]models.FamilyMembership, error) {
	return s.families.GetUserMemberships(ctx, id.ID)
}

// JoinByInviteCode adds the caller to the family owning code
func (s *MembershipService) JoinByInviteCode(ctx context.Context, id *identity.Identity, code string) (*models.Family, error) {
	code = credentials.NormalizeInviteCode(code)
	if code == "" {
		return nil, validation.Error{Field: "invite_code", Message: "invite_code is required"}
	}

	family, err := s.families.GetFamilyByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	_, err = s.families.AddMembership(ctx, family.ID, id.ID, models.RoleParent)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	s.ensurePersona(ctx, family.ID, id)
	return family, nil
}

// RequireMember returns the user's membership in familyID. Non-members get
// ErrNotFound so that family ids are not confirmed to outsiders.
func (s *MembershipService) RequireMember(ctx context.Context, userID string, familyID int64) (*models.Membership, error) {
	m, err := s.families.GetMembership(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// GetFamily returns a family and its members for one of its members
func (s *MembershipService) GetFamily(ctx context.Context, id *identity.Identity, familyID int64) (*FamilyDetail, error) {
	m, err := s.RequireMember(ctx, id.ID, familyID)
	if err != nil {
		return nil, err
	}

	family, err := s.families.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrNotFound
	}

	members, err := s.families.GetFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return &FamilyDetail{Family: *family, Role: m.Role, Members: members}, nil
}

// LeaveFamily removes the caller's membership. The last member leaving
// deletes the family; a sole owner cannot leave while others remain.
func (s *MembershipService) LeaveFamily(ctx context.Context, id *identity.Identity, familyID int64) error {
	m, err := s.RequireMember(ctx, id.ID, familyID)
	if err != nil {
		return err
	}

	members, err := s.families.GetFamilyMembers(ctx, familyID)
	if err != nil {
		return err
	}

	if len(members) == 1 {
		s.logger.Info("last member left, deleting family", zap.Int64("family_id", familyID))
		return s.families.DeleteFamily(ctx, familyID)
	}

	if m.Role == models.RoleOwner {
		owners := 0
		for _, member := range members {
			if member.Role == models.RoleOwner {
				owners++
			}
		}
		if owners == 1 {
			return fmt.Errorf("%w: the only owner cannot leave while other members remain", ErrConflict)
		}
	}

	return s.families.RemoveMembership(ctx, familyID, id.ID)
}

// RegenerateInviteCode replaces the family's join code. Owners only.
func (s *MembershipService) RegenerateInviteCode(ctx context.Context, id *identity.Identity, familyID int64) (*models.Family, error) {
	m, err := s.RequireMember(ctx, id.ID, familyID)
	if err != nil {
		return nil, err
	}
	if m.Role != models.RoleOwner {
		return nil, ErrForbidden
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := credentials.GenerateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}
		err = s.families.UpdateInviteCode(ctx, familyID, code)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.families.GetFamilyByID(ctx, familyID)
	}

	return nil, fmt.Errorf("failed to allocate a unique invite code after %d attempts", inviteCodeAttempts)
}

// SelectFamily picks the family a collection request operates on. requested
// is the raw X-Family-ID header or family_id query value and may be empty.
func (s *MembershipService) SelectFamily(ctx context.Context, id *identity.Identity, requested string) (int64, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		familyID, err := strconv.ParseInt(requested, 10, 64)
		if err != nil || familyID <= 0 {
			return 0, validation.Error{Field: "family_id", Message: "family_id must be a positive integer"}
		}
		if _, err := s.RequireMember(ctx, id.ID, familyID); err != nil {
			return 0, err
		}
		return familyID, nil
	}

	memberships, err := s.families.GetUserMemberships(ctx, id.ID)
	if err != nil {
		return 0, err
	}
	switch len(memberships) {
	case 0:
		return 0, ErrNoFamily
	case 1:
		return memberships[0].Family.ID, nil
	default:
		return 0, ErrFamilySelectionRequired
	}
}

func (s *MembershipService) personaFor(id *identity.Identity) *models.FamilyMember {
	userID := id.ID
	return &models.FamilyMember{
		UserID: &userID,
		Name:   id.DisplayName(),
		Role:   models.RoleParent,
		Color:  models.DefaultPersonaColor,
	}
}

// ensurePersona adds the caller's persona after a membership grant. Failure
// only costs the avatar, so it is logged and swallowed.
func (s *MembershipService) ensurePersona(ctx context.Context, familyID int64, id *identity.Identity) {
	p := s.personaFor(id)
	p.FamilyID = familyID
	if _, err := s.personas.EnsureUserPersona(ctx, p); err != nil {
		s.logger.Warn("failed to create persona for new member",
			zap.Int64("family_id", familyID), zap.String("user_id", id.ID), zap.Error(err))
	}
}
