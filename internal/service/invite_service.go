package service

import (
	"context"
	"errors"
	"fmt"

	"familyhub/internal/identity"
	"familyhub/internal/models"
	"familyhub/internal/repository"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

// InviteService manages email-bound, single-use invites
type InviteService struct {
	invites    *repository.InviteRepository
	families   *repository.FamilyRepository
	membership *MembershipService
	logger     *zap.Logger
}

// NewInviteService creates a new invite service
func NewInviteService(invites *repository.InviteRepository, families *repository.FamilyRepository, membership *MembershipService, logger *zap.Logger) *InviteService {
	return &InviteService{
		invites:    invites,
		families:   families,
		membership: membership,
		logger:     logger,
	}
}

// CreateInvite invites email to familyID. The caller must be a member.
func (s *InviteService) CreateInvite(ctx context.Context, id *identity.Identity, familyID int64, email string) (*models.Invite, error) {
	m, err := s.families.GetMembership(ctx, familyID, id.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrForbidden
	}

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	token, err := repository.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	now := s.membership.now().UTC()
	invite := &models.Invite{
		FamilyID:  familyID,
		Email:     validation.NormalizeEmail(email),
		InvitedBy: id.ID,
		Token:     token,
		ExpiresAt: now.Add(models.InviteTTL),
		CreatedAt: now,
	}
	if err := s.invites.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}

	if family, err := s.families.GetFamilyByID(ctx, familyID); err == nil && family != nil {
		invite.FamilyName = family.Name
	}

	s.logger.Info("invite created", zap.Int64("family_id", familyID), zap.Int64("invite_id", invite.ID))
	return invite, nil
}

// ResolveInvite previews an invite without authentication. Accepted and
// unknown tokens are indistinguishable; expired ones get ErrInviteExpired.
func (s *InviteService) ResolveInvite(ctx context.Context, token string) (*models.Invite, *models.Family, error) {
	invite, err := s.invites.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if invite == nil || !invite.IsPending() {
		return nil, nil, ErrNotFound
	}
	if invite.IsExpired(s.membership.now()) {
		return nil, nil, ErrInviteExpired
	}

	family, err := s.families.GetFamilyByID(ctx, invite.FamilyID)
	if err != nil {
		return nil, nil, err
	}
	if family == nil {
		return nil, nil, ErrNotFound
	}
	return invite, family, nil
}

// AcceptInvite grants the caller membership in the invite's family. The status
// flip and the grant share a transaction, so only one acceptance can succeed.
func (s *InviteService) AcceptInvite(ctx context.Context, id *identity.Identity, token string) (*models.Membership, error) {
	invite, err := s.invites.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, ErrNotFound
	}
	if !invite.IsPending() {
		return nil, fmt.Errorf("%w: invite already accepted", ErrConflict)
	}

	now := s.membership.now().UTC()
	if invite.IsExpired(now) {
		return nil, ErrInviteExpired
	}
	if validation.NormalizeEmail(id.Email) != validation.NormalizeEmail(invite.Email) {
		return nil, fmt.Errorf("%w: invite was sent to a different email", ErrForbidden)
	}

	membership, err := s.invites.AcceptInvite(ctx, invite.ID, id.ID, models.RoleParent, now)
	switch {
	case errors.Is(err, repository.ErrInviteNotPending):
		return nil, fmt.Errorf("%w: invite already accepted", ErrConflict)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, fmt.Errorf("%w: already a member of this family", ErrConflict)
	case err != nil:
		return nil, err
	}

	s.membership.ensurePersona(ctx, invite.FamilyID, id)
	s.logger.Info("invite accepted", zap.Int64("invite_id", invite.ID), zap.String("user_id", id.ID))
	return membership, nil
}

// ListInvites lists a family's invites for one of its members
func (s *InviteService) ListInvites(ctx context.Context, id *identity.Identity, familyID int64) ([]models.Invite, error) {
	if _, err := s.membership.RequireMember(ctx, id.ID, familyID); err != nil {
		return nil, err
	}
	return s.invites.GetFamilyInvites(ctx, familyID)
}

// RevokeInvite deletes a pending invite
func (s *InviteService) RevokeInvite(ctx context.Context, id *identity.Identity, inviteID int64) error {
	invite, err := s.invites.GetInviteByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite == nil {
		return ErrNotFound
	}
	if _, err := s.membership.RequireMember(ctx, id.ID, invite.FamilyID); err != nil {
		return err
	}

	err = s.invites.DeleteInvite(ctx, inviteID)
	if errors.Is(err, repository.ErrInviteNotPending) {
		return fmt.Errorf("%w: invite already accepted", ErrConflict)
	}
	return err
}
