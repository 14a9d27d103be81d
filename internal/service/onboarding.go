package service

import (
	"context"

	"familyhub/internal/identity"
	"familyhub/internal/models"
)

// OnboardingState is where a caller stands in the create-or-join flow
type OnboardingState string

const (
	StateUnauthenticated OnboardingState = "unauthenticated"
	StateNoFamily        OnboardingState = "authenticated_no_family"
	StateWithFamily      OnboardingState = "authenticated_with_family"
)

// Onboarding is recomputed on every request; memberships change out of band
type Onboarding struct {
	State       OnboardingState           `json:"state"`
	Memberships []models.FamilyMembership `json:"memberships"`
}

// Onboarding reports the caller's onboarding state. A nil identity means the
// request carried no valid credential.
func (s *MembershipService) Onboarding(ctx context.Context, id *identity.Identity) (*Onboarding, error) {
	if id == nil {
		return &Onboarding{State: StateUnauthenticated, Memberships: []models.FamilyMembership{}}, nil
	}

	memberships, err := s.GetMembershipsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	state := StateWithFamily
	if len(memberships) == 0 {
		state = StateNoFamily
	}
	return &Onboarding{State: state, Memberships: memberships}, nil
}
