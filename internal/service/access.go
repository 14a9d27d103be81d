package service

import (
	"context"
	"strings"

	"familyhub/internal/repository"
	"familyhub/internal/validation"
)

// checkAssignee verifies that an assigned persona belongs to familyID.
// Personas of other families are reported as missing.
func checkAssignee(ctx context.Context, personas *repository.PersonaRepository, familyID int64, memberID *int64, field string) error {
	if memberID == nil {
		return nil
	}
	p, err := personas.GetPersonaByID(ctx, *memberID)
	if err != nil {
		return err
	}
	if p == nil || p.FamilyID != familyID {
		return validation.Error{Field: field, Message: "family member not found"}
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
