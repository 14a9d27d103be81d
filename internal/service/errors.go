package service

import "errors"

// Errors returned by the services. Handlers map each to one HTTP status.
var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not found")
	ErrInviteExpired           = errors.New("invite expired")
	ErrConflict                = errors.New("conflict")
	ErrFamilySelectionRequired = errors.New("family selection required")
	ErrNoFamily                = errors.New("caller has no family")
	ErrUpstream                = errors.New("upstream provider error")
	ErrNotConfigured           = errors.New("integration not configured")
)
