package repository

import "errors"

var (
	// ErrDuplicate is returned when an insert hits a unique constraint
	ErrDuplicate = errors.New("duplicate record")
	// ErrInviteNotPending is returned when an invite was accepted or revoked concurrently
	ErrInviteNotPending = errors.New("invite is no longer pending")
)

type scanner interface {
	Scan(dest ...interface{}) error
}
