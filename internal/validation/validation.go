// Package validation checks request input before it reaches the datastore.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Error represents a validation error on one input field
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Error{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return Error{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for comparison and storage
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName checks if a family or persona name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Error{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return Error{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(name) > 100 {
		return Error{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

// ValidateRequired checks that a free-text field is present and bounded
func ValidateRequired(field, value string, maxLen int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return Error{Field: field, Message: field + " is required"}
	}
	if maxLen > 0 && len(value) > maxLen {
		return Error{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxLen)}
	}
	return nil
}

// ValidateColor checks for a #RRGGBB hex color
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return Error{Field: "color", Message: "color must be a hex value like #4A90E2"}
	}
	return nil
}

// ValidateBirthYear checks that a birth year is between 1900 and the current year
func ValidateBirthYear(year int, now time.Time) error {
	if year < 1900 || year > now.Year() {
		return Error{Field: "birth_year", Message: fmt.Sprintf("birth year must be between 1900 and %d", now.Year())}
	}
	return nil
}

// ValidatePoints checks a chore's point value
func ValidatePoints(points int) error {
	if points < 0 || points > 10000 {
		return Error{Field: "points", Message: "points must be between 0 and 10000"}
	}
	return nil
}

// ValidateTimeRange checks that an optional end does not precede the start
func ValidateTimeRange(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return Error{Field: "start_time", Message: "start_time is required"}
	}
	if end != nil && end.Before(start) {
		return Error{Field: "end_time", Message: "end_time must not be before start_time"}
	}
	return nil
}
