// Package validation carries the input rules for account and task fields.
// Every failure wraps a sentinel from entities so callers can classify with
// errors.Is without parsing messages.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tasknest/core/internal/domain/entities"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 50
	MinPasswordLen = 6
	MaxPasswordLen = 128
	MaxEmailLen    = 254
	MaxTitleLen    = 200
)

var (
	usernameRe      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	emailRe         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	hasLetterRe     = regexp.MustCompile(`[a-zA-Z]`)
	hasDigitRe      = regexp.MustCompile(`[0-9]`)
)

// Username trims and validates an account name.
func Username(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username cannot be empty", entities.ErrValidation)
	}
	if len(username) < MinUsernameLen {
		return "", fmt.Errorf("%w: username must be at least %d characters", entities.ErrValidation, MinUsernameLen)
	}
	if len(username) > MaxUsernameLen {
		return "", fmt.Errorf("%w: username cannot exceed %d characters", entities.ErrValidation, MaxUsernameLen)
	}
	if !usernameRe.MatchString(username) {
		return "", fmt.Errorf("%w: username may only contain letters, numbers, underscores and hyphens, and must start with a letter or number", entities.ErrValidation)
	}
	return username, nil
}

// Password checks length and basic strength. Failures classify as
// ErrWeakPassword so they surface distinctly from other validation errors.
func Password(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: must be at least %d characters", entities.ErrWeakPassword, MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("%w: cannot exceed %d characters", entities.ErrWeakPassword, MaxPasswordLen)
	}
	if !hasLetterRe.MatchString(password) || !hasDigitRe.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one letter and one number", entities.ErrWeakPassword)
	}
	return nil
}

// Email normalizes an optional email address. Empty input is valid and
// returns nil.
func Email(email string) (*string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	if len(email) > MaxEmailLen {
		return nil, fmt.Errorf("%w: email address too long", entities.ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", entities.ErrValidation)
	}
	return &email, nil
}

// TaskTitle trims and validates a task title.
func TaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: task title cannot be empty", entities.ErrValidation)
	}
	if len(title) > MaxTitleLen {
		return "", fmt.Errorf("%w: task title cannot exceed %d characters", entities.ErrValidation, MaxTitleLen)
	}
	return title, nil
}

// RoutineName reuses the title rules; routines surface their name the same
// way tasks surface titles.
func RoutineName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: routine name cannot be empty", entities.ErrValidation)
	}
	if len(name) > MaxTitleLen {
		return "", fmt.Errorf("%w: routine name cannot exceed %d characters", entities.ErrValidation, MaxTitleLen)
	}
	return name, nil
}
