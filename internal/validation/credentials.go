package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// EmailPattern is a pragmatic email check: one @, no spaces, a dot in the
// domain part. Full RFC 5322 validation is not attempted.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	// MinPasswordLen is the minimum accepted password length
	MinPasswordLen = 8
	// MaxEmailLen caps stored email length
	MaxEmailLen = 254
)

// NormalizeEmail lowercases and trims an email for storage and lookup.
// Uniqueness is enforced on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is plausible after normalization
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	if !EmailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePassword checks minimum password requirements
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
