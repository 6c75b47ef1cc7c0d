package util

import (
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ\s\-]+$`)

// ValidateName reports whether a display name contains only letters
// (accented included), spaces, and hyphens.
func ValidateName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	return namePattern.MatchString(trimmed)
}

// ValidatePassword enforces minimum password strength: at least 8 characters
// with an upper-case letter, a lower-case letter, a digit, and a special
// character.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>`, r):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
