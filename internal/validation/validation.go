// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugs that collide with top-level routes.
var reservedSlugs = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"auth":    {},
	"ws":      {},
	"media":   {},
	"swagger": {},
	"metrics": {},
	"health":  {},
	"login":   {},
	"signup":  {},
}

// ValidatePassword requires a mix of letters and digits.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return errors.New("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username can only contain letters, numbers, dots, underscores, and hyphens")
	}
	first, last := username[0], username[len(username)-1]
	if strings.ContainsRune("._-", rune(first)) || strings.ContainsRune("._-", rune(last)) {
		return errors.New("username cannot start or end with a symbol")
	}
	return nil
}

func ValidateEmail(email string) error {
	if len(email) > 254 {
		return errors.New("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateSlug validates group and chat room slugs.
func ValidateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > 64 || !slugRegex.MatchString(slug) {
		return errors.New("slug must be 3-64 lowercase letters, numbers, or single hyphens")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return errors.New("slug is reserved")
	}
	return nil
}

// Slugify lowercases s and collapses anything outside [a-z0-9] into hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateDateRange rejects an end before the start. A zero end is open.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() {
		return errors.New("start date is required")
	}
	if !end.IsZero() && end.Before(start) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// OneOf reports an error unless v is one of allowed.
func OneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s", field, strings.Join(allowed, ", "))
}
