// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
//
// Every store key and comparison involving an email address must go through
// Email (or EmailAddress when validation is needed); raw input is never a key.
package normalize

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned by EmailAddress for empty or malformed addresses.
var ErrInvalidEmail = errors.New("invalid email address")

// Email normalizes an email address by trimming whitespace and converting to
// lowercase. This is the canonical way to normalize emails before storage or
// comparison. It is idempotent: Email(Email(s)) == Email(s).
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailAddress normalizes and validates an email address, returning the
// canonical form. Validation happens before any store lookup so malformed
// input never reaches a query.
func EmailAddress(s string) (string, error) {
	email := Email(s)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		// ParseAddress accepts display names ("A <a@b.com>"); only a bare
		// address is a valid login identifier.
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Role normalizes a role value by trimming whitespace and converting to lowercase.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Code normalizes a submitted login code by trimming whitespace.
func Code(s string) string {
	return strings.TrimSpace(s)
}
