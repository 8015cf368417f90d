// Package validate holds the pure input checks performed before any
// provider call.
package validate

import (
	"errors"
	"regexp"
)

// MinPasswordLength is the shortest password the signup form accepts.
const MinPasswordLength = 6

var (
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// IsValidEmail reports whether text looks like local@domain.tld. It is a
// shape check only; no DNS or mailbox verification happens here.
func IsValidEmail(text string) bool {
	return emailPattern.MatchString(text)
}

// ValidatePassword rejects passwords shorter than MinPasswordLength.
func ValidatePassword(text string) error {
	if len(text) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
