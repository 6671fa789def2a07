package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin console
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAdmin         = errors.New("admin privileges required")
	ErrNoCredentials    = errors.New("no stored credentials")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")

	// Transport errors
	ErrTransport = errors.New("transport failure")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single import
func New(text string) error {
	return errors.New(text)
}

// Join is errors.Join, re-exported so callers need a single import
func Join(errs ...error) error {
	return errors.Join(errs...)
}
