package auth

import (
	"net/mail"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
)

// ValidateCredentials checks a login form before anything is sent to the backend.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "email %q is not valid", email)
	}
	if password == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "password is required")
	}
	return nil
}
