// Package validators holds request input validation shared by the handlers
package validators

import (
	"errors"
	"net/mail"
)

var (
	ErrEmailEmpty   = errors.New("no email provided")
	ErrEmailInvalid = errors.New("invalid email address")
	ErrEmailTooLong = errors.New("email is too long")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > 254 {
		return ErrEmailTooLong
	}

	if _, err := mail.ParseAddress(e); err != nil {
		return ErrEmailInvalid
	}

	return nil
}
