package controller

import (
	"unicode/utf8"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/internal/web/user/model"
)

const (
	loginFailedMessage = "login failed"
	// maxCredentialLength caps emails, passwords and tokens before any work is done
	maxCredentialLength = 4096
)

// maskLoginError returns a sanitized login error for client responses.
// It accepts the raw error from the login flow and returns a safe error message.
func maskLoginError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, model.ErrInvalidCredentials) {
		return errors.WithStack(model.ErrInvalidCredentials)
	}

	return errors.WithStack(errors.New(loginFailedMessage))
}

// validateInputLength rejects any value longer than limit runes
func validateInputLength(limit int, values ...string) error {
	for _, v := range values {
		if utf8.RuneCountInString(v) > limit {
			return errors.Wrapf(model.ErrValidation, "input exceeds %d characters", limit)
		}
	}

	return nil
}
