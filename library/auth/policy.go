package auth

import (
	"github.com/Laisky/errors/v2"
)

var (
	// ErrUnauthorized no session, sign in first
	ErrUnauthorized = errors.New("sign in required")
	// ErrForbidden signed in but not allowed
	ErrForbidden = errors.New("permission denied")
)

// RequireAuthenticated allows users and admins
func RequireAuthenticated(p *Principal) error {
	if !p.IsAuthenticated() {
		return errors.WithStack(ErrUnauthorized)
	}
	return nil
}

// RequireAdmin allows admins only
func RequireAdmin(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return errors.WithStack(ErrForbidden)
	}
	return nil
}

// CanDeleteComment allows the comment author and admins
func CanDeleteComment(p *Principal, authorID string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || (authorID != "" && p.UID == authorID) {
		return nil
	}
	return errors.WithStack(ErrForbidden)
}
