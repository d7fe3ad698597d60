// Package auth is the request-scoped authorization gate.
//
// Sessions are HS256 JWTs carried in a cookie or a bearer header. The
// middleware turns a valid, unrevoked token into a Principal on the gin
// context, policy functions decide what that principal may do.
package auth

import (
	"time"
)

// Role stored on the user record and in the session claims
type Role string

const (
	// RoleUser any signed-in user
	RoleUser Role = "user"
	// RoleAdmin may mutate content and moderate comments
	RoleAdmin Role = "admin"
)

// State of a request principal
type State int

const (
	// StateAnonymous no valid session
	StateAnonymous State = iota
	// StateAuthenticated signed-in non admin
	StateAuthenticated
	// StateAdmin signed-in admin
	StateAdmin
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Principal is who issued the current request.
// The zero value is anonymous.
type Principal struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoUrl"`
	Role        Role      `json:"role"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"-"`
}

// Anonymous is the principal of requests without a session
var Anonymous = &Principal{}

// State derives the gate state
func (p *Principal) State() State {
	switch {
	case p == nil || p.UID == "":
		return StateAnonymous
	case p.Role == RoleAdmin:
		return StateAdmin
	default:
		return StateAuthenticated
	}
}

// IsAuthenticated true for users and admins
func (p *Principal) IsAuthenticated() bool {
	return p.State() != StateAnonymous
}

// IsAdmin true only for admins
func (p *Principal) IsAdmin() bool {
	return p.State() == StateAdmin
}
