// Package model contains the user account model.
package model

import (
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
)

var (
	// ErrNotFound user does not exist
	ErrNotFound = docstore.ErrNotFound
	// ErrValidation input rejected, nothing was written
	ErrValidation = library.ErrValidation
	// ErrInvalidCredentials indicates the login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken another account already uses the email
	ErrEmailTaken = errors.Wrap(library.ErrConflict, "email already registered")
)

// Provider how the account signs in
type Provider string

const (
	// ProviderPassword email and password
	ProviderPassword Provider = "password"
	// ProviderGoogle Google ID token
	ProviderGoogle Provider = "google"
)

// User account, stored at users/{uid}
type User struct {
	UID          string    `firestore:"-" json:"uid"`
	Email        string    `firestore:"email" json:"email"`
	DisplayName  string    `firestore:"displayName" json:"displayName"`
	PhotoURL     string    `firestore:"photoUrl" json:"photoUrl"`
	Provider     Provider  `firestore:"provider" json:"provider"`
	PasswordHash string    `firestore:"passwordHash" json:"passwordHash,omitempty"`
	Role         auth.Role `firestore:"role" json:"role"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	LastLoginAt  time.Time `firestore:"lastLoginAt" json:"lastLoginAt"`
}

// Principal the session identity of u
func (u *User) Principal() *auth.Principal {
	return &auth.Principal{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Role:        u.Role,
	}
}

// Public is the user as shown to the user themselves
type Public struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoUrl"`
	Provider    Provider  `json:"provider"`
	Role        auth.Role `json:"role"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}
