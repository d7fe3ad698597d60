// Package service signs users up and in with a password or a Google ID token.
package service

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"github.com/Laisky/laisky-portfolio/internal/web/user/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/user/model"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const (
	// minPasswordLength shortest accepted password
	minPasswordLength = 8
	// maxPasswordLength bcrypt ignores bytes beyond 72
	maxPasswordLength = 72
	// maxDisplayNameLength caps the length of display names.
	maxDisplayNameLength = 128
	// googleUIDPrefix namespaces uids of Google accounts
	googleUIDPrefix = "google-"
)

// TokenValidator verifies a Google ID token for audience
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Config user service settings
type Config struct {
	// AdminEmails are promoted to admin when they sign in with a verified email
	AdminEmails []string
	// GoogleClientID audience of Google ID tokens, empty disables Google sign-in
	GoogleClientID string
	// BcryptCost zero means bcrypt.DefaultCost
	BcryptCost int
}

// User service
type User struct {
	dao         *dao.User
	cfg         Config
	adminEmails map[string]struct{}
	validate    TokenValidator
}

// Option customizes User
type Option func(*User)

// WithTokenValidator replaces the Google ID token check
func WithTokenValidator(v TokenValidator) Option {
	return func(u *User) {
		u.validate = v
	}
}

// New create user service
func New(d *dao.User, cfg Config, opts ...Option) *User {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	s := &User{
		dao:         d,
		cfg:         cfg,
		adminEmails: map[string]struct{}{},
		validate:    idtoken.Validate,
	}
	for _, email := range cfg.AdminEmails {
		if email = normalizeEmail(email); email != "" {
			s.adminEmails[email] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUpInput password registration
type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Validate checks the registration
func (r SignUpInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(minPasswordLength, maxPasswordLength),
		),
		validation.Field(&r.DisplayName, validation.RuneLength(0, maxDisplayNameLength)),
	)
}

// SignUp registers a password account and signs it in
func (s *User) SignUp(ctx context.Context, in SignUpInput) (*auth.Principal, error) {
	in.Email = normalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := in.Validate(); err != nil {
		return nil, errors.Wrap(model.ErrValidation, err.Error())
	}

	switch _, err := s.dao.FindByEmail(ctx, in.Email); {
	case err == nil:
		return nil, errors.WithStack(model.ErrEmailTaken)
	case !docstore.IsNotFound(err):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName, _, _ = strings.Cut(in.Email, "@")
	}

	uid := gutils.UUID7()
	if err = s.dao.Create(ctx, uid, map[string]any{
		"email":        in.Email,
		"displayName":  displayName,
		"photoUrl":     "",
		"provider":     string(model.ProviderPassword),
		"passwordHash": string(hash),
		"role":         string(auth.RoleUser),
		"createdAt":    docstore.ServerTimestamp,
		"lastLoginAt":  docstore.ServerTimestamp,
	}); err != nil {
		return nil, err
	}

	log.Logger.Info("sign up", zap.String("uid", uid), zap.String("email", in.Email))
	return s.load(ctx, uid)
}

// SignIn checks an email and password. Every failure caused by the
// credentials themselves is ErrInvalidCredentials.
func (s *User) SignIn(ctx context.Context, email, password string) (*auth.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}

	u, err := s.dao.FindByEmail(ctx, email)
	switch {
	case docstore.IsNotFound(err):
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	case err != nil:
		return nil, err
	}

	if u.PasswordHash == "" {
		return nil, errors.Wrap(model.ErrInvalidCredentials, "account has no password")
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}

	return s.touch(ctx, u, nil, false)
}

// SignInWithGoogle verifies a Google ID token. An existing account with the
// same verified email is reused, otherwise a Google account is created.
func (s *User) SignInWithGoogle(ctx context.Context, token string) (*auth.Principal, error) {
	if s.cfg.GoogleClientID == "" {
		return nil, errors.Wrap(model.ErrInvalidCredentials, "google sign-in disabled")
	}

	payload, err := s.validate(ctx, token, s.cfg.GoogleClientID)
	if err != nil {
		return nil, errors.Wrap(model.ErrInvalidCredentials, err.Error())
	}

	email := normalizeEmail(claimString(payload.Claims, "email"))
	if email == "" || !claimBool(payload.Claims, "email_verified") {
		return nil, errors.Wrap(model.ErrInvalidCredentials, "google email not verified")
	}
	profile := map[string]any{
		"displayName": claimString(payload.Claims, "name"),
		"photoUrl":    claimString(payload.Claims, "picture"),
	}

	u, err := s.dao.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.touch(ctx, u, profile, true)
	case !docstore.IsNotFound(err):
		return nil, err
	}

	uid := googleUIDPrefix + payload.Subject
	data := map[string]any{
		"email":       email,
		"provider":    string(model.ProviderGoogle),
		"role":        string(s.roleFor(email, auth.RoleUser)),
		"createdAt":   docstore.ServerTimestamp,
		"lastLoginAt": docstore.ServerTimestamp,
	}
	for k, v := range profile {
		data[k] = v
	}
	if err = s.dao.Create(ctx, uid, data); err != nil {
		return nil, err
	}

	log.Logger.Info("sign up with google", zap.String("uid", uid), zap.String("email", email))
	return s.load(ctx, uid)
}

// Me the signed in user
func (s *User) Me(ctx context.Context, p *auth.Principal) (*model.Public, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	u, err := s.dao.Get(ctx, p.UID)
	if err != nil {
		return nil, err
	}

	return &model.Public{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Provider:    u.Provider,
		Role:        u.Role,
		IsAdmin:     u.Role == auth.RoleAdmin,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}, nil
}

// touch records the login and refreshes profile fields. The admin bootstrap
// list only applies when emailVerified, a promoted account drops any password
// that was set before the email was proven.
func (s *User) touch(ctx context.Context,
	u *model.User, profile map[string]any, emailVerified bool) (*auth.Principal, error) {
	data := map[string]any{
		"lastLoginAt": docstore.ServerTimestamp,
	}
	for k, v := range profile {
		if v != "" {
			data[k] = v
		}
	}
	if emailVerified {
		if role := s.roleFor(u.Email, u.Role); role != u.Role {
			log.Logger.Info("promote user", zap.String("uid", u.UID), zap.String("role", string(role)))
			data["role"] = string(role)
			if role == auth.RoleAdmin && u.PasswordHash != "" {
				data["passwordHash"] = ""
				data["provider"] = string(model.ProviderGoogle)
			}
		}
	}

	if err := s.dao.Update(ctx, u.UID, data); err != nil {
		return nil, err
	}

	return s.load(ctx, u.UID)
}

// Role is the current role stored for uid, a removed user is unauthorized
func (s *User) Role(ctx context.Context, uid string) (auth.Role, error) {
	u, err := s.dao.Get(ctx, uid)
	switch {
	case docstore.IsNotFound(err):
		return "", errors.Wrap(auth.ErrUnauthorized, "user not found")
	case err != nil:
		return "", err
	}

	return u.Role, nil
}

func (s *User) load(ctx context.Context, uid string) (*auth.Principal, error) {
	u, err := s.dao.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	return u.Principal(), nil
}

// roleFor promotes bootstrap admins, other roles are kept as they are
func (s *User) roleFor(email string, cur auth.Role) auth.Role {
	if _, ok := s.adminEmails[normalizeEmail(email)]; ok {
		return auth.RoleAdmin
	}
	if cur == "" {
		return auth.RoleUser
	}

	return cur
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func claimString(claims map[string]any, key string) string {
	v, _ := claims[key].(string)
	return v
}

func claimBool(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
