package auth

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const (
	// SessionCookie name of the session cookie
	SessionCookie   = "portfolio_session"
	principalCtxKey = "auth.principal"
)

// RoleLookup returns the role currently stored for uid
type RoleLookup func(ctx context.Context, uid string) (Role, error)

// Sessions issues, verifies and revokes session tokens
type Sessions struct {
	jwt          *jwt.JWT
	revoked      Revocations
	cookieSecure bool
	roles        RoleLookup
}

// SessionOption customizes Sessions
type SessionOption func(*Sessions)

// WithRoleLookup resolves the role of every authenticated request from
// lookup instead of the token, so role changes apply before the token expires
func WithRoleLookup(lookup RoleLookup) SessionOption {
	return func(s *Sessions) {
		s.roles = lookup
	}
}

// NewSessions create session manager
func NewSessions(j *jwt.JWT, revoked Revocations, cookieSecure bool, opts ...SessionOption) *Sessions {
	s := &Sessions{
		jwt:          j,
		revoked:      revoked,
		cookieSecure: cookieSecure,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue signs a session for user and sets the session cookie
func (s *Sessions) Issue(c *gin.Context, user *Principal) (token string, p *Principal, err error) {
	claims := &jwt.UserClaims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Role:        string(user.Role),
	}
	claims.Subject = user.UID

	token, signed, err := s.jwt.Sign(claims)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign session")
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.jwt.TTL().Seconds()), "/", "", s.cookieSecure, true)
	return token, principalFromClaims(signed), nil
}

// Authenticate turns a token into a principal, revoked tokens are rejected
func (s *Sessions) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, errors.Wrap(ErrUnauthorized, err.Error())
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check session revocation")
	}
	if revoked {
		return nil, errors.Wrap(ErrUnauthorized, "session revoked")
	}

	p := principalFromClaims(claims)
	if s.roles != nil {
		if p.Role, err = s.roles(ctx, p.UID); err != nil {
			return nil, errors.Wrapf(err, "lookup role of %q", p.UID)
		}
	}

	return p, nil
}

// Revoke invalidates p's token for the rest of its lifetime and clears the cookie
func (s *Sessions) Revoke(c *gin.Context, p *Principal) error {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.cookieSecure, true)
	if !p.IsAuthenticated() || p.TokenID == "" {
		return nil
	}

	ttl := p.ExpiresAt.Sub(nowUTC())
	if err := s.revoked.Revoke(c.Request.Context(), p.TokenID, ttl); err != nil {
		return errors.Wrap(err, "revoke session")
	}

	return nil
}

// Middleware stores the request principal on the gin context.
// Invalid or revoked tokens degrade to anonymous.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Anonymous
		if token := tokenFromRequest(c.Request); token != "" {
			var err error
			if p, err = s.Authenticate(c.Request.Context(), token); err != nil {
				if errors.Is(err, ErrUnauthorized) {
					requestLogger(c).Debug("reject session", zap.Error(err))
				} else {
					requestLogger(c).Warn("authenticate session", zap.Error(err))
				}
				p = Anonymous
			}
		}

		c.Set(principalCtxKey, p)
		c.Next()
	}
}

// GetPrincipal returns the request principal, anonymous when none was set
func GetPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalCtxKey); ok {
		if p, ok := v.(*Principal); ok && p != nil {
			return p
		}
	}

	return Anonymous
}

// SetPrincipal overrides the request principal
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalCtxKey, p)
}

func requestLogger(c *gin.Context) glog.Logger {
	if logger := gmw.GetLogger(c); logger != nil {
		return logger
	}

	return log.Logger
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); library.HasBearerPrefix(h) {
		return library.StripBearerPrefix(h)
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}

	return ""
}

func principalFromClaims(claims *jwt.UserClaims) *Principal {
	p := &Principal{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
		Role:        Role(claims.Role),
		TokenID:     claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	return p
}
