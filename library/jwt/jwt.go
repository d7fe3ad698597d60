// Package jwt signs and parses session tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "laisky-portfolio"

// JWT signs HS256 session tokens
type JWT struct {
	secret []byte
	ttl    time.Duration
}

// New create JWT, secret must be at least 16 bytes
func New(secret []byte, ttl time.Duration) (*JWT, error) {
	if len(secret) < 16 {
		return nil, errors.Errorf("jwt secret too short, got %d bytes", len(secret))
	}
	if ttl <= 0 {
		return nil, errors.Errorf("invalid jwt ttl %s", ttl)
	}

	return &JWT{secret: secret, ttl: ttl}, nil
}

// TTL lifetime of issued tokens
func (j *JWT) TTL() time.Duration {
	return j.ttl
}

// Sign fills registered claims and signs. It returns the token string
// and the claims actually signed.
func (j *JWT) Sign(claims *UserClaims) (string, *UserClaims, error) {
	now := gutils.Clock.GetUTCNow()
	signed := *claims
	signed.Issuer = issuer
	signed.ID = gutils.UUID7()
	signed.IssuedAt = jwt.NewNumericDate(now)
	signed.ExpiresAt = jwt.NewNumericDate(now.Add(j.ttl))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &signed).SignedString(j.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign jwt")
	}

	return token, &signed, nil
}

// Parse verifies the token signature and expiry
func (j *JWT) Parse(token string) (*UserClaims, error) {
	claims := new(UserClaims)
	if _, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return gutils.Clock.GetUTCNow() }),
	); err != nil {
		return nil, errors.Wrap(err, "parse jwt")
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("jwt missing subject or id")
	}

	return claims, nil
}
