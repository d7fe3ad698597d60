package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims session claims, Subject is the user uid and ID the token id
type UserClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Role        string `json:"role"`
}
