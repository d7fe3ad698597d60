package auth

import (
	"net/http"
	"net/url"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
)

// SignInPath is where the page guard sends anonymous visitors
const SignInPath = "/auth/signin"

// PageGuard protects browser pages. Anonymous visitors are redirected to
// the sign-in page with a `next` parameter, and when requireAdmin is set
// authenticated non-admins are sent home.
func PageGuard(requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		switch {
		case !p.IsAuthenticated():
			target := SignInPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
		case requireAdmin && !p.IsAdmin():
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		default:
			c.Next()
		}
	}
}

// APIGuard rejects requests whose principal fails policy
func APIGuard(policy func(*Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy(GetPrincipal(c)); err != nil {
			c.AbortWithStatusJSON(HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.Next()
	}
}

// HTTPStatus maps gate errors to status codes, 0 when err is not a gate error
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return 0
	}
}
