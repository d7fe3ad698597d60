// Package controller exposes sign up, sign in and the session over the JSON API.
package controller

import (
	"net/http"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	"github.com/Laisky/laisky-portfolio/internal/web/user/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/throttle"
)

// Controller auth handlers
type Controller struct {
	svc      *service.User
	sessions *auth.Sessions
	// limiter throttles credential checks per client ip, nil disables it
	limiter *throttle.Throttle
}

// New create auth controller
func New(svc *service.User, sessions *auth.Sessions, limiter *throttle.Throttle) *Controller {
	return &Controller{svc: svc, sessions: sessions, limiter: limiter}
}

// Register mounts /auth routes
func (ctl *Controller) Register(r gin.IRouter) {
	r.POST("/signup", ctl.throttled, ctl.SignUp)
	r.POST("/signin", ctl.throttled, ctl.SignIn)
	r.POST("/google", ctl.throttled, ctl.Google)
	r.POST("/signout", ctl.SignOut)
	r.GET("/me", ctl.Me)
}

type sessionResponse struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoUrl"`
	Role        auth.Role `json:"role"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (ctl *Controller) throttled(c *gin.Context) {
	if ctl.limiter != nil && !ctl.limiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierr.Response{Error: "too many attempts"})
		return
	}

	c.Next()
}

// issue starts a session for p and writes it
func (ctl *Controller) issue(c *gin.Context, status int, p *auth.Principal) {
	token, signed, err := ctl.sessions.Issue(c, p)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(status, sessionResponse{
		UID:         signed.UID,
		Email:       signed.Email,
		DisplayName: signed.DisplayName,
		PhotoURL:    signed.PhotoURL,
		Role:        signed.Role,
		Token:       token,
		ExpiresAt:   signed.ExpiresAt,
	})
}

// SignUp POST /auth/signup
func (ctl *Controller) SignUp(c *gin.Context) {
	var in service.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := validateInputLength(maxCredentialLength, in.Email, in.Password, in.DisplayName); err != nil {
		apierr.Abort(c, err)
		return
	}

	p, err := ctl.svc.SignUp(c.Request.Context(), in)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	ctl.issue(c, http.StatusCreated, p)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn POST /auth/signin
func (ctl *Controller) SignIn(c *gin.Context) {
	logger := apierr.Logger(c).Named("signin")

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := validateInputLength(maxCredentialLength, req.Email, req.Password); err != nil {
		apierr.Abort(c, err)
		return
	}

	p, err := ctl.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Info("sign in failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Response{Error: maskLoginError(err).Error()})
		return
	}

	ctl.issue(c, http.StatusOK, p)
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

// Google POST /auth/google
func (ctl *Controller) Google(c *gin.Context) {
	logger := apierr.Logger(c).Named("signin_google")

	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := validateInputLength(maxCredentialLength, req.IDToken); err != nil {
		apierr.Abort(c, err)
		return
	}

	p, err := ctl.svc.SignInWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		logger.Info("google sign in failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Response{Error: maskLoginError(err).Error()})
		return
	}

	ctl.issue(c, http.StatusOK, p)
}

// SignOut POST /auth/signout, always succeeds for anonymous callers
func (ctl *Controller) SignOut(c *gin.Context) {
	if err := ctl.sessions.Revoke(c, auth.GetPrincipal(c)); err != nil {
		apierr.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me GET /auth/me
func (ctl *Controller) Me(c *gin.Context) {
	me, err := ctl.svc.Me(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, me)
}
