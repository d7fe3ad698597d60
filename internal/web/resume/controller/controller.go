// Package controller exposes the profile, skills and home page over the JSON API.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	"github.com/Laisky/laisky-portfolio/internal/web/resume/dto"
	"github.com/Laisky/laisky-portfolio/internal/web/resume/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
)

// Controller résumé handlers
type Controller struct {
	svc *service.Resume
}

// New create résumé controller
func New(svc *service.Resume) *Controller {
	return &Controller{svc: svc}
}

// RegisterPublic mounts the public routes
func (ctl *Controller) RegisterPublic(r gin.IRouter) {
	r.GET("/home", ctl.Home)
	r.GET("/profile", ctl.GetProfile)
	r.GET("/skills", ctl.ListSkills)
	r.GET("/skills/:slug", ctl.GetSkill)
}

// RegisterAdmin mounts the admin routes, r must already be admin guarded
func (ctl *Controller) RegisterAdmin(r gin.IRouter) {
	r.PUT("/profile", ctl.UpdateProfile)
	r.PUT("/skills/:slug", ctl.SetSkill)
	r.DELETE("/skills/:slug", ctl.DeleteSkill)
}

// Home GET /home
func (ctl *Controller) Home(c *gin.Context) {
	home, err := ctl.svc.Home(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, home)
}

// GetProfile GET /profile
func (ctl *Controller) GetProfile(c *gin.Context) {
	profile, err := ctl.svc.GetProfile(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListSkills GET /skills
func (ctl *Controller) ListSkills(c *gin.Context) {
	skills, err := ctl.svc.ListSkills(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// GetSkill GET /skills/:slug
func (ctl *Controller) GetSkill(c *gin.Context) {
	skill, err := ctl.svc.GetSkill(c.Request.Context(), c.Param("slug"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, skill)
}

// UpdateProfile PUT /admin/profile
func (ctl *Controller) UpdateProfile(c *gin.Context) {
	in := new(dto.ProfileInput)
	if err := c.ShouldBindJSON(in); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	profile, err := ctl.svc.UpdateProfile(c.Request.Context(), auth.GetPrincipal(c), in)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SetSkill PUT /admin/skills/:slug
func (ctl *Controller) SetSkill(c *gin.Context) {
	in := new(dto.SkillInput)
	if err := c.ShouldBindJSON(in); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	skill, err := ctl.svc.SetSkill(c.Request.Context(), auth.GetPrincipal(c), c.Param("slug"), in)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, skill)
}

// DeleteSkill DELETE /admin/skills/:slug
func (ctl *Controller) DeleteSkill(c *gin.Context) {
	if err := ctl.svc.DeleteSkill(c.Request.Context(), auth.GetPrincipal(c), c.Param("slug")); err != nil {
		apierr.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
