package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
)

// AdminStats GET /admin/stats
func (ctl *Controller) AdminStats(c *gin.Context) {
	stats, err := ctl.svc.GetAdminStats(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AdminListPosts GET /admin/posts, drafts included
func (ctl *Controller) AdminListPosts(c *gin.Context) {
	req, err := pageRequest(c)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	page, err := ctl.svc.ListAllPosts(c.Request.Context(), auth.GetPrincipal(c), req)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// AdminCreatePost POST /admin/posts
func (ctl *Controller) AdminCreatePost(c *gin.Context) {
	var in service.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	post, err := ctl.svc.CreatePost(c.Request.Context(), auth.GetPrincipal(c), in)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// AdminGetPost GET /admin/posts/:id
func (ctl *Controller) AdminGetPost(c *gin.Context) {
	post, err := ctl.svc.GetPostByID(c.Request.Context(), auth.GetPrincipal(c), c.Param("id"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// AdminUpdatePost PUT /admin/posts/:id
func (ctl *Controller) AdminUpdatePost(c *gin.Context) {
	var in service.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	post, err := ctl.svc.UpdatePost(c.Request.Context(), auth.GetPrincipal(c), c.Param("id"), in)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// AdminDeletePost DELETE /admin/posts/:id
func (ctl *Controller) AdminDeletePost(c *gin.Context) {
	if err := ctl.svc.DeletePost(c.Request.Context(), auth.GetPrincipal(c), c.Param("id")); err != nil {
		apierr.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AdminTogglePublish POST /admin/posts/:id/publish
func (ctl *Controller) AdminTogglePublish(c *gin.Context) {
	post, err := ctl.svc.TogglePublish(c.Request.Context(), auth.GetPrincipal(c), c.Param("id"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// AdminListComments GET /admin/comments
func (ctl *Controller) AdminListComments(c *gin.Context) {
	comments, err := ctl.svc.ListAllComments(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AdminDeleteComment DELETE /admin/comments/:postID/:cid
func (ctl *Controller) AdminDeleteComment(c *gin.Context) {
	if err := ctl.svc.DeleteComment(c.Request.Context(), auth.GetPrincipal(c),
		c.Param("postID"), c.Param("cid")); err != nil {
		apierr.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
