// Package controller exposes the blog over the JSON API.
package controller

import (
	"net/http"
	"strconv"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
	"github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
)

// Controller blog handlers
type Controller struct {
	svc *service.Blog
}

// New create blog controller
func New(svc *service.Blog) *Controller {
	return &Controller{svc: svc}
}

// RegisterPublic mounts the public routes, writes check the principal themselves
func (ctl *Controller) RegisterPublic(r gin.IRouter) {
	r.GET("/posts", ctl.ListPosts)
	r.GET("/posts/:slug", ctl.GetPost)
	r.GET("/posts/:slug/comments", ctl.ListComments)
	r.POST("/posts/:slug/comments", auth.APIGuard(auth.RequireAuthenticated), ctl.AddComment)
	r.DELETE("/posts/:slug/comments/:cid", auth.APIGuard(auth.RequireAuthenticated), ctl.DeleteComment)
}

// RegisterAdmin mounts the admin routes, r must already be admin guarded
func (ctl *Controller) RegisterAdmin(r gin.IRouter) {
	r.GET("/stats", ctl.AdminStats)
	r.GET("/posts", ctl.AdminListPosts)
	r.POST("/posts", ctl.AdminCreatePost)
	r.GET("/posts/:id", ctl.AdminGetPost)
	r.PUT("/posts/:id", ctl.AdminUpdatePost)
	r.DELETE("/posts/:id", ctl.AdminDeletePost)
	r.POST("/posts/:id/publish", ctl.AdminTogglePublish)
	r.GET("/comments", ctl.AdminListComments)
	r.DELETE("/comments/:postID/:cid", ctl.AdminDeleteComment)
}

func pageRequest(c *gin.Context) (service.PageRequest, error) {
	req := service.PageRequest{
		Category: model.Category(c.Query("category")),
		Cursor:   c.Query("cursor"),
	}
	if v := c.Query("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return req, errors.Wrapf(model.ErrValidation, "size must be a positive integer, got %q", v)
		}
		req.Size = size
	}

	return req, nil
}

// ListPosts GET /posts?category=&cursor=&size=
func (ctl *Controller) ListPosts(c *gin.Context) {
	req, err := pageRequest(c)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	page, err := ctl.svc.ListPublishedPosts(c.Request.Context(), req)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetPost GET /posts/:slug, counts a view for published posts
func (ctl *Controller) GetPost(c *gin.Context) {
	view, err := ctl.svc.GetPostBySlug(c.Request.Context(), auth.GetPrincipal(c), c.Param("slug"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	if view.Published {
		ctl.svc.IncrementView(c.Request.Context(), view.ID)
	}

	c.JSON(http.StatusOK, view)
}

// ListComments GET /posts/:slug/comments
func (ctl *Controller) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := ctl.svc.ResolvePost(ctx, auth.GetPrincipal(c), c.Param("slug"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	comments, err := ctl.svc.ListComments(ctx, post.ID)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// AddComment POST /posts/:slug/comments
func (ctl *Controller) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	p := auth.GetPrincipal(c)
	post, err := ctl.svc.ResolvePost(ctx, p, c.Param("slug"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	comment, err := ctl.svc.AddComment(ctx, p, post.ID, req.Content)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment DELETE /posts/:slug/comments/:cid
func (ctl *Controller) DeleteComment(c *gin.Context) {
	ctx := c.Request.Context()
	p := auth.GetPrincipal(c)
	post, err := ctl.svc.ResolvePost(ctx, p, c.Param("slug"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	if err = ctl.svc.DeleteComment(ctx, p, post.ID, c.Param("cid")); err != nil {
		apierr.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
