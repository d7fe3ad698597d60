// Package controller accepts multipart uploads from the admin back-office.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	"github.com/Laisky/laisky-portfolio/internal/web/upload/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
)

// formField multipart field holding the file
const formField = "file"

// Controller upload handlers
type Controller struct {
	svc *service.Upload
}

// New create upload controller
func New(svc *service.Upload) *Controller {
	return &Controller{svc: svc}
}

// RegisterAdmin mounts /uploads/:kind, r must already be admin guarded
func (ctl *Controller) RegisterAdmin(r gin.IRouter) {
	r.POST("/uploads/:kind", ctl.Upload)
}

// Upload POST /uploads/:kind, form fields `file` and `slug`
func (ctl *Controller) Upload(c *gin.Context) {
	kind, err := service.ParseKind(c.Param("kind"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	// multipart overhead on top of the largest accepted file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, kind.Limit()+1<<20)

	fh, err := c.FormFile(formField)
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	fp, err := fh.Open()
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	defer fp.Close() // nolint: errcheck

	ret, err := ctl.svc.Upload(c.Request.Context(), auth.GetPrincipal(c), kind, service.File{
		Name: fh.Filename,
		Size: fh.Size,
		Body: fp,
		Slug: c.PostForm("slug"),
	})
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, ret)
}
