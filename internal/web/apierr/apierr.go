// Package apierr maps domain errors onto JSON API responses.
package apierr

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/library"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/blob"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// Response is the body of every failed API call
type Response struct {
	Error string `json:"error"`
}

// Status returns the http status of err
func Status(err error) int {
	if code := auth.HTTPStatus(err); code != 0 {
		return code
	}

	switch {
	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, blob.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes err as JSON and stops the handler chain.
// Server errors are logged and answered with a generic message.
func Abort(c *gin.Context, err error) {
	code := Status(err)
	msg := err.Error()
	switch code {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusInternalServerError:
		Logger(c).Error("handle request", zap.Error(err),
			zap.String("path", c.FullPath()))
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(code, Response{Error: msg})
}

// BadRequest rejects a malformed request body or query
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Error: err.Error()})
}

// Logger returns the request logger, falling back to the global one
func Logger(c *gin.Context) glog.Logger {
	if logger := gmw.GetLogger(c); logger != nil {
		return logger
	}

	return log.Logger
}
