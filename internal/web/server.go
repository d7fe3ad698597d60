// Package web gin server
package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/apierr"
	blogCtl "github.com/Laisky/laisky-portfolio/internal/web/blog/controller"
	resumeCtl "github.com/Laisky/laisky-portfolio/internal/web/resume/controller"
	uploadCtl "github.com/Laisky/laisky-portfolio/internal/web/upload/controller"
	userCtl "github.com/Laisky/laisky-portfolio/internal/web/user/controller"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const shutdownTimeout = 10 * time.Second

// Controllers mounted by the server
type Controllers struct {
	Blog   *blogCtl.Controller
	Resume *resumeCtl.Controller
	User   *userCtl.Controller
	Upload *uploadCtl.Controller
}

// Options server settings
type Options struct {
	// AllowedOrigins host suffixes allowed by CORS, like `laisky.com`
	AllowedOrigins []string
	// FrontendDist directory of the SPA bundle, empty searches the defaults
	FrontendDist string
	// EnableMetric mounts pprof and prometheus routes
	EnableMetric bool
}

// NewRouter builds the gin engine with every route
func NewRouter(sessions *auth.Sessions, ctls Controllers, opt Options) (*gin.Engine, error) {
	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(log.Logger.Named("gin")),
		),
		newCORS(opt.AllowedOrigins),
		sessions.Middleware(),
	)

	if opt.EnableMetric {
		if err := gmw.EnableMetric(server); err != nil {
			return nil, errors.Wrap(err, "enable metric server")
		}
	}

	server.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})

	api := server.Group("/api")
	ctls.Blog.RegisterPublic(api)
	ctls.Resume.RegisterPublic(api)
	ctls.User.Register(api.Group("/auth"))

	admin := api.Group("/admin", auth.APIGuard(auth.RequireAdmin))
	ctls.Blog.RegisterAdmin(admin)
	ctls.Resume.RegisterAdmin(admin)
	ctls.Upload.RegisterAdmin(admin)

	spa := newFrontendSPAHandler(log.Logger.Named("spa"), opt.FrontendDist)
	serveSPA := func(c *gin.Context) {
		if spa == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusNotFound, apierr.Response{Error: "not found"})
			return
		}

		spa.ServeHTTP(c.Writer, c.Request)
	}

	server.GET("/admin", auth.PageGuard(true), serveSPA)
	server.GET("/admin/*path", auth.PageGuard(true), serveSPA)
	server.NoRoute(serveSPA)

	return server, nil
}

// RunServer serves handler on addr until ctx is done
func RunServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	log.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	return nil
}

// newCORS allows origins whose host equals or is a subdomain of one of allowed
func newCORS(allowed []string) gin.HandlerFunc {
	suffixes := make([]string, 0, len(allowed))
	for _, host := range allowed {
		host = strings.Trim(strings.ToLower(strings.TrimSpace(host)), ".")
		if host != "" {
			suffixes = append(suffixes, host)
		}
	}

	isAllowed := func(origin string) bool {
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Host == "" {
			return false
		}

		host := strings.ToLower(parsed.Hostname())
		for _, suffix := range suffixes {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		}

		return false
	}

	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		switch {
		case origin == "":
			if ctx.Request.Method == http.MethodOptions {
				ctx.Header("Access-Control-Allow-Origin", "*")
				ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
				ctx.Header("Access-Control-Allow-Headers", "*")
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		case isAllowed(origin):
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			ctx.Header("Access-Control-Allow-Headers", "*")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		case ctx.Request.Method == http.MethodOptions:
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}
