package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/internal/web"
	blogCtl "github.com/Laisky/laisky-portfolio/internal/web/blog/controller"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	resumeCtl "github.com/Laisky/laisky-portfolio/internal/web/resume/controller"
	uploadCtl "github.com/Laisky/laisky-portfolio/internal/web/upload/controller"
	userCtl "github.com/Laisky/laisky-portfolio/internal/web/user/controller"
	"github.com/Laisky/laisky-portfolio/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `json API service for the portfolio and blog`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runAPI(ctx)
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

func runAPI(ctx context.Context) error {
	a, err := setupApp(ctx)
	if err != nil {
		return errors.Wrap(err, "setup app")
	}
	defer a.Close(context.Background())

	origins, err := parseStringList(gconfig.Shared.Get("settings.web.allowed_origins"))
	if err != nil {
		return errors.Wrap(err, "parse settings.web.allowed_origins")
	}

	router, err := web.NewRouter(a.sessions, web.Controllers{
		Blog:   blogCtl.New(a.blog),
		Resume: resumeCtl.New(a.resume),
		User:   userCtl.New(a.user, a.sessions, a.limiter),
		Upload: uploadCtl.New(a.upload),
	}, web.Options{
		AllowedOrigins: origins,
		FrontendDist:   gconfig.Shared.GetString("settings.web.frontend_dist"),
		EnableMetric:   true,
	})
	if err != nil {
		return errors.Wrap(err, "new router")
	}

	if spec := gconfig.Shared.GetString("settings.blog.reconcile_cron"); spec != "" {
		c, err := scheduleReconcile(ctx, spec, a.blog)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	return web.RunServer(ctx, gconfig.Shared.GetString("listen"), router)
}

// scheduleReconcile runs the comment counter reconciliation on a cron spec,
// a run still in progress makes the next one skip
func scheduleReconcile(ctx context.Context, spec string, blog *blogService.Blog) (*cron.Cron, error) {
	logger := log.Logger.Named("reconcile")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		ret, err := blog.Reconcile(ctx)
		if err != nil {
			logger.Error("reconcile comment counters", zap.Error(err))
			return
		}

		logger.Info("reconciled comment counters",
			zap.Int("scanned", ret.Scanned),
			zap.Int("corrected", len(ret.Corrections)))
	}); err != nil {
		return nil, errors.Wrapf(err, "parse reconcile cron %q", spec)
	}

	logger.Info("schedule reconcile", zap.String("cron", spec))
	return c, nil
}
