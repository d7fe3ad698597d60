package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	blogDao "github.com/Laisky/laisky-portfolio/internal/web/blog/dao"
	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
	resumeDao "github.com/Laisky/laisky-portfolio/internal/web/resume/dao"
	resumeService "github.com/Laisky/laisky-portfolio/internal/web/resume/service"
	uploadService "github.com/Laisky/laisky-portfolio/internal/web/upload/service"
	userDao "github.com/Laisky/laisky-portfolio/internal/web/user/dao"
	userService "github.com/Laisky/laisky-portfolio/internal/web/user/service"
	"github.com/Laisky/laisky-portfolio/library/auth"
	"github.com/Laisky/laisky-portfolio/library/blob"
	"github.com/Laisky/laisky-portfolio/library/config"
	"github.com/Laisky/laisky-portfolio/library/db/firestore"
	"github.com/Laisky/laisky-portfolio/library/db/mongo"
	rdb "github.com/Laisky/laisky-portfolio/library/db/redis"
	"github.com/Laisky/laisky-portfolio/library/docstore"
	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/throttle"
)

const (
	dbDriverFirestore = "firestore"
	dbDriverMongo     = "mongo"
	dbDriverMemory    = "memory"

	blobDriverGCS    = "gcs"
	blobDriverMinio  = "minio"
	blobDriverMemory = "memory"

	defaultSessionTTL  = 7 * 24 * time.Hour
	defaultLoginPerSec = 1
	defaultLoginBurst  = 5
)

// app holds the stores and services built from the settings
type app struct {
	store docstore.Store
	blobs blob.Store

	sessions *auth.Sessions
	limiter  *throttle.Throttle

	blog   *blogService.Blog
	resume *resumeService.Resume
	user   *userService.User
	upload *uploadService.Upload

	closers []func(context.Context) error
}

// setupApp connects the configured backends and builds every service
func setupApp(ctx context.Context) (*app, error) {
	a := new(app)
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	var err error

	if a.store, err = setupDocstore(ctx); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)

	if a.blobs, err = a.setupBlob(ctx); err != nil {
		return nil, err
	}

	if a.limiter, err = throttle.New(throttle.Config{
		TotalNPerSec:   100,
		TotalBurst:     200,
		EachKeyNPerSec: config.IntOr("settings.auth.login_per_sec", defaultLoginPerSec),
		EachKeyBurst:   config.IntOr("settings.auth.login_burst", defaultLoginBurst),
	}); err != nil {
		return nil, errors.Wrap(err, "new login throttle")
	}

	a.blog = blogService.New(blogDao.New(a.store), blogService.Config{
		PageSize:    gconfig.Shared.GetInt("settings.blog.page_size"),
		ViewTimeout: config.DurationSecOr("settings.blog.view_timeout_sec", 0),
		AuthorName:  gconfig.Shared.GetString("settings.blog.author_name"),
	})
	a.closers = append(a.closers, func(context.Context) error {
		a.blog.WaitBackground()
		return nil
	})
	a.resume = resumeService.New(resumeDao.New(a.store), a.blog)
	admins, err := parseStringList(gconfig.Shared.Get("settings.auth.admin_emails"))
	if err != nil {
		return nil, errors.Wrap(err, "parse settings.auth.admin_emails")
	}
	a.user = userService.New(userDao.New(a.store), userService.Config{
		AdminEmails:    admins,
		GoogleClientID: gconfig.Shared.GetString("settings.auth.google_client_id"),
	})
	a.upload = uploadService.New(a.blobs)

	if a.sessions, err = a.setupSessions(a.user.Role); err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

// Close releases every backend, in reverse order of creation
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Logger.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
}

func setupDocstore(ctx context.Context) (docstore.Store, error) {
	driver := strings.ToLower(gconfig.Shared.GetString("settings.db.driver"))
	logger := log.Logger.With(zap.String("driver", driver))

	switch driver {
	case dbDriverFirestore, "":
		var opts []option.ClientOption
		if f := gconfig.Shared.GetString("settings.db.firestore.credential_file"); f != "" {
			opts = append(opts, option.WithCredentialsFile(config.ResolvePath(f)))
		}

		db, err := firestore.NewDB(ctx, gconfig.Shared.GetString("settings.db.firestore.project_id"), opts...)
		if err != nil {
			return nil, errors.Wrap(err, "connect firestore")
		}
		logger.Info("docstore connected")
		return db, nil
	case dbDriverMongo:
		db, err := mongo.NewDB(ctx, mongo.DialInfo{
			Addr:   gconfig.Shared.GetString("settings.db.mongo.addr"),
			DBName: gconfig.Shared.GetString("settings.db.mongo.db"),
			User:   gconfig.Shared.GetString("settings.db.mongo.user"),
			Pwd:    gconfig.Shared.GetString("settings.db.mongo.pwd"),
			AuthDB: gconfig.Shared.GetString("settings.db.mongo.auth_db"),
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		logger.Info("docstore connected")
		return db, nil
	case dbDriverMemory:
		logger.Warn("using in-memory docstore, data is lost on exit")
		return docstore.NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown db driver %q", driver)
	}
}

func (a *app) setupBlob(ctx context.Context) (blob.Store, error) {
	driver := strings.ToLower(gconfig.Shared.GetString("settings.blob.driver"))
	logger := log.Logger.With(zap.String("driver", driver))

	switch driver {
	case blobDriverGCS, "":
		var opts []option.ClientOption
		if f := gconfig.Shared.GetString("settings.blob.gcs.credential_file"); f != "" {
			opts = append(opts, option.WithCredentialsFile(config.ResolvePath(f)))
		}

		store, err := blob.NewGCS(ctx,
			gconfig.Shared.GetString("settings.blob.gcs.bucket"),
			gconfig.Shared.GetString("settings.blob.gcs.public_base_url"),
			opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		logger.Info("blob store ready")
		return store, nil
	case blobDriverMinio:
		store, err := blob.NewMinio(ctx, blob.MinioConfig{
			Endpoint:  gconfig.Shared.GetString("settings.blob.minio.endpoint"),
			AccessKey: gconfig.Shared.GetString("settings.blob.minio.access_key"),
			SecretKey: gconfig.Shared.GetString("settings.blob.minio.secret_key"),
			Bucket:    gconfig.Shared.GetString("settings.blob.minio.bucket"),
			UseSSL:    gconfig.Shared.GetBool("settings.blob.minio.use_ssl"),
			BaseURL:   gconfig.Shared.GetString("settings.blob.minio.public_base_url"),
		})
		if err != nil {
			return nil, err
		}
		logger.Info("blob store ready")
		return store, nil
	case blobDriverMemory:
		logger.Warn("using in-memory blob store, uploads are lost on exit")
		return blob.NewMemory(gconfig.Shared.GetString("settings.blob.memory.public_base_url")), nil
	default:
		return nil, errors.Errorf("unknown blob driver %q", driver)
	}
}

// setupSessions revocations live in redis when configured, in process otherwise.
// Roles are read from the user record on every request.
func (a *app) setupSessions(roles auth.RoleLookup) (*auth.Sessions, error) {
	ttl := defaultSessionTTL
	if h := gconfig.Shared.GetInt("settings.auth.session_ttl_hours"); h > 0 {
		ttl = time.Duration(h) * time.Hour
	}

	j, err := jwt.New([]byte(gconfig.Shared.GetString("settings.secret")), ttl)
	if err != nil {
		return nil, errors.Wrap(err, "new jwt")
	}

	var revoked auth.Revocations
	if addr := gconfig.Shared.GetString("settings.db.redis.addr"); addr != "" {
		db := rdb.NewDB(&redis.Options{
			Addr:     addr,
			DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
			Password: gconfig.Shared.GetString("settings.db.redis.pwd"),
		})
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		revoked = auth.NewRedisRevocations(db)
	} else {
		log.Logger.Warn("redis not configured, session revocations are kept in process")
		revoked = auth.NewMemoryRevocations()
	}

	return auth.NewSessions(j, revoked,
		gconfig.Shared.GetBool("settings.auth.cookie_secure"),
		auth.WithRoleLookup(roles),
	), nil
}
