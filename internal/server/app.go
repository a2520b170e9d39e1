// Package server wires configuration, storage backends, the classifier and
// the HTTP and gRPC listeners into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/auth"
	"github.com/dmitrijs2005/deepcheck/internal/server/cache"
	"github.com/dmitrijs2005/deepcheck/internal/server/classifier"
	"github.com/dmitrijs2005/deepcheck/internal/server/config"
	"github.com/dmitrijs2005/deepcheck/internal/server/httpapi"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepcheck/internal/server/services"
	"github.com/dmitrijs2005/deepcheck/internal/server/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/deepcheck/internal/server/grpc"
)

// MemoryDSN selects process-local repositories instead of PostgreSQL.
const MemoryDSN = "memory"

type App struct {
	config *config.Config
	logger logging.Logger
	zap    *logging.ZapLogger
	db     *sql.DB
	rdb    *redis.Client
	model  *classifier.Handle
	http   *httpapi.Server
	grpc   *gs.HealthServer
}

// Seams for tests.
var (
	openDB     = dbx.Open
	newS3Store = func(ctx context.Context, o storage.Options) (storage.ObjectStore, error) {
		return storage.NewS3Store(ctx, o)
	}
	dialRedis    = cache.Dial
	newRepoMgr   = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
	newZapLogger = logging.NewZapLogger
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	zl, err := newZapLogger(logging.Options{Level: c.LogLevel, Path: c.LogPath})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	app := &App{config: c, logger: zl, zap: zl}

	tokens, err := auth.NewTokenService(c.SecretKey, c.TokenAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	var rm repomanager.RepositoryManager
	if c.DatabaseDSN == MemoryDSN {
		app.logger.Warn(ctx, "using in-memory repositories; data is lost on exit")
		rm = repomanager.NewInMemoryRepositoryManager()
	} else {
		app.db, err = openDB(ctx, c.DSN())
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = newRepoMgr()
		if err := rm.RunMigrations(ctx, app.db); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	store, err := newS3Store(ctx, storage.Options{
		Region:        c.S3Region,
		Endpoint:      c.S3BaseEndpoint,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.PublicBaseURL(),
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	var hc cache.HistoryCache = cache.Nop{}
	if c.RedisAddr != "" {
		app.rdb, err = dialRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			app.logger.Warn(ctx, "history cache disabled", "error", err)
		} else {
			hc = cache.NewRedisCache(app.rdb, c.HistoryCacheTTL)
		}
	}

	app.model = classifier.NewHandle(app.logger.With("module", "classifier"))
	pool := classifier.NewPool(app.model, c.InferenceWorkers)

	var db dbx.DBTX
	if app.db != nil {
		db = app.db
	}

	users := services.NewUserService(db, rm, auth.NewPasswordHasher(bcrypt.DefaultCost), tokens, app.logger)
	analysis := services.NewAnalysisService(db, rm, classifier.NewPreprocessor(), pool, store, hc, app.logger)
	history := services.NewHistoryService(db, rm, hc, app.logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Users:    users,
		Analysis: analysis,
		History:  history,
		Ready:    app.model.Ready,
		Log:      app.logger.With("module", "http"),
	}, httpapi.Options{
		GinMode:            c.GinMode,
		AllowedOrigins:     c.AllowedOrigins,
		RateLimitPerMinute: c.RateLimitPerMinute,
		MaxUploadBytes:     c.MaxUploadBytes(),
	})

	app.http = httpapi.NewServer(c.EndpointAddrHTTP, router, app.logger)
	app.grpc = gs.NewHealthServer(c.EndpointAddrGRPC, app.logger, app.model.ReadyC())

	return app, nil
}

// Run serves until a termination signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.model.Watch(ctx, app.config.ModelPath, app.config.ModelReloadInterval)
	})
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.grpc.Run(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "app stopped")
	return err
}

// Close releases connections. Safe to call more than once.
func (app *App) Close() {
	if app.db != nil {
		_ = app.db.Close()
		app.db = nil
	}
	if app.rdb != nil {
		_ = app.rdb.Close()
		app.rdb = nil
	}
	if app.zap != nil {
		_ = app.zap.Sync()
	}
}
