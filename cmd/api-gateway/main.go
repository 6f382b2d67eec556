package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-roster-api/api/swagger"
	"github.com/noah-isme/sma-roster-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-roster-api/internal/middleware"
	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/repository"
	"github.com/noah-isme/sma-roster-api/internal/service"
	"github.com/noah-isme/sma-roster-api/pkg/cache"
	"github.com/noah-isme/sma-roster-api/pkg/config"
	"github.com/noah-isme/sma-roster-api/pkg/database"
	"github.com/noah-isme/sma-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-roster-api/pkg/middleware/requestid"
)

// @title SMA Roster API
// @version 1.0.0
// @description Parent/child links and student/course enrollments
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, cleanup, err := buildRouter(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func buildRouter(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*gin.Engine, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logr.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	store, err := openStore(cfg, logr, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	metrics := service.NewMetricsService(store)
	checks := map[string]handler.ReadinessCheck{"store": store.Ping}

	cacheSvc, err := openCache(ctx, cfg, metrics, logr, &closers, checks)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	validate := validator.New()
	family := service.NewFamilyService(store, metrics, validate, logr.Named("family"))
	enrollments := service.NewEnrollmentService(store, cacheSvc, metrics, validate, logr.Named("enrollment"))
	exports := service.NewExportService(enrollments, nil, logr.Named("export"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metrics, cfg.Metrics.Path))
	}

	ops := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	var (
		writeGuard []gin.HandlerFunc
		auth       *handler.AuthHandler
	)
	if cfg.JWT.Enabled {
		tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiry})
		operators := make([]service.Operator, 0, len(cfg.JWT.Operators))
		for _, op := range cfg.JWT.Operators {
			operators = append(operators, service.Operator{Email: op.Email, Role: models.UserRole(op.Role), PasswordHash: op.PasswordHash})
		}
		api.Use(internalmiddleware.OptionalJWT(tokens))
		auth = handler.NewAuthHandler(service.NewAuthService(tokens, operators, validate, logr.Named("auth")))
		writeGuard = append(writeGuard,
			internalmiddleware.JWT(tokens),
			internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
		)
	}
	writeGuard = append(writeGuard, internalmiddleware.Audit(logr.Named("audit")))

	handler.RegisterRoutes(api, handler.Handlers{
		Auth:        auth,
		Family:      handler.NewFamilyHandler(family),
		Students:    handler.NewStudentHandler(enrollments, exports),
		Courses:     handler.NewCourseHandler(enrollments, exports),
		Enrollments: handler.NewEnrollmentHandler(enrollments),
	}, writeGuard...)

	return r, cleanup, nil
}

func openStore(cfg *config.Config, logr *zap.Logger, closers *[]func() error) (repository.Store, error) {
	if cfg.Store.Driver != config.StorePostgres {
		logr.Info("using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	*closers = append(*closers, db.Close)
	logr.Info("using postgres store", zap.String("driver", database.DriverName(cfg.Database)), zap.String("host", cfg.Database.Host))
	return repository.NewPostgresStore(db, logr.Named("store")), nil
}

func openCache(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger, closers *[]func() error, checks map[string]handler.ReadinessCheck) (*service.CacheService, error) {
	if !cfg.Cache.Enabled {
		return service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false), nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	repo := repository.NewCacheRepository(redis.UniversalClient(client), cfg.Cache.Prefix, logr.Named("cache"))
	*closers = append(*closers, repo.Close)
	cacheSvc := service.NewCacheService(repo, metrics, cfg.Cache.TTL, logr.Named("cache"), true)

	// Cached views would outlive a fresh in-memory store.
	if cfg.Store.Driver == config.StoreMemory {
		if err := cacheSvc.InvalidatePattern(ctx, "*"); err != nil {
			logr.Warn("failed to flush cache namespace", zap.Error(err))
		}
	}
	return cacheSvc, nil
}
