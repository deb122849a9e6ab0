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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/teachers-admin/api/swagger"
	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/handler"
	"github.com/noah-isme/teachers-admin/internal/middleware"
	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/repository"
	"github.com/noah-isme/teachers-admin/internal/service"
	"github.com/noah-isme/teachers-admin/pkg/cache"
	"github.com/noah-isme/teachers-admin/pkg/config"
	"github.com/noah-isme/teachers-admin/pkg/export"
	"github.com/noah-isme/teachers-admin/pkg/jobs"
	"github.com/noah-isme/teachers-admin/pkg/logger"
	corsmiddleware "github.com/noah-isme/teachers-admin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teachers-admin/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// @title Teachers Admin API
// @version 1.0.0
// @description Back-office gateway for the teachers directory
// @BasePath /api/v1
// @schemes http

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

	ctx := context.Background()
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	cacheService := newCacheService(redisClient, metrics, cfg, logr)

	backend, err := client.New(cfg.Upstream, client.WithObserver(metrics), client.WithLogger(logr.Named("upstream")))
	if err != nil {
		logr.Fatal("invalid upstream configuration", zap.Error(err))
	}

	teachers := service.NewTeacherService(backend, cacheService, cfg.Cache.TeachersTTL, logr)
	lookups := service.NewLookupService(backend, cacheService, cfg.Cache.LookupsTTL, logr)
	exports := service.NewExportService(teachers, logr, export.NewCSVExporter(), export.NewPDFExporter())
	auth := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret}, logr)

	warmer := service.NewListingWarmer(teachers, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 2, Logger: logr.Named("warmer")})
	warmer.Start(ctx)

	teacherHandler := handler.NewTeacherHandler(teachers, lookups, exports, metrics, cfg.Uploads.MaxSizeBytes, logr,
		handler.WithListingWarmer(warmer))
	checks := map[string]handler.ReadinessCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		api.GET("/teachers", teacherHandler.List)
		api.POST("/teachers", teacherHandler.Create)
		api.GET("/teachers/options", teacherHandler.Options)
		api.GET("/teachers/export", teacherHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownError := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logr.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownError <- srv.Shutdown(ctx)
	}()

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	if err := <-shutdownError; err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	warmer.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Info("server stopped")
}

func newCacheService(redisClient *redis.Client, metrics *service.MetricsService, cfg *config.Config, logr *zap.Logger) *service.CacheService {
	if redisClient == nil {
		return service.NewCacheService(repository.NewMemoryCacheRepository(), metrics, cfg.Cache.TeachersTTL, logr, true)
	}
	return service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.TeachersTTL, logr, true)
}
