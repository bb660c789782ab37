package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/wellness-api/api/swagger"
	"github.com/noah-isme/wellness-api/internal/handler"
	"github.com/noah-isme/wellness-api/internal/middleware"
	"github.com/noah-isme/wellness-api/internal/repository"
	"github.com/noah-isme/wellness-api/internal/service"
	"github.com/noah-isme/wellness-api/pkg/cache"
	"github.com/noah-isme/wellness-api/pkg/config"
	"github.com/noah-isme/wellness-api/pkg/database"
	"github.com/noah-isme/wellness-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/wellness-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/wellness-api/pkg/middleware/requestid"
)

// @title Wellness API
// @version 1.0.0
// @description Counseling appointment scheduling service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	appointmentRepo := repository.NewAppointmentRepository(db)
	counselorRepo := repository.NewCounselorRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, true)
	}

	policy := service.NewBookingPolicy(appointmentRepo, counselorRepo, service.SystemClock(), service.LimitsFromConfig(cfg.Booking))
	appointmentSvc, err := service.NewAppointmentService(appointmentRepo, policy, cfg.Booking, cacheSvc, metricsSvc, nil, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init appointment service", "error", err)
	}
	counselorSvc := service.NewCounselorService(counselorRepo, nil, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, nil, logr)
	exportSvc := service.NewExportService(appointmentSvc, counselorSvc, logr)

	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc, exportSvc)
	counselorHandler := handler.NewCounselorHandler(counselorSvc, appointmentSvc, exportSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, appointmentHandler, counselorHandler, feedbackHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
