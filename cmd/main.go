package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/analytics"
	"fund-analytics-api/internal/clients"
	"fund-analytics-api/internal/config"
	"fund-analytics-api/internal/controllers"
	"fund-analytics-api/internal/messaging"
	"fund-analytics-api/internal/middleware"
	"fund-analytics-api/internal/monitoring"
	mongorepo "fund-analytics-api/internal/repositories/mongo"
	"fund-analytics-api/internal/scheduler"
	"fund-analytics-api/internal/services"
	"fund-analytics-api/pkg/cache"
	"fund-analytics-api/pkg/database"
	"fund-analytics-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.Fatal("Invalid configuration: ", err)
	}

	logger.Init(cfg.Logger)
	log := logrus.StandardLogger()

	log.Info("Starting fund analytics service...")

	db, err := database.NewMongoDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer db.Disconnect()

	cacheClient, err := cache.NewRedisClient(cfg.Cache)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer cacheClient.Close()

	// Repositories
	fundRepo := mongorepo.NewFundRepository(db.GetDatabase())
	navRepo := mongorepo.NewNAVRepository(db.GetDatabase())
	snapshotRepo := mongorepo.NewSnapshotRepository(db.GetDatabase())

	// Upstream NAV provider
	navClient := clients.NewNAVClient(cfg.NAVSource)

	// Services
	analyticsCfg := analytics.Config{
		RiskFreeRate:  cfg.Analytics.RiskFreeRate,
		MarketReturn:  cfg.Analytics.MarketReturn,
		TradingDays:   cfg.Analytics.TradingDays,
		VaRConfidence: cfg.Analytics.VaRConfidence,
		MinDataPoints: cfg.Analytics.MinDataPoints,
	}
	fundService := services.NewFundService(fundRepo, navRepo, cacheClient, navClient, log)
	analyticsService := services.NewAnalyticsService(fundRepo, navRepo, snapshotRepo, cacheClient, analyticsCfg, log)

	metrics := monitoring.NewMetrics()
	fundService.SetMetrics(metrics)
	analyticsService.SetMetrics(metrics)

	// Controllers
	fundController := controllers.NewFundController(fundService, log)
	analyticsController := controllers.NewAnalyticsController(analyticsService, log)
	adminController := controllers.NewAdminController(fundService, analyticsService, log)

	// NAV feed consumer
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var navConsumer *messaging.NAVConsumer
	var scorePublisher *messaging.ScorePublisher
	if cfg.RabbitMQ.Enabled {
		navConsumer, err = messaging.NewNAVConsumer(cfg.RabbitMQ, fundService, log)
		if err != nil {
			log.WithError(err).Error("Failed to initialize NAV consumer, continuing without feed")
		} else if err := navConsumer.Start(consumerCtx); err != nil {
			log.WithError(err).Error("Failed to start NAV consumer")
		}

		scorePublisher, err = messaging.NewScorePublisher(cfg.RabbitMQ, log)
		if err != nil {
			log.WithError(err).Error("Failed to initialize score publisher, continuing without events")
		} else {
			analyticsService.SetScorePublisher(scorePublisher)
		}
	}

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs, err = scheduler.NewScheduler(cfg.Scheduler, fundService, analyticsService, fundRepo, snapshotRepo, log)
		if err != nil {
			log.Fatal("Failed to initialize scheduler: ", err)
		}
		if err := jobs.Start(); err != nil {
			log.Fatal("Failed to start scheduler: ", err)
		}
	}

	router := setupRouter(cfg, log, metrics, db, cacheClient, fundService,
		fundController, analyticsController, adminController)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: ", err)
	}

	stopConsumer()
	if navConsumer != nil {
		navConsumer.Close()
	}
	if scorePublisher != nil {
		scorePublisher.Close()
	}
	if jobs != nil {
		jobs.Stop()
	}

	log.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	log *logrus.Logger,
	metrics *monitoring.Metrics,
	db *database.MongoDB,
	cacheClient *cache.RedisClient,
	fundService *services.FundService,
	fundController *controllers.FundController,
	analyticsController *controllers.AnalyticsController,
	adminController *controllers.AdminController,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	controllers.RegisterValidators()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(log))
	router.Use(metrics.Middleware())

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	router.GET("/health", func(c *gin.Context) {
		healthCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		overall := "healthy"
		mongoOK := db.IsHealthy(healthCtx)
		redisOK := cacheClient.Ping(healthCtx) == nil
		if !mongoOK || !redisOK {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":       overall,
			"service":      "fund-analytics-api",
			"mongo":        mongoOK,
			"redis":        redisOK,
			"nav_provider": fundService.IsProviderHealthy(healthCtx),
			"timestamp":    time.Now().UTC(),
		})
	})

	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.Auth))
	{
		fundController.RegisterRoutes(api)
		analyticsController.RegisterRoutes(api)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.Auth(cfg.Auth))
	admin.Use(middleware.AdminOnly(cfg.Auth))
	{
		adminController.RegisterRoutes(admin)
	}

	return router
}
