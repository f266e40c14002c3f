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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/api"
	"github.com/jstittsworth/lotto-engine/internal/api/handlers"
	"github.com/jstittsworth/lotto-engine/internal/api/middleware"
	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/internal/providers"
	"github.com/jstittsworth/lotto-engine/internal/services"
	"github.com/jstittsworth/lotto-engine/internal/simulation"
	"github.com/jstittsworth/lotto-engine/pkg/config"
	"github.com/jstittsworth/lotto-engine/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	webSocketHub := services.NewWebSocketHub()
	go webSocketHub.Run()

	drawService := services.NewDrawService(db, cacheService, logger)
	batchStore := services.NewBatchStore(db, cacheService, logger)

	// Background draw sync against the official results API
	lotteryClient := providers.NewLotteryAPIClient(
		cfg.DrawAPIURL,
		cfg.DrawRateLimit,
		uint32(cfg.CircuitBreakerThreshold),
		logger,
	)
	drawSync := services.NewDrawSyncService(drawService, lotteryClient, webSocketHub, logger, cfg.SyncInterval())
	if cfg.EnableBackgroundSync {
		if err := drawSync.Start(); err != nil {
			logrus.Errorf("Failed to start draw sync: %v", err)
		}
		defer drawSync.Stop()
	}

	// Simulation engine, streaming progress through the hub
	engine := simulation.NewEngine(drawService, webSocketHub.ProgressSink(), logger, simulation.Options{
		HistorySize:   cfg.HistorySize,
		YieldInterval: cfg.YieldInterval,
		MaxRounds:     cfg.MaxRounds,
	})
	engineCfg := models.DefaultGenerationConfig()
	engineCfg.Iterations = cfg.MonteCarloIterations
	if err := engine.SetConfig(engineCfg); err != nil {
		logrus.Fatalf("Invalid default generation config: %v", err)
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(drawService)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, engine, drawService, drawSync, batchStore, cfg, logger)

	// WebSocket endpoint at root level (not under /api/v1)
	wsHandler := handlers.NewWebSocketHandler(webSocketHub)
	router.GET("/ws", middleware.OptionalAuth(cfg.JWTSecret), wsHandler.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Stop any in-flight batch before the process exits
	engine.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
