package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/mrgetwhateverdone/brandbuddy-production-sub000/configs"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/application/services"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/cache"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/db"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/health"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/llm"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/redis"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting brand-ops insights service...")

	ctx := context.Background()

	database, err := db.NewDatabase(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()
	logger.Info("Connected to database successfully")

	if cfg.Database.RunMigrations {
		if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
			logger.Warn("Failed to run migrations:", err)
		}
	}

	redisClient, err := redis.Connect(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
	} else {
		logger.Warn("Redis not configured; dataset snapshots and insight rate limiting are disabled")
	}

	// Upstream datastore, optionally fronted by a shared snapshot in Redis
	var datasets ports.DatasetRepository = repositories.NewDatasetRepository(database.DB, repositories.DatasetQueryConfig{
		ProductLimit:  cfg.Upstream.ProductLimit,
		ShipmentLimit: cfg.Upstream.ShipmentLimit,
		QueryTimeout:  cfg.Upstream.QueryTimeout,
	})
	if redisClient != nil && cfg.Upstream.SnapshotTTL > 0 {
		snapshots := redis.NewSnapshotCache(redisClient, cfg.Upstream.SnapshotPrefix)
		datasets = repositories.NewCachingDatasetRepository(datasets, snapshots, cfg.Upstream.SnapshotTTL, logger)
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.DefaultTTL = cfg.Cache.DefaultTTL
	cacheCfg.MaxEntries = cfg.Cache.MaxEntries
	cacheCfg.Health = cache.HealthPolicy{
		MaxSize:    cfg.Cache.HealthMaxSize,
		MinHitRate: cfg.Cache.HealthMinHitRate,
		MinSamples: uint64(max(cfg.Cache.HealthMinSamples, 0)),
	}
	insightCache := cache.NewEngine(cacheCfg, logger)

	llmClient := newLLMClient(cfg.LLM, logger)

	insightService := services.NewInsightService(insightCache, llmClient, &services.InsightConfig{
		ClockBucket:  cfg.Insights.ClockBucket,
		LLMDeadline:  cfg.Insights.LLMDeadline,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		SingleFlight: cfg.Insights.SingleFlight,
	}, logger)
	dashboardService := services.NewDashboardService(datasets, insightService, logger)
	cacheManagementService := services.NewCacheManagementService(insightCache, cfg.Cache.CostPerCall, logger)

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewInsightCacheHealthChecker(insightCache)}

	deps := httpserver.ServerDeps{
		DashboardService:       dashboardService,
		CacheManagementService: cacheManagementService,
	}
	if redisClient != nil {
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
		if cfg.RateLimit.Enabled {
			deps.RateLimiterService = services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient), &services.RateLimiterConfig{
				DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
				BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
				Window:                   cfg.RateLimit.Window,
				KeyPrefix:                cfg.RateLimit.KeyPrefix,
			}, logger)
		}
	}
	deps.HealthCheckers = hcSlice

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown:", err)
	}

	logger.WithFields(logrus.Fields{
		"cache_size": insightCache.Stats().Size,
		"hit_rate":   insightCache.Stats().HitRate,
	}).Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

// newLLMClient falls back to a client that always fails when no API key is set, so pages
// still serve data and KPIs with empty insights.
func newLLMClient(cfg config.LLMConfig, logger *logrus.Logger) ports.LLMClient {
	client, err := llm.NewClient(llm.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		MaxTokens:         cfg.MaxTokens,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Breaker: llm.BreakerConfig{
			MaxRequests:      uint32(max(cfg.BreakerMaxRequests, 0)),
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerFailureThreshold,
			MinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		},
	}, logger)
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("LLM_API_KEY not set; insights will be reported as failed")
		return llm.DisabledClient{}
	}
	if err != nil {
		logger.Fatal("Failed to create LLM client:", err)
	}
	return client
}
