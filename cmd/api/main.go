package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	riskapp "fraud-risk-engine/internal/application/risk"
	"fraud-risk-engine/internal/domain/risk"
	"fraud-risk-engine/internal/infrastructure/cache/redis"
	"fraud-risk-engine/internal/infrastructure/database/postgres"
	"fraud-risk-engine/internal/infrastructure/http/router"
	"fraud-risk-engine/internal/infrastructure/memory"
	"fraud-risk-engine/internal/interfaces/http/handler"
	"fraud-risk-engine/internal/pkg/config"
	"fraud-risk-engine/internal/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Warning: Could not load config file, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting risk engine API",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))

	// Database connection. When Postgres is unreachable the service falls
	// back to the in-memory store so the gate stays usable in dev setups.
	var (
		dbClient      *postgres.Client
		activities    risk.ActivityRepository
		recorder      risk.Recorder
		alertRepo     risk.AlertRepository
		blacklistRepo risk.BlacklistRepository
	)

	dbClient, err = postgres.NewClient(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		zlog.Warn("database connection failed, running with in-memory store", zap.Error(err))
		dbClient = nil
		store := memory.NewStore()
		activities = store
		recorder = store
		alertRepo = store
		blacklistRepo = store.Blacklist()
	} else {
		zlog.Info("connected to PostgreSQL",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port))
		activityRepo := postgres.NewActivityRepository(dbClient)
		activities = activityRepo
		recorder = activityRepo
		alertRepo = postgres.NewAlertRepository(dbClient)
		blacklistRepo = postgres.NewBlacklistRepository(dbClient)
	}

	// Redis is an optional fast path for velocity counting
	var (
		redisClient *redis.Client
		counter     *redis.ActivityCounter
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			zlog.Warn("redis connection failed, velocity counts fall back to the activity store", zap.Error(err))
			redisClient = nil
		} else {
			zlog.Info("connected to Redis",
				zap.String("host", cfg.Redis.Host),
				zap.Int("port", cfg.Redis.Port))
			counter = redis.NewActivityCounter(redisClient)
		}
	}

	// Build the engine
	velocityLimits := make(map[risk.ActivityType]risk.VelocityLimit, len(cfg.Risk.Velocity))
	for activityType, limit := range cfg.Risk.Velocity {
		velocityLimits[risk.ActivityType(activityType)] = risk.VelocityLimit{
			MaxCount:      limit.MaxCount,
			WindowMinutes: limit.WindowMinutes,
		}
	}

	var activityCounter risk.ActivityCounter
	if counter != nil {
		activityCounter = counter
	}
	engine := risk.NewEngine(activities, blacklistRepo, alertRepo, recorder, activityCounter, risk.Options{
		VelocityLimits: velocityLimits,
		RiskyThreshold: cfg.Risk.RiskyThreshold,
		BlockThreshold: cfg.Risk.BlockThreshold,
		FailClosed:     cfg.Risk.FailClosed,
		Logger:         zlog,
	})

	// Initialize use case and handlers
	evaluateUseCase := riskapp.NewEvaluateActivityUseCase(engine, counter, cfg.Risk.EvaluationTimeout, zlog)
	riskHandler := handler.NewRiskHandler(evaluateUseCase, engine)

	var dbHealthChecker handler.HealthChecker
	var redisHealthChecker handler.HealthChecker
	if dbClient != nil {
		dbHealthChecker = dbClient
	}
	if redisClient != nil {
		redisHealthChecker = redisClient
	}
	healthHandler := handler.NewHealthHandler(dbHealthChecker, redisHealthChecker, version)

	// Create router
	r := router.NewRouter(riskHandler, healthHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		zlog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown error", zap.Error(err))
	}

	// Close connections
	if dbClient != nil {
		dbClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	zlog.Info("server stopped")
}
