package main

import (
	"context"   // context package is needed for Redis and shutdown
	"errors"    // Distinguish a clean server close
	"net/http"  // HTTP server
	"os"        // Signal channel
	"os/signal" // Graceful shutdown on SIGINT/SIGTERM
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"investment_portal/internal/api"        // Custom package for API handlers
	"investment_portal/internal/config"     // Custom package for configuration
	"investment_portal/internal/db"         // Database connection and migration
	"investment_portal/internal/middleware" // Custom package for middleware
	"investment_portal/internal/service"    // Business operations
	"investment_portal/internal/session"    // Session manager

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/robfig/cron/v3"    // Scheduled position sweep
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and bring the schema up to date
	conn, err := db.Open(cfg.DSN(), !cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err)
	}

	// Setup Redis client; without one sessions live in memory and listings are not cached
	var redisClient *redis.Client
	var store session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		store = session.NewRedisStore(redisClient)
	} else {
		logrus.Warn("REDIS_ADDR not set, using in-process session store")
	}

	svc := service.New(conn)
	sessions := session.NewManager(store, cfg.JWTSecret, cfg.SessionTTL, cfg.ResetTokenTTL)

	// Expire finished package positions on a schedule
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
		if _, err := svc.CompleteExpiredPositions(context.Background()); err != nil {
			logrus.WithError(err).Error("Position sweep failed")
		}
	}); err != nil {
		logrus.Fatalf("invalid POSITION_SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}
	scheduler.Start()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Service:   svc,
		Sessions:  sessions,
		Redis:     redisClient,
		Mailer:    api.LogMailer{},
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		UploadDir: cfg.UploadDir,
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	<-scheduler.Stop().Done() // Let a running sweep finish
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("shutdown: %v", err)
	}
}
