// cmd/server/main.go
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
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/client"
	"github.com/conefivem/hub/internal/config"
	"github.com/conefivem/hub/internal/database"
	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/ratelimit"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/router"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	encryptor, err := utils.NewEncryptor(cfg.Security.EncryptionKey)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize encryption")
	}

	storage, err := services.NewStorageService(cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}
	if !storage.Enabled() {
		logrus.Warn("Object storage not configured, uploads go to local disk and downloads are disabled")
	}

	limiter, closeLimiter := newLimiter(cfg.Redis)
	defer closeLimiter()

	audit := services.NewAuditService(repository.NewAuditLogRepository(db), 0)

	timeout := time.Duration(cfg.Payment.RequestTimeoutSecond) * time.Second
	deps := router.Dependencies{
		Limiter:   limiter,
		Audit:     audit,
		Gateway:   client.NewAbacatePayClient(cfg.Payment.AbacatePayAPIURL, cfg.Payment.AbacatePayAPIKey, timeout),
		Notifier:  services.NewNotificationService(client.NewDiscordWebhook(cfg.Discord.WebhookURL, timeout)),
		Storage:   storage,
		Encryptor: encryptor,
	}
	if cfg.Discord.BotToken != "" {
		deps.Directory = client.NewDiscordClient(cfg.Discord.APIURL, cfg.Discord.BotToken, timeout)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	// Flush pending audit entries before the database closes
	audit.Close()

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() || cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// newLimiter prefers Redis so limits hold across instances, and falls back to memory.
func newLimiter(cfg config.RedisConfig) (ratelimit.Store, func()) {
	if cfg.URL == "" {
		logrus.Warn("REDIS_URL not set, using in-memory rate limiting")
		return ratelimit.NewMemoryStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := ratelimit.NewRedisStoreFromURL(ctx, cfg.URL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, using in-memory rate limiting")
		return ratelimit.NewMemoryStore(), func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close Redis client")
		}
	}
}
