package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/api"
	"github.com/Harshitk-cp/tenantgate/internal/buildconfig"
	"github.com/Harshitk-cp/tenantgate/internal/cache"
	"github.com/Harshitk-cp/tenantgate/internal/config"
	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/Harshitk-cp/tenantgate/internal/session"
	"github.com/Harshitk-cp/tenantgate/internal/vault"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if config.IsDevelopment() {
		cfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(config.LogLevel())
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	logger.Info("starting tenantgate",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()),
		zap.String("env", config.AppEnv()),
	)

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	sessions, err := session.NewManager(session.Config{
		Secret:       config.SessionSecret(),
		TTL:          config.SessionTTL(),
		CookieName:   config.SessionCookieName(),
		CookieDomain: config.SessionCookieDomain(),
		Secure:       !config.IsDevelopment(),
	})
	if err != nil {
		logger.Fatal("failed to configure sessions", zap.Error(err))
	}

	var v *vault.Vault
	if key := config.EncryptionKey(); key == "" {
		logger.Warn("ENCRYPTION_KEY is not set: credential vault is DISABLED and integration endpoints will answer 503")
	} else {
		mode, err := vault.ParseKeyMode(config.VaultKeyMode())
		if err != nil {
			logger.Fatal("invalid VAULT_KEY_MODE", zap.Error(err))
		}
		v, err = vault.New(key, mode)
		if err != nil {
			logger.Fatal("invalid ENCRYPTION_KEY", zap.Error(err))
		}
		logger.Info("credential vault enabled", zap.String("key_mode", string(v.Mode())))
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	var tenantCache *cache.RedisTenantCache
	if redisURL := config.RedisURL(); redisURL != "" {
		tenantCache, err = cache.NewRedisTenantCache(ctx, redisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = tenantCache.Close() }()
		logger.Info("tenant cache enabled", zap.Duration("ttl", config.TenantCacheTTL()))
	}

	app := api.NewApp(api.Options{
		DB:        pool,
		Cache:     tenantCache,
		CacheTTL:  config.TenantCacheTTL(),
		Vault:     v,
		Sessions:  sessions,
		Paths:     gateway.Paths{Login: config.LoginPath(), Dashboard: config.DashboardPath(), APIPrefix: "/api/"},
		Operators: config.AdminEmails(),
	}, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
