package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"indekost/internal/auth"
	"indekost/internal/cache"
	"indekost/internal/config"
	"indekost/internal/httpserver"
	"indekost/internal/logging"
	"indekost/internal/metrics"
	"indekost/internal/notify"
	"indekost/internal/repo"
	"indekost/internal/scheduler"
	"indekost/internal/storage"
	"indekost/internal/wa"
	"indekost/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting indekost", "env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	store, err := repo.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis ping failed", "error", err)
	}

	waClient := wa.New(wa.Config{
		BaseURL: cfg.WahaBaseURL,
		Session: cfg.WahaSession,
		APIKey:  cfg.WahaAPIKey,
		Timeout: cfg.WahaTimeout,
	}, logger, metricRegistry)

	objects, err := storage.NewS3Store(ctx, storage.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	}, logger)
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}

	location, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.SchedulerTimezone, err)
	}

	notifier := notify.New(store, waClient, logger, metricRegistry, notify.Config{
		TenantBaseURL: cfg.TenantBaseURL,
		Location:      location,
	})

	sched, err := scheduler.New(scheduler.Config{
		Timezone:    cfg.SchedulerTimezone,
		BillingSpec: cfg.BillingCronSpec,
		MeterSpec:   cfg.MeterCronSpec,
	}, notifier, logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authMW := auth.NewMiddleware(issuer, redisClient)

	httpSrv := httpserver.New(httpserver.Config{
		ListenAddr:    cfg.HTTPListenAddr,
		APIHost:       cfg.APIHost,
		OwnerHost:     cfg.OwnerHost,
		TenantHost:    cfg.TenantHost,
		OwnerWhatsApp: cfg.OwnerWhatsApp,
	}, httpserver.Dependencies{
		Store:    store,
		Redis:    redisClient,
		Objects:  objects,
		Notifier: waClient,
		Issuer:   issuer,
		AuthMW:   authMW,
	}, logger, metricRegistry)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
