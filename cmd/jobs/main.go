// Command jobs runs one notification job to completion and exits, for
// manual reruns and external schedulers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"indekost/internal/config"
	"indekost/internal/logging"
	"indekost/internal/metrics"
	"indekost/internal/notify"
	"indekost/internal/repo"
	"indekost/internal/wa"
	"indekost/migrations"
)

func main() {
	var (
		job    = flag.String("job", "", "job to run: billing or meters")
		dryRun = flag.Bool("dry-run", false, "enumerate and log without sending messages")
	)
	flag.Parse()

	if err := run(*job, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(job string, dryRun bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	logger := logging.NewLogger(cfg.LogLevel)

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

	waClient := wa.New(wa.Config{
		BaseURL: cfg.WahaBaseURL,
		Session: cfg.WahaSession,
		APIKey:  cfg.WahaAPIKey,
		Timeout: cfg.WahaTimeout,
	}, logger, metricRegistry)

	location, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.SchedulerTimezone, err)
	}

	service := notify.New(store, waClient, logger, metricRegistry, notify.Config{
		TenantBaseURL: cfg.TenantBaseURL,
		Location:      location,
	})

	var summary *notify.Summary
	switch job {
	case "billing":
		summary, err = service.RunBilling(ctx, dryRun)
	case "meters":
		summary, err = service.RunLowMeterCheck(ctx, dryRun)
	default:
		return fmt.Errorf("unknown job %q: expected billing or meters", job)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", job, err)
	}

	logger.Info("job finished",
		"job", job, "total", summary.Total, "sent", summary.Sent,
		"failed", summary.Failed, "skipped", summary.Skipped, "dry_run", summary.DryRun)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d notifications failed", summary.Failed, summary.Total)
	}
	return nil
}
