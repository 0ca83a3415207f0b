// Package scheduler wires the notification jobs onto cron schedules in a
// fixed timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"indekost/internal/notify"
)

// Config holds cron schedules. Defaults follow the business rules:
// billing on the 1st at 09:00, meter scan daily at 08:00, both in the
// configured timezone.
type Config struct {
	Timezone    string
	BillingSpec string
	MeterSpec   string
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	service *notify.Service
	logger  *slog.Logger
}

// New builds a scheduler with both jobs registered.
func New(cfg Config, service *notify.Service, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	billingSpec := cfg.BillingSpec
	if billingSpec == "" {
		billingSpec = "0 9 1 * *"
	}
	meterSpec := cfg.MeterSpec
	if meterSpec == "" {
		meterSpec = "0 8 * * *"
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		service: service,
		logger:  logger.With("component", "scheduler"),
	}

	if _, err := s.cron.AddFunc(billingSpec, func() {
		if _, err := service.RunBilling(context.Background(), false); err != nil {
			s.logger.Error("scheduled billing run failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("register billing schedule %q: %w", billingSpec, err)
	}

	if _, err := s.cron.AddFunc(meterSpec, func() {
		if _, err := service.RunLowMeterCheck(context.Background(), false); err != nil {
			s.logger.Error("scheduled low meter run failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("register meter schedule %q: %w", meterSpec, err)
	}

	s.logger.Info("scheduler configured",
		"timezone", cfg.Timezone, "billing", billingSpec, "meters", meterSpec)
	return s, nil
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for an in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
