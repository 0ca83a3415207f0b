// Package notify implements the scheduled notification jobs: the monthly
// billing cycle and the daily low-meter check. Jobs run synchronously to
// completion; one target's failure never aborts the rest of the batch.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"indekost/internal/metrics"
	"indekost/internal/repo"
)

// ErrGatewayNotReady aborts a live run before any message is sent.
var ErrGatewayNotReady = errors.New("whatsapp gateway session is not ready")

// Store is the slice of the repository the jobs need.
type Store interface {
	ListActiveBillingTargets(ctx context.Context) ([]repo.BillingTarget, error)
	ListLowMeters(ctx context.Context, ownerID *string) ([]repo.LowMeter, error)
}

// Sender is the outbound messaging contract. SendText reports per-message
// success; IsSessionReady is the pre-flight check.
type Sender interface {
	SendText(ctx context.Context, to, text string) bool
	IsSessionReady(ctx context.Context) bool
}

// Config holds job settings.
type Config struct {
	// TenantBaseURL is the public base for tenant-facing links.
	TenantBaseURL string
	// Location fixes the timezone the billing period is computed in.
	Location *time.Location
}

// Summary aggregates per-item outcomes of one job run.
type Summary struct {
	Total   int
	Sent    int
	Failed  int
	Skipped int
	DryRun  bool
	Period  string
}

// Service runs the notification jobs.
type Service struct {
	store   Store
	sender  Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     Config

	now func() time.Time
}

// New creates the notification service.
func New(store Store, sender Sender, logger *slog.Logger, metricRegistry *metrics.Metrics, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		store:   store,
		sender:  sender,
		logger:  logger.With("component", "notify"),
		metrics: metricRegistry,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CurrentPeriod returns the billing period (YYYY-MM) for the current
// calendar month in the configured timezone. Computed once per run so
// every tenant in a batch shares the same period.
func (s *Service) CurrentPeriod() string {
	return s.now().In(s.cfg.Location).Format("2006-01")
}

// UploadLink builds the tenant-scoped proof upload link.
func UploadLink(baseURL, tenantID, period string) string {
	return baseURL + "/api/payments/upload-proof?tenant_id=" + url.QueryEscape(tenantID) +
		"&period=" + url.QueryEscape(period)
}

// preflight verifies the gateway session before a live run. Dry runs
// skip the check entirely.
func (s *Service) preflight(ctx context.Context, dryRun bool) error {
	if dryRun {
		return nil
	}
	if !s.sender.IsSessionReady(ctx) {
		return ErrGatewayNotReady
	}
	return nil
}

func (s *Service) countRun(job string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "fatal"
	}
	s.metrics.JobRuns.WithLabelValues(job, outcome).Inc()
}

func (s *Service) countItem(job, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.JobItems.WithLabelValues(job, outcome).Inc()
}
