package notify

import (
	"context"
	"fmt"

	"indekost/internal/wa"
)

// RunBilling executes the monthly billing cycle: every active tenant
// receives one message with a tenant-scoped proof upload link for the
// current period. Per-tenant failures are recorded and the batch
// continues. With dryRun the enumeration and link generation happen
// unchanged but no network call is made and each item counts as sent.
func (s *Service) RunBilling(ctx context.Context, dryRun bool) (*Summary, error) {
	if err := s.preflight(ctx, dryRun); err != nil {
		s.countRun("billing", err)
		s.logger.Error("billing run aborted", "error", err)
		return nil, err
	}

	period := s.CurrentPeriod()
	targets, err := s.store.ListActiveBillingTargets(ctx)
	if err != nil {
		err = fmt.Errorf("enumerate billing targets: %w", err)
		s.countRun("billing", err)
		return nil, err
	}

	summary := &Summary{Total: len(targets), DryRun: dryRun, Period: period}
	s.logger.Info("billing run started", "period", period, "tenants", len(targets), "dry_run", dryRun)

	for _, t := range targets {
		link := UploadLink(s.cfg.TenantBaseURL, t.TenantID, period)

		if dryRun {
			s.logger.Info("billing dry run",
				"tenant_id", t.TenantID, "room", t.RoomNumber, "upload_link", link)
			summary.Sent++
			s.countItem("billing", "dry_run")
			continue
		}

		msg := wa.BillingMessage(wa.BillingData{
			TenantName: t.TenantName,
			RoomNumber: t.RoomNumber,
			Amount:     t.Price,
			Period:     period,
			UploadLink: link,
		})
		if s.sender.SendText(ctx, t.WhatsAppNumber, msg) {
			summary.Sent++
			s.countItem("billing", "sent")
		} else {
			summary.Failed++
			s.countItem("billing", "failed")
			s.logger.Error("billing notification failed", "tenant_id", t.TenantID, "room", t.RoomNumber)
		}
	}

	s.countRun("billing", nil)
	s.logger.Info("billing run completed",
		"period", period, "total", summary.Total, "sent", summary.Sent,
		"failed", summary.Failed, "dry_run", dryRun)
	return summary, nil
}
