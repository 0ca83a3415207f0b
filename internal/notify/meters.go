package notify

import (
	"context"
	"fmt"

	"indekost/internal/wa"
)

// RunLowMeterCheck executes the daily meter scan: every low-balance
// meter whose room has an active tenant produces one alert. Meters on
// vacant rooms are skipped with a warning; they are not failures.
func (s *Service) RunLowMeterCheck(ctx context.Context, dryRun bool) (*Summary, error) {
	if err := s.preflight(ctx, dryRun); err != nil {
		s.countRun("low_meter", err)
		s.logger.Error("low meter run aborted", "error", err)
		return nil, err
	}

	meters, err := s.store.ListLowMeters(ctx, nil)
	if err != nil {
		err = fmt.Errorf("enumerate low meters: %w", err)
		s.countRun("low_meter", err)
		return nil, err
	}

	summary := &Summary{Total: len(meters), DryRun: dryRun}
	s.logger.Info("low meter run started", "meters", len(meters), "dry_run", dryRun)

	for _, m := range meters {
		if m.TenantID == nil {
			summary.Skipped++
			s.countItem("low_meter", "skipped")
			s.logger.Warn("skipping low meter without active tenant",
				"meter_id", m.MeterID, "room", m.RoomNumber)
			continue
		}

		if dryRun {
			summary.Sent++
			s.countItem("low_meter", "dry_run")
			s.logger.Info("low meter dry run", "meter_id", m.MeterID, "room", m.RoomNumber)
			continue
		}

		msg := wa.LowMeterMessage(wa.LowMeterData{
			RoomNumber: m.RoomNumber,
			Type:       string(m.Type),
			Current:    fmt.Sprintf("%.2f", m.LastValue),
			Threshold:  fmt.Sprintf("%.2f", m.Threshold),
			Unit:       m.UnitLabel(),
		})
		if s.sender.SendText(ctx, *m.WhatsAppNumber, msg) {
			summary.Sent++
			s.countItem("low_meter", "sent")
		} else {
			summary.Failed++
			s.countItem("low_meter", "failed")
			s.logger.Error("low meter alert failed", "meter_id", m.MeterID, "room", m.RoomNumber)
		}
	}

	s.countRun("low_meter", nil)
	s.logger.Info("low meter run completed",
		"total", summary.Total, "sent", summary.Sent,
		"failed", summary.Failed, "skipped", summary.Skipped, "dry_run", dryRun)
	return summary, nil
}
