package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indekost/internal/repo"
)

type fakeStore struct {
	targets    []repo.BillingTarget
	targetsErr error
	lowMeters  []repo.LowMeter
	lowErr     error
}

func (f *fakeStore) ListActiveBillingTargets(ctx context.Context) ([]repo.BillingTarget, error) {
	return f.targets, f.targetsErr
}

func (f *fakeStore) ListLowMeters(ctx context.Context, ownerID *string) ([]repo.LowMeter, error) {
	return f.lowMeters, f.lowErr
}

type fakeSender struct {
	ready bool
	fail  map[string]bool
	sent  []sentMessage
}

type sentMessage struct {
	to   string
	text string
}

func (f *fakeSender) SendText(ctx context.Context, to, text string) bool {
	if f.fail[to] {
		return false
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return true
}

func (f *fakeSender) IsSessionReady(ctx context.Context) bool {
	return f.ready
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestService(store Store, sender Sender) *Service {
	svc := New(store, sender, testLogger(), nil, Config{
		TenantBaseURL: "https://kost.example",
		Location:      time.UTC,
	})
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestUploadLink(t *testing.T) {
	link := UploadLink("https://kost.example", "abc-123", "2026-08")
	assert.Equal(t,
		"https://kost.example/api/payments/upload-proof?tenant_id=abc-123&period=2026-08",
		link)
}

func TestRunBillingSharedPeriod(t *testing.T) {
	store := &fakeStore{targets: []repo.BillingTarget{
		{TenantID: "t1", TenantName: "Budi", WhatsAppNumber: "628111", RoomNumber: "A-01", Price: 1000000},
		{TenantID: "t2", TenantName: "Siti", WhatsAppNumber: "628222", RoomNumber: "A-02", Price: 1200000},
	}}
	sender := &fakeSender{ready: true}

	summary, err := newTestService(store, sender).RunBilling(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, "2026-08", summary.Period)
	require.Len(t, sender.sent, 2)
	for _, m := range sender.sent {
		assert.Contains(t, m.text, "2026-08")
	}
	assert.Contains(t, sender.sent[0].text, "tenant_id=t1&period=2026-08")
	assert.Contains(t, sender.sent[1].text, "tenant_id=t2&period=2026-08")
}

func TestRunBillingContinuesPastFailures(t *testing.T) {
	store := &fakeStore{targets: []repo.BillingTarget{
		{TenantID: "t1", WhatsAppNumber: "628111", RoomNumber: "A-01"},
		{TenantID: "t2", WhatsAppNumber: "628222", RoomNumber: "A-02"},
		{TenantID: "t3", WhatsAppNumber: "628333", RoomNumber: "A-03"},
	}}
	sender := &fakeSender{ready: true, fail: map[string]bool{"628222": true}}

	summary, err := newTestService(store, sender).RunBilling(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, sender.sent, 2)
}

func TestRunBillingDryRun(t *testing.T) {
	store := &fakeStore{targets: []repo.BillingTarget{
		{TenantID: "t1", WhatsAppNumber: "628111", RoomNumber: "A-01"},
	}}
	sender := &fakeSender{ready: false} // preflight must be skipped too

	summary, err := newTestService(store, sender).RunBilling(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, sender.sent)
}

func TestRunBillingPreflightAbort(t *testing.T) {
	store := &fakeStore{targets: []repo.BillingTarget{
		{TenantID: "t1", WhatsAppNumber: "628111"},
	}}
	sender := &fakeSender{ready: false}

	summary, err := newTestService(store, sender).RunBilling(context.Background(), false)
	require.ErrorIs(t, err, ErrGatewayNotReady)
	assert.Nil(t, summary)
	assert.Empty(t, sender.sent)
}

func TestRunBillingStoreError(t *testing.T) {
	store := &fakeStore{targetsErr: errors.New("db down")}
	sender := &fakeSender{ready: true}

	_, err := newTestService(store, sender).RunBilling(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func strptr(s string) *string { return &s }

func TestRunLowMeterCheck(t *testing.T) {
	store := &fakeStore{lowMeters: []repo.LowMeter{
		{
			MeterID:        "m1",
			RoomNumber:     "A-01",
			Type:           repo.MeterElectricity,
			LastValue:      3,
			Threshold:      5,
			Unit:           strptr("kWh"),
			TenantID:       strptr("t1"),
			TenantName:     strptr("Budi"),
			WhatsAppNumber: strptr("628111"),
		},
		{
			// vacant room: skipped, not failed
			MeterID:    "m2",
			RoomNumber: "A-02",
			Type:       repo.MeterWater,
			LastValue:  1,
			Threshold:  5,
		},
	}}
	sender := &fakeSender{ready: true}

	summary, err := newTestService(store, sender).RunLowMeterCheck(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "628111", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].text, "3.00 kWh")
	assert.Contains(t, sender.sent[0].text, "5.00 kWh")
}

func TestRunLowMeterCheckDryRun(t *testing.T) {
	store := &fakeStore{lowMeters: []repo.LowMeter{
		{MeterID: "m1", RoomNumber: "A-01", TenantID: strptr("t1"), WhatsAppNumber: strptr("628111")},
	}}
	sender := &fakeSender{ready: false}

	summary, err := newTestService(store, sender).RunLowMeterCheck(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, sender.sent)
}

func TestCurrentPeriodUsesLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	svc := New(&fakeStore{}, &fakeSender{}, testLogger(), nil, Config{Location: jakarta})
	// 2026-08-31 18:00 UTC is already 2026-09-01 in Jakarta (UTC+7).
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 31, 18, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, "2026-09", svc.CurrentPeriod())
}
