package wa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "0"},
		{500, "500"},
		{1500, "1.500"},
		{1500000, "1.500.000"},
		{1234567890, "1.234.567.890"},
		{999.6, "1.000"},
		{-2500, "-2.500"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRupiah(tc.amount))
	}
}

func TestBillingMessage(t *testing.T) {
	msg := BillingMessage(BillingData{
		TenantName: "Budi",
		RoomNumber: "A-01",
		Amount:     1500000,
		Period:     "2026-08",
		UploadLink: "https://kost.example/api/payments/upload-proof?tenant_id=t1&period=2026-08",
	})

	assert.Contains(t, msg, "Tagihan Kost Bulan 2026-08")
	assert.Contains(t, msg, "Kepada Yth: Budi")
	assert.Contains(t, msg, "Kamar: A-01")
	assert.Contains(t, msg, "Rp 1.500.000")
	assert.Contains(t, msg, "upload-proof?tenant_id=t1&period=2026-08")
}

func TestLowMeterMessage(t *testing.T) {
	msg := LowMeterMessage(LowMeterData{
		RoomNumber: "B-02",
		Type:       "electricity",
		Current:    "3.00",
		Threshold:  "5.00",
		Unit:       "kWh",
	})

	assert.Contains(t, msg, "⚡")
	assert.Contains(t, msg, "Kamar: B-02")
	assert.Contains(t, msg, "Jenis: Electricity")
	assert.Contains(t, msg, "Saldo Saat Ini: 3.00 kWh")
	assert.Contains(t, msg, "Batas Minimal: 5.00 kWh")

	water := LowMeterMessage(LowMeterData{Type: "water", Current: "1.00", Threshold: "5.00", Unit: "unit"})
	assert.Contains(t, water, "💧")
}

func TestNewTicketMessage(t *testing.T) {
	msg := NewTicketMessage(TicketData{
		RoomNumber: "C-03",
		TenantName: "Siti",
		Title:      "Keran bocor",
		Priority:   "high",
	})

	assert.Contains(t, msg, "🚨")
	assert.Contains(t, msg, "Tenant: Siti")
	assert.Contains(t, msg, "Judul: Keran bocor")
	assert.Contains(t, msg, "Prioritas: High")
}

func TestTicketResolvedMessage(t *testing.T) {
	msg := TicketResolvedMessage("C-03", "Keran bocor")
	assert.Contains(t, msg, "Telah Diselesaikan")
	assert.Contains(t, msg, "Kamar: C-03")
	assert.Contains(t, msg, "Judul: Keran bocor")
}
