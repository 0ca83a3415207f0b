package wa

import (
	"fmt"
	"strings"
)

// BillingData carries the fields rendered into the monthly billing
// message.
type BillingData struct {
	TenantName string
	RoomNumber string
	Amount     float64
	Period     string
	UploadLink string
}

// BillingMessage renders the monthly billing notification body.
func BillingMessage(d BillingData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 *Tagihan Kost Bulan %s*\n\n", d.Period)
	fmt.Fprintf(&b, "Kepada Yth: %s\n", d.TenantName)
	fmt.Fprintf(&b, "Kamar: %s\n", d.RoomNumber)
	fmt.Fprintf(&b, "Tagihan: Rp %s\n\n", FormatRupiah(d.Amount))
	b.WriteString("Silakan lakukan pembayaran dan upload bukti transfer melalui link berikut:\n")
	b.WriteString(d.UploadLink)
	b.WriteString("\n\nTerima kasih! 🙏")
	return b.String()
}

// LowMeterData carries the fields rendered into the low-balance alert.
// Current and Threshold are preformatted to two decimal places.
type LowMeterData struct {
	RoomNumber string
	Type       string
	Current    string
	Threshold  string
	Unit       string
}

// LowMeterMessage renders the low meter balance alert body.
func LowMeterMessage(d LowMeterData) string {
	icon := "💧"
	if d.Type == "electricity" {
		icon = "⚡"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Peringatan Saldo Meter*\n\n", icon)
	fmt.Fprintf(&b, "Kamar: %s\n", d.RoomNumber)
	fmt.Fprintf(&b, "Jenis: %s\n", titleCase(d.Type))
	fmt.Fprintf(&b, "Saldo Saat Ini: %s %s\n", d.Current, d.Unit)
	fmt.Fprintf(&b, "Batas Minimal: %s %s\n\n", d.Threshold, d.Unit)
	b.WriteString("⚠️ Saldo meter Anda sudah rendah! Segera lakukan pengisian ulang untuk menghindari terputusnya layanan.\n\n")
	b.WriteString("Terima kasih! 🙏")
	return b.String()
}

// TicketData carries the fields rendered into ticket notifications.
type TicketData struct {
	RoomNumber string
	TenantName string
	Title      string
	Priority   string
}

// NewTicketMessage renders the notification sent to the owner when a
// tenant files a maintenance report.
func NewTicketMessage(d TicketData) string {
	icon := "🔧"
	switch d.Priority {
	case "low":
		icon = "ℹ️"
	case "medium":
		icon = "⚠️"
	case "high":
		icon = "🚨"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Laporan Kerusakan Baru*\n\n", icon)
	fmt.Fprintf(&b, "Kamar: %s\n", d.RoomNumber)
	fmt.Fprintf(&b, "Tenant: %s\n", d.TenantName)
	fmt.Fprintf(&b, "Judul: %s\n", d.Title)
	fmt.Fprintf(&b, "Prioritas: %s\n\n", titleCase(d.Priority))
	b.WriteString("Mohon segera ditindaklanjuti. 🔧")
	return b.String()
}

// TicketResolvedMessage renders the notification sent to the tenant when
// the owner resolves their report.
func TicketResolvedMessage(roomNumber, title string) string {
	var b strings.Builder
	b.WriteString("✅ *Laporan Kerusakan Telah Diselesaikan*\n\n")
	fmt.Fprintf(&b, "Kamar: %s\n", roomNumber)
	fmt.Fprintf(&b, "Judul: %s\n\n", title)
	b.WriteString("Masalah telah diperbaiki. Mohon dicek kembali.\n\n")
	b.WriteString("Terima kasih atas laporannya! 🙏")
	return b.String()
}

// FormatRupiah renders an amount with Indonesian thousand separators and
// no decimals, e.g. 1500000 -> "1.500.000".
func FormatRupiah(amount float64) string {
	n := int64(amount + 0.5)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return sign + strings.Join(parts, ".")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
