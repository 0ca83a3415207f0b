package repo

import (
	"fmt"
	"time"
)

// RoomStatus is the closed set of room states.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// ParseRoomStatus validates a status value at the boundary.
func ParseRoomStatus(s string) (RoomStatus, error) {
	switch RoomStatus(s) {
	case RoomAvailable, RoomOccupied, RoomMaintenance:
		return RoomStatus(s), nil
	}
	return "", fmt.Errorf("unknown room status %q", s)
}

// TenantStatus is the closed set of tenant states.
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantInactive TenantStatus = "inactive"
)

// ParseTenantStatus validates a status value at the boundary.
func ParseTenantStatus(s string) (TenantStatus, error) {
	switch TenantStatus(s) {
	case TenantActive, TenantInactive:
		return TenantStatus(s), nil
	}
	return "", fmt.Errorf("unknown tenant status %q", s)
}

// MeterType is the closed set of utility meter kinds.
type MeterType string

const (
	MeterElectricity MeterType = "electricity"
	MeterWater       MeterType = "water"
)

// ParseMeterType validates a meter type at the boundary.
func ParseMeterType(s string) (MeterType, error) {
	switch MeterType(s) {
	case MeterElectricity, MeterWater:
		return MeterType(s), nil
	}
	return "", fmt.Errorf("unknown meter type %q", s)
}

// PaymentStatus is the closed set of payment states.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// TicketStatus is the closed set of ticket states.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)

// ParseTicketStatus validates a ticket status at the boundary.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch TicketStatus(s) {
	case TicketOpen, TicketInProgress, TicketResolved:
		return TicketStatus(s), nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// TicketPriority is the closed set of ticket priorities.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

// ParseTicketPriority validates a ticket priority at the boundary.
func ParseTicketPriority(s string) (TicketPriority, error) {
	switch TicketPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TicketPriority(s), nil
	}
	return "", fmt.Errorf("unknown ticket priority %q", s)
}

// Owner represents the owners table row.
type Owner struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents the rooms table row. CurrentTenant is populated by
// queries that join the active tenant.
type Room struct {
	ID            string
	OwnerID       string
	RoomNumber    string
	Price         float64
	Status        RoomStatus
	CurrentTenant *Tenant
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tenant represents the tenants table row. Room is populated by queries
// that join the room. The tenant's owner is derived through Room and is
// never stored on the tenant itself.
type Tenant struct {
	ID             string
	RoomID         string
	Name           string
	WhatsAppNumber string
	EntryDate      time.Time
	Status         TenantStatus
	PasswordHash   string
	Room           *Room
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Meter represents the meters table row.
type Meter struct {
	ID        string
	RoomID    string
	OwnerID   string
	Type      MeterType
	LastValue float64
	Threshold float64
	Unit      *string
	UpdatedBy *string
	Room      *Room
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLow reports whether the meter balance is at or below its threshold.
func (m Meter) IsLow() bool {
	return m.LastValue <= m.Threshold
}

// UnitLabel returns the display unit, defaulting to "unit" when unset.
func (m Meter) UnitLabel() string {
	if m.Unit == nil || *m.Unit == "" {
		return "unit"
	}
	return *m.Unit
}

// Payment represents the payments table row. At most one row exists per
// (tenant_id, period); uploads upsert against that key.
type Payment struct {
	ID             string
	OwnerID        string
	TenantID       string
	Amount         float64
	ProofOfPayment *string
	PaymentDate    *time.Time
	Period         string
	Status         PaymentStatus
	Tenant         *Tenant
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Ticket represents the tickets table row.
type Ticket struct {
	ID          string
	TenantID    string
	RoomID      string
	OwnerID     string
	Title       string
	Description string
	PhotoPath   *string
	Status      TicketStatus
	Priority    TicketPriority
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BillingTarget is an active tenant joined with its room, as enumerated
// by the monthly billing job.
type BillingTarget struct {
	TenantID       string
	TenantName     string
	WhatsAppNumber string
	RoomNumber     string
	Price          float64
}

// LowMeter is a low-balance meter joined with its room and the room's
// current active tenant. Tenant fields are nil when the room is vacant.
type LowMeter struct {
	MeterID        string
	RoomNumber     string
	Type           MeterType
	LastValue      float64
	Threshold      float64
	Unit           *string
	TenantID       *string
	TenantName     *string
	WhatsAppNumber *string
}

// UnitLabel returns the display unit, defaulting to "unit" when unset.
func (m LowMeter) UnitLabel() string {
	if m.Unit == nil || *m.Unit == "" {
		return "unit"
	}
	return *m.Unit
}
