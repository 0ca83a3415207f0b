package repo

import (
	"context"
	"io/fs"
)

// OwnerStore covers owner accounts and profile aggregates.
type OwnerStore interface {
	CreateOwner(ctx context.Context, name, email, passwordHash string) (*Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*Owner, error)
	GetOwnerByID(ctx context.Context, id string) (*Owner, error)
	GetOwnerStats(ctx context.Context, ownerID string) (*OwnerStats, error)
}

// RoomStore covers owner-scoped room CRUD.
type RoomStore interface {
	CreateRoom(ctx context.Context, ownerID, roomNumber string, price float64, status RoomStatus) (*Room, error)
	ListRooms(ctx context.Context, ownerID string, filter RoomFilter) ([]Room, error)
	GetRoom(ctx context.Context, ownerID, roomID string) (*Room, error)
	UpdateRoom(ctx context.Context, ownerID, roomID string, upd RoomUpdate) (*Room, error)
	DeleteRoom(ctx context.Context, ownerID, roomID string) error
}

// TenantStore covers tenant CRUD with the occupancy state machine, plus
// the lookups used by authentication and the billing job.
type TenantStore interface {
	CreateTenant(ctx context.Context, ownerID string, t Tenant) (*Tenant, error)
	UpdateTenant(ctx context.Context, ownerID, tenantID string, upd TenantUpdate) (*Tenant, error)
	DeleteTenant(ctx context.Context, ownerID, tenantID string) error
	ListTenants(ctx context.Context, ownerID string, filter TenantFilter) ([]Tenant, error)
	GetTenantForOwner(ctx context.Context, ownerID, tenantID string) (*Tenant, error)
	GetTenantByID(ctx context.Context, tenantID string) (*Tenant, error)
	GetTenantByWhatsApp(ctx context.Context, digits string) (*Tenant, error)
	PasswordHashForTenant(ctx context.Context, tenantID string) (string, error)
	ListActiveBillingTargets(ctx context.Context) ([]BillingTarget, error)
}

// MeterStore covers meter CRUD and the low-balance selection.
type MeterStore interface {
	CreateMeter(ctx context.Context, ownerID string, m Meter) (*Meter, error)
	ListMeters(ctx context.Context, ownerID string, filter MeterFilter) ([]Meter, error)
	ListMetersForRoom(ctx context.Context, roomID string) ([]Meter, error)
	GetMeter(ctx context.Context, ownerID, meterID string) (*Meter, error)
	UpdateMeter(ctx context.Context, ownerID, meterID string, upd MeterUpdate) (*Meter, error)
	DeleteMeter(ctx context.Context, ownerID, meterID string) error
	ListLowMeters(ctx context.Context, ownerID *string) ([]LowMeter, error)
}

// PaymentStore covers the proof upload upsert and the verification
// workflow.
type PaymentStore interface {
	UpsertPaymentProof(ctx context.Context, tenantID, period, proofPath string) (*Payment, error)
	ListPayments(ctx context.Context, ownerID string, filter PaymentFilter) ([]Payment, error)
	GetPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error)
	VerifyPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error)
	RejectPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error)
	ListPaymentsForTenant(ctx context.Context, tenantID string) ([]Payment, error)
}

// TicketStore covers maintenance tickets for both principals.
type TicketStore interface {
	CreateTicket(ctx context.Context, tenantID, title, description string, photoPath *string, priority TicketPriority) (*Ticket, error)
	ListTickets(ctx context.Context, ownerID string, filter TicketFilter) ([]Ticket, error)
	ListTicketsForTenant(ctx context.Context, tenantID string, status *TicketStatus) ([]Ticket, error)
	GetTicketForOwner(ctx context.Context, ownerID, ticketID string) (*Ticket, error)
	GetTicketForTenant(ctx context.Context, tenantID, ticketID string) (*Ticket, error)
	UpdateTicketStatus(ctx context.Context, ownerID, ticketID string, status TicketStatus) (*Ticket, error)
	DeleteTicket(ctx context.Context, ownerID, ticketID string) error
}

// Store is the full persistence interface implemented by Postgres.
type Store interface {
	OwnerStore
	RoomStore
	TenantStore
	MeterStore
	PaymentStore
	TicketStore

	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error
}

var _ Store = (*Postgres)(nil)
