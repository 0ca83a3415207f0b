package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TicketFilter narrows ListTickets results.
type TicketFilter struct {
	Status   *TicketStatus
	Priority *TicketPriority
	RoomID   string
	TenantID string
}

// CreateTicket files a maintenance report for the tenant's own room. The
// room and owner references are derived from the tenant record, never
// taken from the request.
func (r *Postgres) CreateTicket(ctx context.Context, tenantID, title, description string, photoPath *string, priority TicketPriority) (*Ticket, error) {
	const q = `
INSERT INTO tickets (tenant_id, room_id, owner_id, title, description, photo_path, priority, status)
SELECT t.id, t.room_id, r.owner_id, $2, $3, $4, $5, 'open'
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1
RETURNING id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at;
`
	t, err := scanTicket(r.pool.QueryRow(ctx, q, tenantID, title, description, photoPath, priority))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return t, nil
}

// ListTickets returns the owner's tickets, newest first.
func (r *Postgres) ListTickets(ctx context.Context, ownerID string, filter TicketFilter) ([]Ticket, error) {
	q := `
SELECT id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at
FROM tickets
WHERE owner_id = $1`
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		q += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		q += fmt.Sprintf(" AND room_id = $%d", len(args))
	}
	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		q += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	q += " ORDER BY created_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListTicketsForTenant returns the tenant's own tickets, newest first.
func (r *Postgres) ListTicketsForTenant(ctx context.Context, tenantID string, status *TicketStatus) ([]Ticket, error) {
	q := `
SELECT id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at
FROM tickets
WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != nil {
		args = append(args, *status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets for tenant: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// GetTicketForOwner returns one of the owner's tickets.
func (r *Postgres) GetTicketForOwner(ctx context.Context, ownerID, ticketID string) (*Ticket, error) {
	const q = `
SELECT id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at
FROM tickets
WHERE id = $1 AND owner_id = $2
LIMIT 1;
`
	t, err := scanTicket(r.pool.QueryRow(ctx, q, ticketID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// GetTicketForTenant returns one of the tenant's own tickets.
func (r *Postgres) GetTicketForTenant(ctx context.Context, tenantID, ticketID string) (*Ticket, error) {
	const q = `
SELECT id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at
FROM tickets
WHERE id = $1 AND tenant_id = $2
LIMIT 1;
`
	t, err := scanTicket(r.pool.QueryRow(ctx, q, ticketID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket for tenant: %w", err)
	}
	return t, nil
}

// UpdateTicketStatus transitions one of the owner's tickets. resolved_at
// is set exactly when the status becomes resolved and cleared otherwise.
func (r *Postgres) UpdateTicketStatus(ctx context.Context, ownerID, ticketID string, status TicketStatus) (*Ticket, error) {
	const q = `
UPDATE tickets
SET status = $3,
    resolved_at = CASE WHEN $3 = 'resolved' THEN NOW() ELSE NULL END,
    updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING id, tenant_id, room_id, owner_id, title, description, photo_path, status, priority, resolved_at, created_at, updated_at;
`
	t, err := scanTicket(r.pool.QueryRow(ctx, q, ticketID, ownerID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update ticket status: %w", err)
	}
	return t, nil
}

// DeleteTicket removes one of the owner's tickets. The caller is
// responsible for deleting any stored photo first (via GetTicketForOwner).
func (r *Postgres) DeleteTicket(ctx context.Context, ownerID, ticketID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1 AND owner_id = $2`, ticketID, ownerID)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectTickets(rows pgx.Rows) ([]Ticket, error) {
	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

func scanTicket(row pgxRow) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.TenantID, &t.RoomID, &t.OwnerID, &t.Title, &t.Description,
		&t.PhotoPath, &t.Status, &t.Priority, &t.ResolvedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
