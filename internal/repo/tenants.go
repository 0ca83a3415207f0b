package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// roomStatusAfter returns the room status implied by a tenant-driven
// transition. Maintenance is an owner-manual escape state and is never
// overwritten by tenant mutations.
func roomStatusAfter(current RoomStatus, occupied bool) RoomStatus {
	if current == RoomMaintenance {
		return RoomMaintenance
	}
	if occupied {
		return RoomOccupied
	}
	return RoomAvailable
}

// TenantFilter narrows ListTenants results.
type TenantFilter struct {
	Status *TenantStatus
	Search string
	RoomID string
}

// TenantUpdate carries optional tenant field changes.
type TenantUpdate struct {
	RoomID         *string
	Name           *string
	WhatsAppNumber *string
	EntryDate      *time.Time
	Status         *TenantStatus
	PasswordHash   *string
}

// CreateTenant inserts a tenant into one of the owner's rooms and applies
// the occupancy transition in the same transaction: an active tenant
// marks the room occupied. The destination room is locked for the
// duration so concurrent mutations of the same room serialize.
func (r *Postgres) CreateTenant(ctx context.Context, ownerID string, t Tenant) (*Tenant, error) {
	var created Tenant
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		roomStatus, err := lockRoom(ctx, tx, t.RoomID, ownerID)
		if err != nil {
			return err
		}

		const ins = `
INSERT INTO tenants (room_id, name, whatsapp_number, entry_date, status, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, room_id, name, whatsapp_number, entry_date, status, password_hash, created_at, updated_at;
`
		err = tx.QueryRow(ctx, ins, t.RoomID, t.Name, t.WhatsAppNumber, t.EntryDate, t.Status, t.PasswordHash).
			Scan(&created.ID, &created.RoomID, &created.Name, &created.WhatsAppNumber,
				&created.EntryDate, &created.Status, &created.PasswordHash, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}

		if created.Status == TenantActive {
			if err := setRoomStatus(ctx, tx, t.RoomID, roomStatusAfter(roomStatus, true)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTenant applies field changes to one of the owner's tenants and
// keeps the room occupancy invariant: status flips and room reassignments
// update the affected room rows inside the same transaction. A
// destination room belonging to another owner fails the whole transaction
// with ErrNotFound before any state is touched.
func (r *Postgres) UpdateTenant(ctx context.Context, ownerID, tenantID string, upd TenantUpdate) (*Tenant, error) {
	var updated Tenant
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var (
			oldRoomID     string
			oldStatus     TenantStatus
			roomOwnerID   string
			oldRoomStatus RoomStatus
		)
		const sel = `
SELECT t.room_id, t.status, r.owner_id, r.status
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1
FOR UPDATE OF t, r;
`
		err := tx.QueryRow(ctx, sel, tenantID).Scan(&oldRoomID, &oldStatus, &roomOwnerID, &oldRoomStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock tenant: %w", err)
		}
		if roomOwnerID != ownerID {
			return ErrNotFound
		}

		newRoomID := oldRoomID
		newRoomStatus := oldRoomStatus
		if upd.RoomID != nil && *upd.RoomID != oldRoomID {
			newRoomID = *upd.RoomID
			newRoomStatus, err = lockRoom(ctx, tx, newRoomID, ownerID)
			if err != nil {
				return err
			}
		}

		const updQ = `
UPDATE tenants
SET room_id = $2,
    name = COALESCE($3, name),
    whatsapp_number = COALESCE($4, whatsapp_number),
    entry_date = COALESCE($5, entry_date),
    status = COALESCE($6, status),
    password_hash = COALESCE($7, password_hash),
    updated_at = NOW()
WHERE id = $1
RETURNING id, room_id, name, whatsapp_number, entry_date, status, password_hash, created_at, updated_at;
`
		err = tx.QueryRow(ctx, updQ, tenantID, newRoomID,
			upd.Name, upd.WhatsAppNumber, upd.EntryDate, upd.Status, upd.PasswordHash).
			Scan(&updated.ID, &updated.RoomID, &updated.Name, &updated.WhatsAppNumber,
				&updated.EntryDate, &updated.Status, &updated.PasswordHash, &updated.CreatedAt, &updated.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update tenant: %w", err)
		}

		switch {
		case newRoomID != oldRoomID:
			// Reassignment vacates the old room; the new room follows
			// the tenant's (possibly updated) status.
			if err := setRoomStatus(ctx, tx, oldRoomID, roomStatusAfter(oldRoomStatus, false)); err != nil {
				return err
			}
			if err := setRoomStatus(ctx, tx, newRoomID, roomStatusAfter(newRoomStatus, updated.Status == TenantActive)); err != nil {
				return err
			}
		case oldStatus == TenantActive && updated.Status == TenantInactive:
			if err := setRoomStatus(ctx, tx, oldRoomID, roomStatusAfter(oldRoomStatus, false)); err != nil {
				return err
			}
		case oldStatus == TenantInactive && updated.Status == TenantActive:
			if err := setRoomStatus(ctx, tx, oldRoomID, roomStatusAfter(oldRoomStatus, true)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTenant removes one of the owner's tenants and reverts the room to
// available in the same transaction.
func (r *Postgres) DeleteTenant(ctx context.Context, ownerID, tenantID string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var roomID, roomOwnerID string
		const sel = `
SELECT t.room_id, r.owner_id
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1
FOR UPDATE OF t, r;
`
		err := tx.QueryRow(ctx, sel, tenantID).Scan(&roomID, &roomOwnerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock tenant: %w", err)
		}
		if roomOwnerID != ownerID {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID); err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		return setRoomStatus(ctx, tx, roomID, RoomAvailable)
	})
}

// ListTenants returns tenants whose rooms belong to the owner, joined
// with the room, newest first.
func (r *Postgres) ListTenants(ctx context.Context, ownerID string, filter TenantFilter) ([]Tenant, error) {
	q := `
SELECT t.id, t.room_id, t.name, t.whatsapp_number, t.entry_date, t.status, t.created_at, t.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE r.owner_id = $1`
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND t.name ILIKE $%d", len(args))
	}
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		q += fmt.Sprintf(" AND t.room_id = $%d", len(args))
	}
	q += " ORDER BY t.created_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenantWithRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

// GetTenantForOwner returns one of the owner's tenants with its room.
// Tenants in another owner's rooms are reported as not found.
func (r *Postgres) GetTenantForOwner(ctx context.Context, ownerID, tenantID string) (*Tenant, error) {
	const q = `
SELECT t.id, t.room_id, t.name, t.whatsapp_number, t.entry_date, t.status, t.created_at, t.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1 AND r.owner_id = $2
LIMIT 1;
`
	t, err := scanTenantWithRoom(r.pool.QueryRow(ctx, q, tenantID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// GetTenantByID returns a tenant with its room regardless of owner; used
// by the tenant portal and the public upload endpoint.
func (r *Postgres) GetTenantByID(ctx context.Context, tenantID string) (*Tenant, error) {
	const q = `
SELECT t.id, t.room_id, t.name, t.whatsapp_number, t.entry_date, t.status, t.created_at, t.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1
LIMIT 1;
`
	t, err := scanTenantWithRoom(r.pool.QueryRow(ctx, q, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return t, nil
}

// GetTenantByWhatsApp looks up a tenant by normalized WhatsApp digits for
// login. Stored numbers may be in local or international form, so the
// lookup also matches on the trailing digits.
func (r *Postgres) GetTenantByWhatsApp(ctx context.Context, digits string) (*Tenant, error) {
	const q = `
SELECT t.id, t.room_id, t.name, t.whatsapp_number, t.entry_date, t.status, t.created_at, t.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.whatsapp_number = $1 OR t.whatsapp_number LIKE '%' || $2
LIMIT 1;
`
	suffix := digits
	if len(suffix) > 9 {
		suffix = suffix[len(suffix)-9:]
	}
	t, err := scanTenantWithRoom(r.pool.QueryRow(ctx, q, digits, suffix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant by whatsapp: %w", err)
	}
	return t, nil
}

// PasswordHashForTenant fetches the credential hash for login checks.
func (r *Postgres) PasswordHashForTenant(ctx context.Context, tenantID string) (string, error) {
	const q = `SELECT password_hash FROM tenants WHERE id = $1`
	var hash string
	if err := r.pool.QueryRow(ctx, q, tenantID).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get tenant password hash: %w", err)
	}
	return hash, nil
}

// ListActiveBillingTargets enumerates every active tenant joined with its
// room for the monthly billing run.
func (r *Postgres) ListActiveBillingTargets(ctx context.Context) ([]BillingTarget, error) {
	const q = `
SELECT t.id, t.name, t.whatsapp_number, r.room_number, r.price
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.status = 'active'
ORDER BY r.room_number ASC;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list billing targets: %w", err)
	}
	defer rows.Close()

	var targets []BillingTarget
	for rows.Next() {
		var bt BillingTarget
		if err := rows.Scan(&bt.TenantID, &bt.TenantName, &bt.WhatsAppNumber, &bt.RoomNumber, &bt.Price); err != nil {
			return nil, fmt.Errorf("scan billing target: %w", err)
		}
		targets = append(targets, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billing targets: %w", err)
	}
	return targets, nil
}

func lockRoom(ctx context.Context, tx pgx.Tx, roomID, ownerID string) (RoomStatus, error) {
	var status RoomStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM rooms WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		roomID, ownerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lock room: %w", err)
	}
	return status, nil
}

func setRoomStatus(ctx context.Context, tx pgx.Tx, roomID string, status RoomStatus) error {
	if _, err := tx.Exec(ctx,
		`UPDATE rooms SET status = $2, updated_at = NOW() WHERE id = $1`,
		roomID, status); err != nil {
		return fmt.Errorf("set room status: %w", err)
	}
	return nil
}

func scanTenantWithRoom(row pgxRow) (*Tenant, error) {
	var t Tenant
	var room Room
	err := row.Scan(
		&t.ID, &t.RoomID, &t.Name, &t.WhatsAppNumber, &t.EntryDate, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&room.ID, &room.OwnerID, &room.RoomNumber, &room.Price, &room.Status,
	)
	if err != nil {
		return nil, err
	}
	t.Room = &room
	return &t, nil
}
