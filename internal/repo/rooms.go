package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RoomFilter narrows ListRooms results.
type RoomFilter struct {
	Status *RoomStatus
	Search string
}

// CreateRoom inserts a new room for the owner.
func (r *Postgres) CreateRoom(ctx context.Context, ownerID, roomNumber string, price float64, status RoomStatus) (*Room, error) {
	const q = `
INSERT INTO rooms (owner_id, room_number, price, status)
VALUES ($1, $2, $3, $4)
RETURNING id, owner_id, room_number, price, status, created_at, updated_at;
`
	var room Room
	err := r.pool.QueryRow(ctx, q, ownerID, roomNumber, price, status).
		Scan(&room.ID, &room.OwnerID, &room.RoomNumber, &room.Price, &room.Status, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("room number already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

// ListRooms returns the owner's rooms joined with their current active
// tenant, newest first.
func (r *Postgres) ListRooms(ctx context.Context, ownerID string, filter RoomFilter) ([]Room, error) {
	q := `
SELECT r.id, r.owner_id, r.room_number, r.price, r.status, r.created_at, r.updated_at,
       t.id, t.name, t.whatsapp_number, t.entry_date, t.status
FROM rooms r
LEFT JOIN tenants t ON t.room_id = r.id AND t.status = 'active'
WHERE r.owner_id = $1`
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND r.room_number ILIKE $%d", len(args))
	}
	q += " ORDER BY r.created_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, err := scanRoomWithTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom returns one of the owner's rooms with its current active tenant.
func (r *Postgres) GetRoom(ctx context.Context, ownerID, roomID string) (*Room, error) {
	const q = `
SELECT r.id, r.owner_id, r.room_number, r.price, r.status, r.created_at, r.updated_at,
       t.id, t.name, t.whatsapp_number, t.entry_date, t.status
FROM rooms r
LEFT JOIN tenants t ON t.room_id = r.id AND t.status = 'active'
WHERE r.id = $1 AND r.owner_id = $2
LIMIT 1;
`
	row := r.pool.QueryRow(ctx, q, roomID, ownerID)
	room, err := scanRoomWithTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// RoomUpdate carries optional room field changes.
type RoomUpdate struct {
	RoomNumber *string
	Price      *float64
	Status     *RoomStatus
}

// UpdateRoom applies the provided field changes to the owner's room.
func (r *Postgres) UpdateRoom(ctx context.Context, ownerID, roomID string, upd RoomUpdate) (*Room, error) {
	const q = `
UPDATE rooms
SET room_number = COALESCE($3, room_number),
    price = COALESCE($4, price),
    status = COALESCE($5, status),
    updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING id, owner_id, room_number, price, status, created_at, updated_at;
`
	var room Room
	err := r.pool.QueryRow(ctx, q, roomID, ownerID, upd.RoomNumber, upd.Price, upd.Status).
		Scan(&room.ID, &room.OwnerID, &room.RoomNumber, &room.Price, &room.Status, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("room number already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	return &room, nil
}

// DeleteRoom removes the owner's room. Rooms with an active tenant cannot
// be deleted; both rows stay unchanged on conflict.
func (r *Postgres) DeleteRoom(ctx context.Context, ownerID, roomID string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM rooms WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
			roomID, ownerID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock room: %w", err)
		}

		var occupied bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenants WHERE room_id = $1 AND status = 'active')`,
			roomID).Scan(&occupied)
		if err != nil {
			return fmt.Errorf("check room occupancy: %w", err)
		}
		if occupied {
			return fmt.Errorf("room has an active tenant: %w", ErrConflict)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID); err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
		return nil
	})
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanRoomWithTenant(row pgxRow) (*Room, error) {
	var room Room
	var (
		tenantID     *string
		tenantName   *string
		tenantWA     *string
		tenantEntry  *time.Time
		tenantStatus *TenantStatus
	)
	err := row.Scan(
		&room.ID, &room.OwnerID, &room.RoomNumber, &room.Price, &room.Status,
		&room.CreatedAt, &room.UpdatedAt,
		&tenantID, &tenantName, &tenantWA, &tenantEntry, &tenantStatus,
	)
	if err != nil {
		return nil, err
	}
	if tenantID != nil {
		room.CurrentTenant = &Tenant{
			ID:             *tenantID,
			RoomID:         room.ID,
			Name:           *tenantName,
			WhatsAppNumber: *tenantWA,
			EntryDate:      *tenantEntry,
			Status:         *tenantStatus,
		}
	}
	return &room, nil
}
