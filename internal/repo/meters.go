package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// MeterFilter narrows ListMeters results.
type MeterFilter struct {
	Type    *MeterType
	RoomID  string
	LowOnly bool
}

// MeterUpdate carries optional meter field changes.
type MeterUpdate struct {
	LastValue *float64
	Threshold *float64
	Unit      *string
	UpdatedBy string
}

// CreateMeter inserts a meter on one of the owner's rooms. At most one
// meter of each type may exist per room.
func (r *Postgres) CreateMeter(ctx context.Context, ownerID string, m Meter) (*Meter, error) {
	var roomID string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM rooms WHERE id = $1 AND owner_id = $2`,
		m.RoomID, ownerID).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("verify room: %w", err)
	}

	const q = `
INSERT INTO meters (room_id, owner_id, type, last_value, threshold, unit, updated_by)
VALUES ($1, $2, $3, $4, COALESCE($5, 5.00), $6, $7)
RETURNING id, room_id, owner_id, type, last_value, threshold, unit, updated_by, created_at, updated_at;
`
	var threshold *float64
	if m.Threshold > 0 {
		threshold = &m.Threshold
	}
	var created Meter
	err = r.pool.QueryRow(ctx, q, m.RoomID, ownerID, m.Type, m.LastValue, threshold, m.Unit, m.UpdatedBy).
		Scan(&created.ID, &created.RoomID, &created.OwnerID, &created.Type, &created.LastValue,
			&created.Threshold, &created.Unit, &created.UpdatedBy, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("meter of this type already exists for the room: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create meter: %w", err)
	}
	return &created, nil
}

// ListMeters returns the owner's meters joined with their rooms.
func (r *Postgres) ListMeters(ctx context.Context, ownerID string, filter MeterFilter) ([]Meter, error) {
	q := `
SELECT m.id, m.room_id, m.owner_id, m.type, m.last_value, m.threshold, m.unit, m.updated_by,
       m.created_at, m.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM meters m
JOIN rooms r ON r.id = m.room_id
WHERE m.owner_id = $1`
	args := []any{ownerID}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		q += fmt.Sprintf(" AND m.type = $%d", len(args))
	}
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		q += fmt.Sprintf(" AND m.room_id = $%d", len(args))
	}
	if filter.LowOnly {
		q += " AND m.last_value <= m.threshold"
	}
	q += " ORDER BY m.updated_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	defer rows.Close()
	return collectMeters(rows)
}

// ListMetersForRoom returns every meter attached to a room; used by the
// tenant portal, which is scoped to the tenant's own room.
func (r *Postgres) ListMetersForRoom(ctx context.Context, roomID string) ([]Meter, error) {
	const q = `
SELECT m.id, m.room_id, m.owner_id, m.type, m.last_value, m.threshold, m.unit, m.updated_by,
       m.created_at, m.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM meters m
JOIN rooms r ON r.id = m.room_id
WHERE m.room_id = $1
ORDER BY m.type ASC;
`
	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list meters for room: %w", err)
	}
	defer rows.Close()
	return collectMeters(rows)
}

// GetMeter returns one of the owner's meters with its room.
func (r *Postgres) GetMeter(ctx context.Context, ownerID, meterID string) (*Meter, error) {
	const q = `
SELECT m.id, m.room_id, m.owner_id, m.type, m.last_value, m.threshold, m.unit, m.updated_by,
       m.created_at, m.updated_at,
       r.id, r.owner_id, r.room_number, r.price, r.status
FROM meters m
JOIN rooms r ON r.id = m.room_id
WHERE m.id = $1 AND m.owner_id = $2
LIMIT 1;
`
	m, err := scanMeterWithRoom(r.pool.QueryRow(ctx, q, meterID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get meter: %w", err)
	}
	return m, nil
}

// UpdateMeter applies reading/threshold changes to the owner's meter and
// records the acting principal in updated_by.
func (r *Postgres) UpdateMeter(ctx context.Context, ownerID, meterID string, upd MeterUpdate) (*Meter, error) {
	const q = `
UPDATE meters
SET last_value = COALESCE($3, last_value),
    threshold = COALESCE($4, threshold),
    unit = COALESCE($5, unit),
    updated_by = $6,
    updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING id, room_id, owner_id, type, last_value, threshold, unit, updated_by, created_at, updated_at;
`
	var m Meter
	err := r.pool.QueryRow(ctx, q, meterID, ownerID, upd.LastValue, upd.Threshold, upd.Unit, upd.UpdatedBy).
		Scan(&m.ID, &m.RoomID, &m.OwnerID, &m.Type, &m.LastValue, &m.Threshold, &m.Unit,
			&m.UpdatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update meter: %w", err)
	}
	return &m, nil
}

// DeleteMeter removes one of the owner's meters.
func (r *Postgres) DeleteMeter(ctx context.Context, ownerID, meterID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM meters WHERE id = $1 AND owner_id = $2`, meterID, ownerID)
	if err != nil {
		return fmt.Errorf("delete meter: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLowMeters selects meters at or below their threshold, joined with
// the room and its current active tenant, optionally scoped to one owner.
// Meters on vacant rooms are included with nil tenant fields; the caller
// decides how to handle them.
func (r *Postgres) ListLowMeters(ctx context.Context, ownerID *string) ([]LowMeter, error) {
	q := `
SELECT m.id, r.room_number, m.type, m.last_value, m.threshold, m.unit,
       t.id, t.name, t.whatsapp_number
FROM meters m
JOIN rooms r ON r.id = m.room_id
LEFT JOIN tenants t ON t.room_id = r.id AND t.status = 'active'
WHERE m.last_value <= m.threshold`
	var args []any
	if ownerID != nil {
		args = append(args, *ownerID)
		q += fmt.Sprintf(" AND m.owner_id = $%d", len(args))
	}
	q += " ORDER BY r.room_number ASC, m.type ASC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list low meters: %w", err)
	}
	defer rows.Close()

	var meters []LowMeter
	for rows.Next() {
		var lm LowMeter
		if err := rows.Scan(&lm.MeterID, &lm.RoomNumber, &lm.Type, &lm.LastValue, &lm.Threshold,
			&lm.Unit, &lm.TenantID, &lm.TenantName, &lm.WhatsAppNumber); err != nil {
			return nil, fmt.Errorf("scan low meter: %w", err)
		}
		meters = append(meters, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low meters: %w", err)
	}
	return meters, nil
}

func collectMeters(rows pgx.Rows) ([]Meter, error) {
	var meters []Meter
	for rows.Next() {
		m, err := scanMeterWithRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meter: %w", err)
		}
		meters = append(meters, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meters: %w", err)
	}
	return meters, nil
}

func scanMeterWithRoom(row pgxRow) (*Meter, error) {
	var m Meter
	var room Room
	err := row.Scan(
		&m.ID, &m.RoomID, &m.OwnerID, &m.Type, &m.LastValue, &m.Threshold, &m.Unit, &m.UpdatedBy,
		&m.CreatedAt, &m.UpdatedAt,
		&room.ID, &room.OwnerID, &room.RoomNumber, &room.Price, &room.Status,
	)
	if err != nil {
		return nil, err
	}
	m.Room = &room
	return &m, nil
}
