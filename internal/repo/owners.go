package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateOwner registers a new owner account.
func (r *Postgres) CreateOwner(ctx context.Context, name, email, passwordHash string) (*Owner, error) {
	const q = `
INSERT INTO owners (name, email, password_hash)
VALUES ($1, $2, $3)
RETURNING id, name, email, password_hash, created_at, updated_at;
`
	var o Owner
	err := r.pool.QueryRow(ctx, q, name, email, passwordHash).
		Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}
	return &o, nil
}

// GetOwnerByEmail looks up an owner for login.
func (r *Postgres) GetOwnerByEmail(ctx context.Context, email string) (*Owner, error) {
	const q = `
SELECT id, name, email, password_hash, created_at, updated_at
FROM owners
WHERE email = $1
LIMIT 1;
`
	var o Owner
	err := r.pool.QueryRow(ctx, q, email).
		Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get owner by email: %w", err)
	}
	return &o, nil
}

// GetOwnerByID returns an owner by identifier.
func (r *Postgres) GetOwnerByID(ctx context.Context, id string) (*Owner, error) {
	const q = `
SELECT id, name, email, password_hash, created_at, updated_at
FROM owners
WHERE id = $1
LIMIT 1;
`
	var o Owner
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get owner by id: %w", err)
	}
	return &o, nil
}

// OwnerStats carries aggregate counts shown on the owner profile.
type OwnerStats struct {
	RoomsCount         int
	ActiveTenantsCount int
}

// GetOwnerStats computes room and active-tenant counts for an owner.
func (r *Postgres) GetOwnerStats(ctx context.Context, ownerID string) (*OwnerStats, error) {
	const q = `
SELECT
    (SELECT COUNT(*) FROM rooms WHERE owner_id = $1),
    (SELECT COUNT(*) FROM tenants t JOIN rooms r ON r.id = t.room_id
     WHERE r.owner_id = $1 AND t.status = 'active');
`
	var s OwnerStats
	if err := r.pool.QueryRow(ctx, q, ownerID).Scan(&s.RoomsCount, &s.ActiveTenantsCount); err != nil {
		return nil, fmt.Errorf("get owner stats: %w", err)
	}
	return &s, nil
}
