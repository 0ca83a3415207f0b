package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PaymentFilter narrows ListPayments results.
type PaymentFilter struct {
	Status   *PaymentStatus
	TenantID string
	Period   string
}

// UpsertPaymentProof records a proof upload for (tenant, period). A
// re-upload for an existing period overwrites the proof path and payment
// date and resets the status to pending regardless of prior state. The
// owner and amount are snapshotted from the tenant's room.
func (r *Postgres) UpsertPaymentProof(ctx context.Context, tenantID, period, proofPath string) (*Payment, error) {
	const q = `
INSERT INTO payments (owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status)
SELECT r.owner_id, t.id, r.price, $3, NOW(), $2, 'pending'
FROM tenants t
JOIN rooms r ON r.id = t.room_id
WHERE t.id = $1
ON CONFLICT (tenant_id, period) DO UPDATE SET
    proof_of_payment = EXCLUDED.proof_of_payment,
    payment_date = NOW(),
    amount = EXCLUDED.amount,
    status = 'pending',
    updated_at = NOW()
RETURNING id, owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status, created_at, updated_at;
`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, tenantID, period, proofPath))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The INSERT ... SELECT matched no tenant.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("upsert payment proof: %w", err)
	}
	return p, nil
}

// ListPayments returns the owner's payments joined with tenant and room,
// newest first.
func (r *Postgres) ListPayments(ctx context.Context, ownerID string, filter PaymentFilter) ([]Payment, error) {
	q := `
SELECT p.id, p.owner_id, p.tenant_id, p.amount, p.proof_of_payment, p.payment_date, p.period, p.status,
       p.created_at, p.updated_at,
       t.id, t.room_id, t.name, t.whatsapp_number, t.entry_date, t.status,
       r.room_number
FROM payments p
JOIN tenants t ON t.id = p.tenant_id
JOIN rooms r ON r.id = t.room_id
WHERE p.owner_id = $1`
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		q += fmt.Sprintf(" AND p.tenant_id = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		q += fmt.Sprintf(" AND p.period = $%d", len(args))
	}
	q += " ORDER BY p.created_at DESC;"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var t Tenant
		var roomNumber string
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.TenantID, &p.Amount, &p.ProofOfPayment, &p.PaymentDate, &p.Period, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
			&t.ID, &t.RoomID, &t.Name, &t.WhatsAppNumber, &t.EntryDate, &t.Status,
			&roomNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		t.Room = &Room{ID: t.RoomID, RoomNumber: roomNumber}
		p.Tenant = &t
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// GetPayment returns one of the owner's payments.
func (r *Postgres) GetPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error) {
	const q = `
SELECT id, owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status, created_at, updated_at
FROM payments
WHERE id = $1 AND owner_id = $2
LIMIT 1;
`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, paymentID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// VerifyPayment marks the owner's payment verified. Pure status
// transition with no storage side effects.
func (r *Postgres) VerifyPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error) {
	const q = `
UPDATE payments
SET status = 'verified', updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING id, owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status, created_at, updated_at;
`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, paymentID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	return p, nil
}

// RejectPayment marks the owner's payment rejected and clears the proof
// pointer. The stored object itself is deleted by the caller beforehand,
// after the ownership check embedded here has already passed via
// GetPayment.
func (r *Postgres) RejectPayment(ctx context.Context, ownerID, paymentID string) (*Payment, error) {
	const q = `
UPDATE payments
SET status = 'rejected', proof_of_payment = NULL, updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING id, owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status, created_at, updated_at;
`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, paymentID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reject payment: %w", err)
	}
	return p, nil
}

// ListPaymentsForTenant returns a tenant's own payment history, newest
// first; used by the tenant portal.
func (r *Postgres) ListPaymentsForTenant(ctx context.Context, tenantID string) ([]Payment, error) {
	const q = `
SELECT id, owner_id, tenant_id, amount, proof_of_payment, payment_date, period, status, created_at, updated_at
FROM payments
WHERE tenant_id = $1
ORDER BY period DESC;
`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list payments for tenant: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row pgxRow) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OwnerID, &p.TenantID, &p.Amount, &p.ProofOfPayment,
		&p.PaymentDate, &p.Period, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
