package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRepository guards createAppointment retries. A key is
// claimed with an insert before the booking write and bound to the
// appointment afterwards; a later request with the same key replays
// the stored appointment id instead of inserting a duplicate.
type IdempotencyRepository interface {
	Claim(ctx context.Context, tenantID uuid.UUID, key string) (existing *uuid.UUID, claimed bool, err error)
	Bind(ctx context.Context, tenantID uuid.UUID, key string, appointmentID uuid.UUID) error
}

type idempotencyRepo struct {
	db DB
}

func NewIdempotencyRepo(db DB) IdempotencyRepository {
	return &idempotencyRepo{db: db}
}

// Claim inserts the key if unseen. If the key already exists it
// returns claimed=false plus the appointment id bound to it (nil when
// the earlier request died between claiming and binding).
func (r *idempotencyRepo) Claim(ctx context.Context, tenantID uuid.UUID, key string) (*uuid.UUID, bool, error) {
	insert := `
		INSERT INTO booking_idempotency_keys (tenant_id, idempotency_key, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, insert, tenantID, key)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 1 {
		return nil, true, nil
	}

	var appointmentID *uuid.UUID
	query := `
		SELECT appointment_id
		FROM booking_idempotency_keys
		WHERE tenant_id = $1 AND idempotency_key = $2
	`
	err = r.db.QueryRow(ctx, query, tenantID, key).Scan(&appointmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Raced with a delete; treat as freshly claimed.
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return appointmentID, false, nil
}

func (r *idempotencyRepo) Bind(ctx context.Context, tenantID uuid.UUID, key string, appointmentID uuid.UUID) error {
	query := `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3
		WHERE tenant_id = $1 AND idempotency_key = $2
	`
	_, err := r.db.Exec(ctx, query, tenantID, key, appointmentID)
	return err
}
