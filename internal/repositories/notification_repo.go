package repositories

import (
	"context"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, tenantID, id uuid.UUID) error
	MarkFailed(ctx context.Context, tenantID, id uuid.UUID) error
	ListPending(ctx context.Context, limit int) ([]*models.Notification, error)
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepo(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationColumns = `id, tenant_id, user_id, appointment_id, type, channel, recipient, message, status, sent_at, created_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.TenantID, &n.UserID, &n.AppointmentID, &n.Type, &n.Channel, &n.Recipient, &n.Message, &n.Status, &n.SentAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = "pending"
	}
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, appointment_id, type, channel, recipient, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.TenantID, n.UserID, n.AppointmentID, n.Type, n.Channel, n.Recipient, n.Message, n.Status)
	return err
}

func (r *notificationRepo) MarkSent(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `UPDATE notifications SET status = 'sent', sent_at = NOW() WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *notificationRepo) MarkFailed(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `UPDATE notifications SET status = 'failed' WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

// ListPending feeds the background retry job; it deliberately crosses
// tenants since dispatch is a system concern.
func (r *notificationRepo) ListPending(ctx context.Context, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
