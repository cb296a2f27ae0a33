package repositories

import (
	"context"
	"errors"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Service, error)
}

type serviceRepo struct {
	db DB
}

func NewServiceRepo(db DB) ServiceRepository {
	return &serviceRepo{db: db}
}

const serviceColumns = `id, tenant_id, name, description, duration_minutes, price_cents, image_url, is_active, created_at`

func scanService(row pgx.Row) (*models.Service, error) {
	svc := &models.Service{}
	err := row.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.PriceCents, &svc.ImageURL, &svc.IsActive, &svc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (r *serviceRepo) Create(ctx context.Context, svc *models.Service) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	query := `
		INSERT INTO services (id, tenant_id, name, description, duration_minutes, price_cents, image_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, svc.ID, svc.TenantID, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.ImageURL, svc.IsActive)
	return err
}

func (r *serviceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1 AND id = $2`
	svc, err := scanService(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return svc, err
}

func (r *serviceRepo) Update(ctx context.Context, svc *models.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, duration_minutes = $3, price_cents = $4, image_url = $5, is_active = $6
		WHERE tenant_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.ImageURL, svc.IsActive, svc.TenantID, svc.ID)
	return err
}

func (r *serviceRepo) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var svcs []*models.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		svcs = append(svcs, svc)
	}
	return svcs, rows.Err()
}
