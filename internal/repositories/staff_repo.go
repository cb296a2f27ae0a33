package repositories

import (
	"context"
	"errors"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Staff, error)
	Update(ctx context.Context, staff *models.Staff) error
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Staff, error)
}

type staffRepo struct {
	db DB
}

func NewStaffRepo(db DB) StaffRepository {
	return &staffRepo{db: db}
}

const staffColumns = `id, tenant_id, name, email, image_url, is_active, created_at`

func scanStaff(row pgx.Row) (*models.Staff, error) {
	staff := &models.Staff{}
	err := row.Scan(&staff.ID, &staff.TenantID, &staff.Name, &staff.Email, &staff.ImageURL, &staff.IsActive, &staff.CreatedAt)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *staffRepo) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	query := `
		INSERT INTO employees (id, tenant_id, name, email, image_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, staff.ID, staff.TenantID, staff.Name, staff.Email, staff.ImageURL, staff.IsActive)
	return err
}

func (r *staffRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM employees WHERE tenant_id = $1 AND id = $2`
	staff, err := scanStaff(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return staff, err
}

// Update deactivation keeps existing appointments untouched.
func (r *staffRepo) Update(ctx context.Context, staff *models.Staff) error {
	query := `
		UPDATE employees
		SET name = $1, email = $2, image_url = $3, is_active = $4
		WHERE tenant_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query, staff.Name, staff.Email, staff.ImageURL, staff.IsActive, staff.TenantID, staff.ID)
	return err
}

func (r *staffRepo) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM employees WHERE tenant_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staffs []*models.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staffs = append(staffs, staff)
	}
	return staffs, rows.Err()
}
