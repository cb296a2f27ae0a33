package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppointmentRepository is the scheduling store. Every operation is
// tenant-scoped; overlap queries and the version-checked update are
// the only mutation paths for appointment rows.
type AppointmentRepository interface {
	Insert(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	FindOverlapping(ctx context.Context, tenantID, staffID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) ([]*models.Appointment, error)
	UpdateWithVersion(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error)
	ListByStaffDay(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) ([]*models.Appointment, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) (int, error)
	FindDue(ctx context.Context, before time.Time, limit int) ([]*models.Appointment, error)
}

type appointmentRepo struct {
	db DB
}

func NewAppointmentRepo(db DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentColumns = `id, tenant_id, user_id, employee_id, service_id, scheduled_time, duration_minutes, status, notes, version, created_at, updated_at`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	appt := &models.Appointment{}
	err := row.Scan(
		&appt.ID,
		&appt.TenantID,
		&appt.UserID,
		&appt.StaffID,
		&appt.ServiceID,
		&appt.ScheduledTime,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Notes,
		&appt.Version,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Insert persists a new appointment with version 1. The database's
// no_double_booking exclusion constraint is the final arbiter: if a
// concurrent insert claimed an overlapping interval first, this one
// fails with ErrOverlap regardless of what any pre-check saw.
func (r *appointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentPending
	}
	appt.Version = 1

	query := `
		INSERT INTO appointments (id, tenant_id, user_id, employee_id, service_id, scheduled_time, duration_minutes, status, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID, appt.TenantID, appt.UserID, appt.StaffID, appt.ServiceID,
		appt.ScheduledTime.UTC(), appt.DurationMinutes, appt.Status, appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return err
	}
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1 AND id = $2
	`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

// FindOverlapping returns the live (pending or confirmed) appointments
// for a staff member whose intervals intersect the proposed half-open
// interval. Touching endpoints are not an intersection: an appointment
// ending at 10:00 does not block one starting at 10:00.
func (r *appointmentRepo) FindOverlapping(ctx context.Context, tenantID, staffID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) ([]*models.Appointment, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1
			AND employee_id = $2
			AND status IN ('pending', 'confirmed')
			AND scheduled_time < $3
			AND scheduled_time + duration_minutes * INTERVAL '1 minute' > $4
	`
	args := []any{tenantID, staffID, end.UTC(), start.UTC()}
	if excludeID != nil {
		query += ` AND id != $5`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY scheduled_time ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// UpdateWithVersion applies the patch only if the stored version still
// equals expectedVersion, incrementing the version in the same
// statement. The check and the write are one conditional UPDATE, so
// there is no window for a lost update between them. A zero row count
// is disambiguated with a follow-up existence probe: the row either
// moved on (ErrVersionConflict) or does not resolve within the tenant
// (ErrNotFound).
func (r *appointmentRepo) UpdateWithVersion(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error) {
	set := "version = version + 1, updated_at = NOW()"
	args := []any{tenantID, id, expectedVersion}
	n := 3

	add := func(col string, v any) {
		n++
		set += fmt.Sprintf(", %s = $%d", col, n)
		args = append(args, v)
	}

	if patch.StaffID != nil {
		add("employee_id", *patch.StaffID)
	}
	if patch.ServiceID != nil {
		add("service_id", *patch.ServiceID)
	}
	if patch.ScheduledTime != nil {
		add("scheduled_time", patch.ScheduledTime.UTC())
	}
	if patch.DurationMinutes != nil {
		add("duration_minutes", *patch.DurationMinutes)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}

	query := `
		UPDATE appointments
		SET ` + set + `
		WHERE tenant_id = $1 AND id = $2 AND version = $3
		RETURNING ` + appointmentColumns

	appt, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err == nil {
		return appt, nil
	}
	if isExclusionViolation(err) {
		return nil, ErrOverlap
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row matched: stale version or wrong tenant/missing id.
	var exists bool
	probe := `SELECT EXISTS (SELECT 1 FROM appointments WHERE tenant_id = $1 AND id = $2)`
	if err := r.db.QueryRow(ctx, probe, tenantID, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, ErrNotFound
}

func appointmentFilterClause(filter *models.AppointmentFilter, args []any) (string, []any) {
	where := ""
	n := len(args)
	if filter == nil {
		return where, args
	}
	if filter.CustomerID != nil {
		n++
		where += fmt.Sprintf(" AND user_id = $%d", n)
		args = append(args, *filter.CustomerID)
	}
	if filter.StaffID != nil {
		n++
		where += fmt.Sprintf(" AND employee_id = $%d", n)
		args = append(args, *filter.StaffID)
	}
	if filter.Status != nil {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, *filter.Status)
	}
	if filter.Date != nil {
		day := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		where += fmt.Sprintf(" AND scheduled_time >= $%d AND scheduled_time < $%d", n+1, n+2)
		args = append(args, day, day.Add(24*time.Hour))
	}
	return where, args
}

func (r *appointmentRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := []any{tenantID}
	where, args := appointmentFilterClause(filter, args)

	limit, offset := 50, 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1` + where + `
		ORDER BY scheduled_time DESC
		LIMIT ` + fmt.Sprintf("$%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// ListByStaffDay returns every appointment for a staff member on the
// given UTC day, without pagination. Availability computations need
// the complete set; a truncated read would report booked intervals as
// free.
func (r *appointmentRepo) ListByStaffDay(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) ([]*models.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1
			AND employee_id = $2
			AND scheduled_time >= $3
			AND scheduled_time < $4
		ORDER BY scheduled_time ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID, staffID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (r *appointmentRepo) Count(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) (int, error) {
	args := []any{tenantID}
	where, args := appointmentFilterClause(filter, args)

	query := `SELECT COUNT(*) FROM appointments WHERE tenant_id = $1` + where
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// FindDue returns confirmed appointments across all tenants whose end
// time has passed. Used by the completion sweep; each row is then
// closed through the version-checked update path.
func (r *appointmentRepo) FindDue(ctx context.Context, before time.Time, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'confirmed'
			AND scheduled_time + duration_minutes * INTERVAL '1 minute' <= $1
		ORDER BY scheduled_time ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, before.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}
