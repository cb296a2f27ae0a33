package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
)

// BookingService enforces the scheduling invariants around every
// appointment write: no double-booking for a staff member, optimistic
// version locking on updates, and strict tenant scoping. It never
// resolves conflicts on the caller's behalf and never retries stale
// writes.
type BookingService interface {
	CreateAppointment(ctx context.Context, tenantID uuid.UUID, req *CreateAppointmentRequest) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, int, error)
}

// CreateAppointmentRequest carries a proposed booking. Duration is
// never supplied by the caller; it always comes from the service row.
type CreateAppointmentRequest struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	StaffID        uuid.UUID `json:"staff_id"`
	ServiceID      uuid.UUID `json:"service_id"`
	ScheduledTime  time.Time `json:"scheduled_time"`
	Notes          *string   `json:"notes,omitempty"`
	IdempotencyKey string    `json:"-"`
}

type bookingService struct {
	appointments repositories.AppointmentRepository
	services     repositories.ServiceRepository
	staff        repositories.StaffRepository
	idempotency  repositories.IdempotencyRepository
	notifier     NotificationService
	cache        AvailabilityInvalidator
}

// AvailabilityInvalidator evicts cached availability for a staff day
// after a booking write. A nil invalidator is a no-op.
type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) error
}

func NewBookingService(
	appointments repositories.AppointmentRepository,
	services repositories.ServiceRepository,
	staff repositories.StaffRepository,
	idempotency repositories.IdempotencyRepository,
	notifier NotificationService,
	cache AvailabilityInvalidator,
) BookingService {
	return &bookingService{
		appointments: appointments,
		services:     services,
		staff:        staff,
		idempotency:  idempotency,
		notifier:     notifier,
		cache:        cache,
	}
}

// CreateAppointment books a new appointment. The overlap query before
// the insert is an optimization that produces a friendly error without
// burning an insert; the database exclusion constraint remains the
// final arbiter, so a race between two creates still resolves to
// exactly one winner.
func (s *bookingService) CreateAppointment(ctx context.Context, tenantID uuid.UUID, req *CreateAppointmentRequest) (*models.Appointment, error) {
	if req.ScheduledTime.IsZero() {
		return nil, fmt.Errorf("scheduled time is required")
	}

	// Retries after a timed-out create must not double-book: an
	// idempotency key replays the original result instead.
	if req.IdempotencyKey != "" && s.idempotency != nil {
		existingID, claimed, err := s.idempotency.Claim(ctx, tenantID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed && existingID != nil {
			return s.GetAppointment(ctx, tenantID, *existingID)
		}
	}

	svc, err := s.services.GetByID(ctx, tenantID, req.ServiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	staff, err := s.staff.GetByID(ctx, tenantID, req.StaffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !staff.IsActive {
		return nil, ErrStaffNotFound
	}

	overlaps, err := s.appointments.FindOverlapping(ctx, tenantID, req.StaffID, req.ScheduledTime, svc.DurationMinutes, nil)
	if err != nil {
		return nil, fmt.Errorf("check conflicts: %w", err)
	}
	if len(overlaps) > 0 {
		return nil, ErrSchedulingConflict
	}

	appt := &models.Appointment{
		ID:              uuid.New(),
		TenantID:        tenantID,
		UserID:          req.CustomerID,
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		ScheduledTime:   req.ScheduledTime.UTC(),
		DurationMinutes: svc.DurationMinutes,
		Status:          models.AppointmentPending,
		Notes:           req.Notes,
	}

	if err := s.appointments.Insert(ctx, appt); err != nil {
		if errors.Is(err, repositories.ErrOverlap) {
			// Lost the race to a concurrent create.
			return nil, ErrSchedulingConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Bind(ctx, tenantID, req.IdempotencyKey, appt.ID); err != nil {
			log.Printf("Failed to bind idempotency key for appointment %s: %v", appt.ID, err)
		}
	}

	// Fire-and-forget: a failed notification never fails the booking.
	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, appt); err != nil {
			log.Printf("Failed to queue booking notification for appointment %s: %v", appt.ID, err)
		}
	}

	s.invalidateDay(ctx, tenantID, appt.StaffID, appt.ScheduledTime)

	return appt, nil
}

// UpdateAppointment applies a patch through the version-checked update
// path. The overlap check is re-run only when the patch moves the
// appointment's interval (time, staff, or service duration); a
// notes-only or status-only patch skips it.
func (s *bookingService) UpdateAppointment(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int, patch *models.AppointmentPatch) (*models.Appointment, error) {
	current, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Cancelled is terminal: no patch may revive the appointment or
	// move an interval it no longer holds.
	if current.Status == models.AppointmentCancelled {
		return nil, ErrAppointmentCancelled
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *patch.Status)
	}

	staffID := current.StaffID
	if patch.StaffID != nil {
		staffID = *patch.StaffID
		staff, err := s.staff.GetByID(ctx, tenantID, staffID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrStaffNotFound
			}
			return nil, err
		}
		if !staff.IsActive {
			return nil, ErrStaffNotFound
		}
	}

	duration := current.DurationMinutes
	if patch.ServiceID != nil {
		svc, err := s.services.GetByID(ctx, tenantID, *patch.ServiceID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrServiceNotFound
			}
			return nil, err
		}
		if !svc.IsActive {
			return nil, ErrServiceNotFound
		}
		duration = svc.DurationMinutes
		patch.DurationMinutes = &duration
	}

	start := current.ScheduledTime
	if patch.ScheduledTime != nil {
		start = patch.ScheduledTime.UTC()
	}

	intervalMoved := patch.ScheduledTime != nil || patch.StaffID != nil || patch.ServiceID != nil
	if intervalMoved {
		overlaps, err := s.appointments.FindOverlapping(ctx, tenantID, staffID, start, duration, &id)
		if err != nil {
			return nil, fmt.Errorf("check conflicts: %w", err)
		}
		if len(overlaps) > 0 {
			return nil, ErrSchedulingConflict
		}
	}

	updated, err := s.appointments.UpdateWithVersion(ctx, tenantID, id, expectedVersion, patch)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrVersionConflict):
			return nil, ErrStaleWrite
		case errors.Is(err, repositories.ErrOverlap):
			return nil, ErrSchedulingConflict
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.AppointmentUpdated(ctx, updated); err != nil {
			log.Printf("Failed to queue update notification for appointment %s: %v", updated.ID, err)
		}
	}

	s.invalidateDay(ctx, tenantID, current.StaffID, current.ScheduledTime)
	s.invalidateDay(ctx, tenantID, updated.StaffID, updated.ScheduledTime)

	return updated, nil
}

// CancelAppointment moves the appointment to cancelled through the
// same version-checked path as any other update, freeing its interval
// for new bookings. The primitive itself allows cancelling from any
// status; policy about completed appointments belongs to the caller.
func (s *bookingService) CancelAppointment(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	current, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	status := models.AppointmentCancelled
	cancelled, err := s.appointments.UpdateWithVersion(ctx, tenantID, id, current.Version, &models.AppointmentPatch{Status: &status})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrVersionConflict):
			return nil, ErrStaleWrite
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.AppointmentCancelled(ctx, cancelled); err != nil {
			log.Printf("Failed to queue cancellation notification for appointment %s: %v", cancelled.ID, err)
		}
	}

	s.invalidateDay(ctx, tenantID, cancelled.StaffID, cancelled.ScheduledTime)

	return cancelled, nil
}

func (s *bookingService) GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *bookingService) ListAppointments(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, int, error) {
	appts, err := s.appointments.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.appointments.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (s *bookingService) invalidateDay(ctx context.Context, tenantID, staffID uuid.UUID, t time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailability(ctx, tenantID, staffID, t); err != nil {
		log.Printf("Failed to invalidate availability cache for staff %s: %v", staffID, err)
	}
}
