package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"salonbook/internal/caching"
	"salonbook/internal/models"
	"salonbook/internal/repositories"

	"github.com/google/uuid"
)

const (
	availabilityCacheTTL = 5 * time.Minute
	slotGranularity      = 15 * time.Minute
)

// AvailabilityService computes bookable slots for a staff member on a
// given day. Free intervals (business hours minus live appointments)
// are cached per staff day; slicing into service-sized slots happens
// per request since it depends on the service's duration.
type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, tenantID, staffID, serviceID uuid.UUID, day time.Time) ([]models.TimeSlot, error)
	InvalidateAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) error
}

type availabilityService struct {
	appointments repositories.AppointmentRepository
	services     repositories.ServiceRepository
	staff        repositories.StaffRepository
	cache        caching.CacheService
	openHour     int
	closeHour    int
}

// NewAvailabilityService builds the availability calculator. openHour
// and closeHour bound the bookable window in the tenant's day, e.g.
// 9 and 17 for 09:00-17:00. A nil cache disables caching.
func NewAvailabilityService(
	appointments repositories.AppointmentRepository,
	services repositories.ServiceRepository,
	staff repositories.StaffRepository,
	cache caching.CacheService,
	openHour, closeHour int,
) AvailabilityService {
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		openHour, closeHour = 9, 17
	}
	return &availabilityService{
		appointments: appointments,
		services:     services,
		staff:        staff,
		cache:        cache,
		openHour:     openHour,
		closeHour:    closeHour,
	}
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, tenantID, staffID, serviceID uuid.UUID, day time.Time) ([]models.TimeSlot, error) {
	svc, err := s.services.GetByID(ctx, tenantID, serviceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

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

	free, err := s.freeIntervals(ctx, tenantID, staffID, day)
	if err != nil {
		return nil, err
	}

	return sliceIntoSlots(free, time.Duration(svc.DurationMinutes)*time.Minute), nil
}

// freeIntervals returns the staff member's unbooked intervals for the
// day, reading through the cache.
func (s *availabilityService) freeIntervals(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) ([]models.TimeSlot, error) {
	dayKey := day.UTC().Format("2006-01-02")

	if s.cache != nil {
		cached, err := s.cache.GetAvailability(ctx, tenantID, staffID, dayKey)
		if err != nil {
			log.Printf("Failed to read availability cache for staff %s: %v", staffID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	// The full day's bookings, unpaginated: a truncated read would
	// advertise occupied intervals as free.
	booked, err := s.appointments.ListByStaffDay(ctx, tenantID, staffID, day.UTC())
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), s.openHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), s.closeHour, 0, 0, 0, time.UTC)

	free := subtractBooked(dayStart, dayEnd, booked)

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, tenantID, staffID, dayKey, free, availabilityCacheTTL); err != nil {
			log.Printf("Failed to cache availability for staff %s: %v", staffID, err)
		}
	}
	return free, nil
}

func (s *availabilityService) InvalidateAvailability(ctx context.Context, tenantID, staffID uuid.UUID, day time.Time) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteAvailability(ctx, tenantID, staffID, day.UTC().Format("2006-01-02"))
}

// subtractBooked removes every live appointment's interval from the
// business-hours window. Cancelled and completed appointments do not
// block the slot they used to occupy.
func subtractBooked(windowStart, windowEnd time.Time, booked []*models.Appointment) []models.TimeSlot {
	free := []models.TimeSlot{{Start: windowStart, End: windowEnd}}

	for _, appt := range booked {
		if !appt.Status.Live() {
			continue
		}
		apptStart := appt.ScheduledTime
		apptEnd := appt.EndTime()

		next := make([]models.TimeSlot, 0, len(free)+1)
		for _, slot := range free {
			// Half-open intervals: touching endpoints do not overlap.
			if apptEnd.Compare(slot.Start) <= 0 || apptStart.Compare(slot.End) >= 0 {
				next = append(next, slot)
				continue
			}
			if apptStart.After(slot.Start) {
				next = append(next, models.TimeSlot{Start: slot.Start, End: apptStart})
			}
			if apptEnd.Before(slot.End) {
				next = append(next, models.TimeSlot{Start: apptEnd, End: slot.End})
			}
		}
		free = next
	}
	return free
}

// sliceIntoSlots emits candidate starts at fixed granularity wherever a
// full service duration fits inside a free interval.
func sliceIntoSlots(free []models.TimeSlot, duration time.Duration) []models.TimeSlot {
	slots := make([]models.TimeSlot, 0)
	for _, interval := range free {
		for start := interval.Start; !start.Add(duration).After(interval.End); start = start.Add(slotGranularity) {
			slots = append(slots, models.TimeSlot{Start: start, End: start.Add(duration)})
		}
	}
	return slots
}
