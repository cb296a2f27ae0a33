package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salonbook/internal/common"
	"salonbook/internal/models"
	"salonbook/internal/repositories"
	"salonbook/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BookingHandlers handles HTTP requests for appointments
type BookingHandlers struct {
	bookingService services.BookingService
	userRepo       repositories.UserRepository
}

func NewBookingHandlers(bookingService services.BookingService, userRepo repositories.UserRepository) *BookingHandlers {
	return &BookingHandlers{
		bookingService: bookingService,
		userRepo:       userRepo,
	}
}

// mapBookingError translates the service error taxonomy to HTTP. Both
// conflict flavors are 409 but carry distinct codes so clients can
// offer the right recovery (pick another slot vs. reload and retry).
func mapBookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrSchedulingConflict):
		return common.SendConflictError(c, "SCHEDULING_CONFLICT", "Time slot conflicts with an existing appointment")
	case errors.Is(err, services.ErrStaleWrite):
		return common.SendConflictError(c, "STALE_WRITE", "Appointment was modified by another request; reload and retry")
	case errors.Is(err, services.ErrAppointmentCancelled):
		return common.SendConflictError(c, "APPOINTMENT_CANCELLED", "Appointment is cancelled and can no longer be modified")
	case errors.Is(err, services.ErrServiceNotFound):
		return common.SendNotFoundError(c, "Service")
	case errors.Is(err, services.ErrStaffNotFound):
		return common.SendNotFoundError(c, "Staff member")
	case errors.Is(err, services.ErrNotFound):
		return common.SendNotFoundError(c, "Appointment")
	default:
		return common.SendServerError(c, "Internal server error")
	}
}

// CreateAppointment handles POST /appointments
func (h *BookingHandlers) CreateAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req struct {
		CustomerEmail string  `json:"customer_email"`
		CustomerName  string  `json:"customer_name"`
		CustomerPhone *string `json:"customer_phone"`
		StaffID       string  `json:"staff_id"`
		ServiceID     string  `json:"service_id"`
		ScheduledTime string  `json:"scheduled_time"`
		Notes         *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := common.ValidateRequiredString(req.CustomerEmail, "customer_email"); err != nil {
		return common.SendValidationError(c, "customer_email", err.Error())
	}
	if err := common.ValidateRequiredString(req.CustomerName, "customer_name"); err != nil {
		return common.SendValidationError(c, "customer_name", err.Error())
	}
	staffID, err := common.ValidateUUID(req.StaffID, "staff_id")
	if err != nil {
		return common.SendValidationError(c, "staff_id", err.Error())
	}
	serviceID, err := common.ValidateUUID(req.ServiceID, "service_id")
	if err != nil {
		return common.SendValidationError(c, "service_id", err.Error())
	}
	scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		return common.SendValidationError(c, "scheduled_time", "must be RFC3339, e.g. 2026-09-01T10:00:00Z")
	}
	if scheduledTime.Before(time.Now()) {
		return common.SendValidationError(c, "scheduled_time", "cannot be in the past")
	}

	customer, err := h.userRepo.GetOrCreateByEmail(ctx, tenantID, strings.ToLower(req.CustomerEmail), req.CustomerName, req.CustomerPhone)
	if err != nil {
		return common.SendServerError(c, "Failed to resolve customer")
	}

	appt, err := h.bookingService.CreateAppointment(ctx, tenantID, &services.CreateAppointmentRequest{
		CustomerID:     customer.ID,
		StaffID:        staffID,
		ServiceID:      serviceID,
		ScheduledTime:  scheduledTime,
		Notes:          req.Notes,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(http.StatusCreated, appt)
}

// GetAppointment handles GET /appointments/:id
func (h *BookingHandlers) GetAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	appt, err := h.bookingService.GetAppointment(ctx, tenantID, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// ListAppointments handles GET /appointments
func (h *BookingHandlers) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	filter := &models.AppointmentFilter{}
	filter.Limit, filter.Offset = common.ParsePagination(c)

	if raw := c.QueryParam("staff_id"); raw != "" {
		staffID, err := common.ValidateUUID(raw, "staff_id")
		if err != nil {
			return common.SendValidationError(c, "staff_id", err.Error())
		}
		filter.StaffID = &staffID
	}
	if raw := c.QueryParam("customer_id"); raw != "" {
		customerID, err := common.ValidateUUID(raw, "customer_id")
		if err != nil {
			return common.SendValidationError(c, "customer_id", err.Error())
		}
		filter.CustomerID = &customerID
	}
	if raw := c.QueryParam("status"); raw != "" {
		if err := common.ValidateAppointmentStatus(raw); err != nil {
			return common.SendValidationError(c, "status", err.Error())
		}
		status := models.AppointmentStatus(raw)
		filter.Status = &status
	}
	if raw := c.QueryParam("date"); raw != "" {
		if err := common.ValidateDateFormat(raw, "date"); err != nil {
			return common.SendValidationError(c, "date", err.Error())
		}
		date, _ := time.Parse("2006-01-02", raw)
		filter.Date = &date
	}

	appts, total, err := h.bookingService.ListAppointments(ctx, tenantID, filter)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appts,
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// UpdateAppointment handles PATCH /appointments/:id. The caller must
// send the version it read; a mismatch comes back as 409 STALE_WRITE.
func (h *BookingHandlers) UpdateAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Version       int     `json:"version"`
		StaffID       *string `json:"staff_id"`
		ServiceID     *string `json:"service_id"`
		ScheduledTime *string `json:"scheduled_time"`
		Status        *string `json:"status"`
		Notes         *string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Version <= 0 {
		return common.SendValidationError(c, "version", "version is required and must be positive")
	}

	patch := &models.AppointmentPatch{Notes: req.Notes}
	if req.StaffID != nil {
		staffID, err := common.ValidateUUID(*req.StaffID, "staff_id")
		if err != nil {
			return common.SendValidationError(c, "staff_id", err.Error())
		}
		patch.StaffID = &staffID
	}
	if req.ServiceID != nil {
		serviceID, err := common.ValidateUUID(*req.ServiceID, "service_id")
		if err != nil {
			return common.SendValidationError(c, "service_id", err.Error())
		}
		patch.ServiceID = &serviceID
	}
	if req.ScheduledTime != nil {
		scheduledTime, err := time.Parse(time.RFC3339, *req.ScheduledTime)
		if err != nil {
			return common.SendValidationError(c, "scheduled_time", "must be RFC3339")
		}
		patch.ScheduledTime = &scheduledTime
	}
	if req.Status != nil {
		if err := common.ValidateAppointmentStatus(*req.Status); err != nil {
			return common.SendValidationError(c, "status", err.Error())
		}
		status := models.AppointmentStatus(*req.Status)
		patch.Status = &status
	}

	appt, err := h.bookingService.UpdateAppointment(ctx, tenantID, id, req.Version, patch)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// CancelAppointment handles POST /appointments/:id/cancel. Cancelling
// an already-cancelled or completed appointment is rejected here;
// the booking service primitive itself does not enforce that policy.
func (h *BookingHandlers) CancelAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	current, err := h.bookingService.GetAppointment(ctx, tenantID, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	switch current.Status {
	case models.AppointmentCancelled:
		return common.SendClientError(c, "Appointment is already cancelled")
	case models.AppointmentCompleted:
		return common.SendClientError(c, "Completed appointments cannot be cancelled")
	}

	appt, err := h.bookingService.CancelAppointment(ctx, tenantID, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// uuidParam is a helper for optional UUID path params shared by the
// other handlers in this package.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(name), name)
}
