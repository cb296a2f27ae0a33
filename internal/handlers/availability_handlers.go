package handlers

import (
	"errors"
	"net/http"
	"time"

	"salonbook/internal/common"
	"salonbook/internal/services"

	"github.com/labstack/echo/v4"
)

// AvailabilityHandlers serves the public slot lookup used by the
// booking page.
type AvailabilityHandlers struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandlers(availabilityService services.AvailabilityService) *AvailabilityHandlers {
	return &AvailabilityHandlers{availabilityService: availabilityService}
}

// GetAvailability handles GET /availability?staff_id=&service_id=&date=
func (h *AvailabilityHandlers) GetAvailability(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	staffID, err := common.ValidateUUID(c.QueryParam("staff_id"), "staff_id")
	if err != nil {
		return common.SendValidationError(c, "staff_id", err.Error())
	}
	serviceID, err := common.ValidateUUID(c.QueryParam("service_id"), "service_id")
	if err != nil {
		return common.SendValidationError(c, "service_id", err.Error())
	}
	dateStr := c.QueryParam("date")
	if err := common.ValidateRequiredString(dateStr, "date"); err != nil {
		return common.SendValidationError(c, "date", err.Error())
	}
	if err := common.ValidateDateFormat(dateStr, "date"); err != nil {
		return common.SendValidationError(c, "date", err.Error())
	}
	day, _ := time.Parse("2006-01-02", dateStr)

	slots, err := h.availabilityService.GetAvailableSlots(ctx, tenantID, staffID, serviceID, day)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrServiceNotFound):
			return common.SendNotFoundError(c, "Service")
		case errors.Is(err, services.ErrStaffNotFound):
			return common.SendNotFoundError(c, "Staff member")
		}
		return common.SendServerError(c, "Failed to compute availability")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  dateStr,
		"slots": slots,
	})
}
