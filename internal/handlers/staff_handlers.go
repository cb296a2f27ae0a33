package handlers

import (
	"errors"
	"net/http"

	"salonbook/internal/common"
	"salonbook/internal/services"

	"github.com/labstack/echo/v4"
)

// StaffHandlers handles staff management for salon admins plus the
// public staff listing for the booking page.
type StaffHandlers struct {
	staffService services.StaffService
}

func NewStaffHandlers(staffService services.StaffService) *StaffHandlers {
	return &StaffHandlers{staffService: staffService}
}

// CreateStaff handles POST /staff
func (h *StaffHandlers) CreateStaff(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req services.CreateStaffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	staff, err := h.staffService.Create(ctx, tenantID, &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, staff)
}

// GetStaff handles GET /staff/:id
func (h *StaffHandlers) GetStaff(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	staff, err := h.staffService.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			return common.SendNotFoundError(c, "Staff member")
		}
		return common.SendServerError(c, "Failed to load staff member")
	}
	return c.JSON(http.StatusOK, staff)
}

// ListStaff handles GET /staff. The public booking page passes
// active=true; admins see everyone by default.
func (h *StaffHandlers) ListStaff(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	activeOnly := c.QueryParam("active") == "true"
	staff, err := h.staffService.List(ctx, tenantID, activeOnly)
	if err != nil {
		return common.SendServerError(c, "Failed to list staff")
	}
	return c.JSON(http.StatusOK, staff)
}

// UpdateStaff handles PATCH /staff/:id
func (h *StaffHandlers) UpdateStaff(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdateStaffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	staff, err := h.staffService.Update(ctx, tenantID, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			return common.SendNotFoundError(c, "Staff member")
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, staff)
}

// DeactivateStaff handles DELETE /staff/:id. Soft-deactivates; the
// staff member's existing appointments stay on the calendar.
func (h *StaffHandlers) DeactivateStaff(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.staffService.Deactivate(ctx, tenantID, id); err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			return common.SendNotFoundError(c, "Staff member")
		}
		return common.SendServerError(c, "Failed to deactivate staff member")
	}
	return c.NoContent(http.StatusNoContent)
}
