package handlers

import (
	"errors"
	"net/http"

	"salonbook/internal/common"
	"salonbook/internal/repositories"
	"salonbook/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles salon account management. Signup is the only
// unauthenticated route; the rest sit behind the admin role gate.
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// CreateTenant handles POST /tenants
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	var req services.CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenant, err := h.tenantService.Create(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			return common.SendConflictError(c, "SLUG_TAKEN", "Slug is already taken")
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, tenant)
}

// GetCurrentTenant handles GET /tenant. It returns the tenant the
// middleware resolved for this request.
func (h *TenantHandlers) GetCurrentTenant(c echo.Context) error {
	tenantID, err := common.TenantIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendServerError(c, "Failed to load tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateCurrentTenant handles PATCH /tenant. The slug is immutable and
// not accepted here.
func (h *TenantHandlers) UpdateCurrentTenant(c echo.Context) error {
	tenantID, err := common.TenantIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = tenantID

	tenant, err := h.tenantService.Update(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Tenant")
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, tenant)
}
