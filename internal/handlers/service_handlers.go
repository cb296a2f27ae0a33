package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"salonbook/internal/common"
	"salonbook/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const serviceImageExpiry = 24 * time.Hour

// ServiceHandlers manages the tenant's service catalog, including
// image upload to object storage.
type ServiceHandlers struct {
	catalogService services.CatalogService
	mediaService   services.MediaService
}

func NewServiceHandlers(catalogService services.CatalogService, mediaService services.MediaService) *ServiceHandlers {
	return &ServiceHandlers{
		catalogService: catalogService,
		mediaService:   mediaService,
	}
}

// CreateService handles POST /services
func (h *ServiceHandlers) CreateService(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req services.CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	svc, err := h.catalogService.Create(ctx, tenantID, &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, svc)
}

// GetService handles GET /services/:id
func (h *ServiceHandlers) GetService(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	svc, err := h.catalogService.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return common.SendNotFoundError(c, "Service")
		}
		return common.SendServerError(c, "Failed to load service")
	}
	return c.JSON(http.StatusOK, svc)
}

// ListServices handles GET /services
func (h *ServiceHandlers) ListServices(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	activeOnly := c.QueryParam("active") == "true"
	list, err := h.catalogService.List(ctx, tenantID, activeOnly)
	if err != nil {
		return common.SendServerError(c, "Failed to list services")
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateService handles PATCH /services/:id
func (h *ServiceHandlers) UpdateService(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.UpdateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	svc, err := h.catalogService.Update(ctx, tenantID, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return common.SendNotFoundError(c, "Service")
		}
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusOK, svc)
}

// DeactivateService handles DELETE /services/:id
func (h *ServiceHandlers) DeactivateService(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.catalogService.Deactivate(ctx, tenantID, id); err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return common.SendNotFoundError(c, "Service")
		}
		return common.SendServerError(c, "Failed to deactivate service")
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadServiceImage handles POST /services/:id/image (multipart form,
// field "image"). Stores the object and saves a presigned URL on the
// service.
func (h *ServiceHandlers) UploadServiceImage(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	if h.mediaService == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Media storage not configured")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read upload")
	}
	defer src.Close()

	objectName := fmt.Sprintf("services/%s/%s", id, uuid.New())
	if _, err := h.mediaService.UploadImage(ctx, tenantID, objectName, src, file.Size, file.Header.Get("Content-Type")); err != nil {
		return common.SendServerError(c, "Failed to store image")
	}

	url, err := h.mediaService.GetPresignedURL(ctx, tenantID, objectName, serviceImageExpiry)
	if err != nil {
		return common.SendServerError(c, "Failed to generate image URL")
	}

	svc, err := h.catalogService.Update(ctx, tenantID, id, &services.UpdateServiceRequest{ImageURL: &url})
	if err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return common.SendNotFoundError(c, "Service")
		}
		return common.SendServerError(c, "Failed to save image URL")
	}
	return c.JSON(http.StatusOK, svc)
}
