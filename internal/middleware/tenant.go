package middleware

import (
	"context"
	"net/http"
	"strings"

	"salonbook/internal/common"
	"salonbook/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantMiddleware resolves the tenant for every request from the
// X-Tenant-Slug header, falling back to the Host subdomain
// (slug.salonbook.example). The lookup goes through the cached tenant
// service. Requests without a resolvable active tenant are rejected
// before any handler runs.
func TenantMiddleware(tenants services.TenantService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slug := c.Request().Header.Get("X-Tenant-Slug")
			if slug == "" {
				slug = slugFromHost(c.Request().Host)
			}
			if slug == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "Tenant not specified")
			}

			tenant, err := tenants.GetBySlug(c.Request().Context(), slug)
			if err != nil {
				return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
			}
			if !tenant.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "Tenant is disabled")
			}

			ctx := context.WithValue(c.Request().Context(), common.TenantIDKey, tenant.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant", tenant)

			return next(c)
		}
	}
}

func slugFromHost(host string) string {
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	sub := parts[0]
	if sub == "www" || sub == "api" {
		return ""
	}
	return sub
}
