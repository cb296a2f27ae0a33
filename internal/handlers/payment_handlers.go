package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"salonbook/internal/common"
	"salonbook/internal/models"
	"salonbook/internal/payments"
	"salonbook/internal/services"

	"github.com/labstack/echo/v4"
)

// PaymentHandlers wires the gateway registry to the booking flow:
// deposits start a payment outside the booking write path, and the
// webhook confirms the pending appointment through the version-checked
// update once the gateway reports success.
type PaymentHandlers struct {
	registry       *payments.Registry
	bookingService services.BookingService
	catalogService services.CatalogService
}

func NewPaymentHandlers(registry *payments.Registry, bookingService services.BookingService, catalogService services.CatalogService) *PaymentHandlers {
	return &PaymentHandlers{
		registry:       registry,
		bookingService: bookingService,
		catalogService: catalogService,
	}
}

// CreateDeposit handles POST /appointments/:id/deposit
func (h *PaymentHandlers) CreateDeposit(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.TenantIDFromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	tenant, ok := c.Get("tenant").(*models.Tenant)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		CustomerEmail string `json:"customer_email"`
		AmountCents   int64  `json:"amount_cents"`
		ReturnURL     string `json:"return_url"`
		CancelURL     string `json:"cancel_url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	appt, err := h.bookingService.GetAppointment(ctx, tenantID, id)
	if err != nil {
		return mapBookingError(c, err)
	}
	if appt.Status != models.AppointmentPending {
		return common.SendClientError(c, "Deposit can only be taken on a pending appointment")
	}

	amount := req.AmountCents
	if amount <= 0 {
		svc, err := h.catalogService.GetByID(ctx, tenantID, appt.ServiceID)
		if err != nil {
			return common.SendServerError(c, "Failed to resolve deposit amount")
		}
		amount = svc.PriceCents
	}
	if amount <= 0 {
		return common.SendClientError(c, "No deposit amount to charge")
	}

	gateway, err := h.registry.ForTenant(tenant)
	if err != nil {
		return common.SendClientError(c, "No payment gateway available for this salon")
	}

	result, err := gateway.ProcessDeposit(ctx, &payments.Deposit{
		TenantID:      tenantID,
		AppointmentID: appt.ID,
		AmountCents:   amount,
		Currency:      tenant.Currency,
		CustomerEmail: req.CustomerEmail,
		Reference:     fmt.Sprintf("dep-%s", appt.ID),
		ReturnURL:     req.ReturnURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		log.Printf("Deposit failed for appointment %s via %s: %v", appt.ID, gateway.ID(), err)
		return common.SendServerError(c, "Payment gateway error")
	}
	return c.JSON(http.StatusOK, result)
}

// HandleGatewayWebhook handles POST /webhooks/payments/:gateway. The
// route is unauthenticated; each adapter verifies the gateway's own
// signature before anything is trusted. A successful payment confirms
// the pending appointment via the version-checked update path; losing
// that race to a cancellation leaves the appointment cancelled.
func (h *PaymentHandlers) HandleGatewayWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	gateway, err := h.registry.Get(c.Param("gateway"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown gateway")
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable payload")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		signature = c.Request().Header.Get("X-Paystack-Signature")
	}

	event, err := gateway.HandleWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid signature")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}

	if !event.Succeeded || event.TenantID == nil || event.AppointmentID == nil {
		// Acknowledge so the gateway stops retrying; nothing to confirm.
		return c.NoContent(http.StatusOK)
	}

	appt, err := h.bookingService.GetAppointment(ctx, *event.TenantID, *event.AppointmentID)
	if err != nil {
		log.Printf("Webhook %s references unknown appointment %s: %v", event.Reference, *event.AppointmentID, err)
		return c.NoContent(http.StatusOK)
	}
	if appt.Status != models.AppointmentPending {
		return c.NoContent(http.StatusOK)
	}

	confirmed := models.AppointmentConfirmed
	if _, err := h.bookingService.UpdateAppointment(ctx, *event.TenantID, appt.ID, appt.Version,
		&models.AppointmentPatch{Status: &confirmed}); err != nil {
		if errors.Is(err, services.ErrStaleWrite) {
			// A concurrent write moved the appointment on; the gateway
			// retry will re-evaluate against the fresh state.
			return echo.NewHTTPError(http.StatusConflict, "Appointment changed concurrently")
		}
		log.Printf("Failed to confirm appointment %s from webhook: %v", appt.ID, err)
		return common.SendServerError(c, "Failed to confirm appointment")
	}
	return c.NoContent(http.StatusOK)
}
