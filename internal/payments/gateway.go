package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salonbook/internal/models"

	"github.com/google/uuid"
)

// Deposit is a booking deposit charge request. Amounts are minor
// currency units.
type Deposit struct {
	TenantID      uuid.UUID
	AppointmentID uuid.UUID
	AmountCents   int64
	Currency      string
	CustomerEmail string
	Reference     string
	ReturnURL     string
	CancelURL     string
}

// DepositResult is what the caller needs to continue the payment flow:
// either a redirect URL (PayFast, Paystack) or a client secret
// (Stripe).
type DepositResult struct {
	GatewayID    string `json:"gateway_id"`
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// WebhookEvent is a gateway callback normalized across providers.
// TenantID and AppointmentID are round-tripped through gateway
// metadata so the webhook route can confirm the right appointment.
type WebhookEvent struct {
	Reference     string
	TenantID      *uuid.UUID
	AppointmentID *uuid.UUID
	Succeeded     bool
}

// Gateway is a payment provider adapter. Deposits happen outside the
// booking write path; a webhook confirms the pending appointment
// afterwards.
type Gateway interface {
	ID() string
	ProcessDeposit(ctx context.Context, dep *Deposit) (*DepositResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

var (
	ErrUnknownGateway    = errors.New("unknown payment gateway")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrGatewayNotEnabled = errors.New("gateway not enabled for tenant")
)

// Registry maps gateway ids to adapters and picks the right one for a
// tenant from its payment config, falling back on currency.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.ID()] = g
	}
	return r
}

func (r *Registry) Get(id string) (Gateway, error) {
	g, ok := r.gateways[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, id)
	}
	return g, nil
}

// ForTenant selects the tenant's configured gateway. An explicit
// "gateway" entry in payment_config wins; otherwise ZAR tenants get
// PayFast, NGN/GHS tenants get Paystack, everyone else Stripe.
func (r *Registry) ForTenant(tenant *models.Tenant) (Gateway, error) {
	if id, ok := tenant.PaymentConfig["gateway"]; ok && id != "" {
		return r.Get(id)
	}
	switch strings.ToUpper(tenant.Currency) {
	case "ZAR":
		return r.Get("payfast")
	case "NGN", "GHS", "KES":
		return r.Get("paystack")
	default:
		return r.Get("stripe")
	}
}
