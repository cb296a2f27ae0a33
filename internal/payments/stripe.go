package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway creates a PaymentIntent per deposit; the client
// completes the payment with the returned client secret and the
// payment_intent.succeeded webhook confirms the appointment.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) ID() string { return "stripe" }

func (g *StripeGateway) ProcessDeposit(ctx context.Context, dep *Deposit) (*DepositResult, error) {
	params := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		Amount:       stripe.Int64(dep.AmountCents),
		Currency:     stripe.String(strings.ToLower(dep.Currency)),
		ReceiptEmail: stripe.String(dep.CustomerEmail),
	}
	params.AddMetadata("appointment_id", dep.AppointmentID.String())
	params.AddMetadata("tenant_id", dep.TenantID.String())
	params.AddMetadata("reference", dep.Reference)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &DepositResult{
		GatewayID:    g.ID(),
		Reference:    dep.Reference,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (g *StripeGateway) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	event := &WebhookEvent{
		Reference: intent.Metadata["reference"],
		Succeeded: stripeEvent.Type == "payment_intent.succeeded",
	}
	if idStr, ok := intent.Metadata["appointment_id"]; ok {
		if id, err := uuid.Parse(idStr); err == nil {
			event.AppointmentID = &id
		}
	}
	if idStr, ok := intent.Metadata["tenant_id"]; ok {
		if id, err := uuid.Parse(idStr); err == nil {
			event.TenantID = &id
		}
	}
	return event, nil
}
