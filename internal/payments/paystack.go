package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackGateway initializes transactions through the Paystack REST
// API and verifies webhook deliveries with the HMAC-SHA512 signature
// Paystack sends in the x-paystack-signature header.
type PaystackGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewPaystackGateway(secretKey string) *PaystackGateway {
	return &PaystackGateway{
		secretKey:  secretKey,
		baseURL:    paystackBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *PaystackGateway) ID() string { return "paystack" }

type paystackInitRequest struct {
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Reference string            `json:"reference"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (g *PaystackGateway) ProcessDeposit(ctx context.Context, dep *Deposit) (*DepositResult, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:     dep.CustomerEmail,
		Amount:    dep.AmountCents,
		Currency:  dep.Currency,
		Reference: dep.Reference,
		Metadata: map[string]string{
			"appointment_id": dep.AppointmentID.String(),
			"tenant_id":      dep.TenantID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack initialize: %w", err)
	}
	defer resp.Body.Close()

	var initResp paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, fmt.Errorf("decode paystack response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !initResp.Status {
		return nil, fmt.Errorf("paystack initialize failed: %s", initResp.Message)
	}

	return &DepositResult{
		GatewayID:   g.ID(),
		Reference:   initResp.Data.Reference,
		RedirectURL: initResp.Data.AuthorizationURL,
	}, nil
}

type paystackWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Status    string            `json:"status"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

func (g *PaystackGateway) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var raw paystackWebhookEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode paystack event: %w", err)
	}

	event := &WebhookEvent{
		Reference: raw.Data.Reference,
		Succeeded: raw.Event == "charge.success" && raw.Data.Status == "success",
	}
	if idStr, ok := raw.Data.Metadata["appointment_id"]; ok {
		if id, err := uuid.Parse(idStr); err == nil {
			event.AppointmentID = &id
		}
	}
	if idStr, ok := raw.Data.Metadata["tenant_id"]; ok {
		if id, err := uuid.Parse(idStr); err == nil {
			event.TenantID = &id
		}
	}
	return event, nil
}
