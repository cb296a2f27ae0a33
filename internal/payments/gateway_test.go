package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(
		NewPayFastGateway("10000100", "46f0cd694581a", "jt7NOE43FZPn", true),
		NewPaystackGateway("sk_test_xyz"),
		NewStripeGateway("sk_test_abc", "whsec_test"),
	)
}

func TestRegistryForTenant(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name     string
		tenant   *models.Tenant
		expected string
	}{
		{"explicit config wins", &models.Tenant{Currency: "ZAR", PaymentConfig: map[string]string{"gateway": "stripe"}}, "stripe"},
		{"ZAR defaults to payfast", &models.Tenant{Currency: "ZAR"}, "payfast"},
		{"NGN defaults to paystack", &models.Tenant{Currency: "NGN"}, "paystack"},
		{"USD defaults to stripe", &models.Tenant{Currency: "USD"}, "stripe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := r.ForTenant(tt.tenant)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, g.ID())
		})
	}
}

func TestRegistryUnknownGateway(t *testing.T) {
	r := testRegistry()
	_, err := r.ForTenant(&models.Tenant{Currency: "USD", PaymentConfig: map[string]string{"gateway": "snapscan"}})
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestPayFastProcessDeposit(t *testing.T) {
	g := NewPayFastGateway("10000100", "46f0cd694581a", "jt7NOE43FZPn", true)

	res, err := g.ProcessDeposit(context.Background(), &Deposit{
		TenantID:      uuid.New(),
		AppointmentID: uuid.New(),
		AmountCents:   15000,
		Currency:      "ZAR",
		CustomerEmail: "client@example.com",
		Reference:     "dep-123",
		ReturnURL:     "https://salon.example.com/return",
		CancelURL:     "https://salon.example.com/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "payfast", res.GatewayID)
	assert.True(t, strings.HasPrefix(res.RedirectURL, "https://sandbox.payfast.co.za/eng/process?"))

	parsed, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "150.00", q.Get("amount"))
	assert.Equal(t, "dep-123", q.Get("m_payment_id"))
	assert.NotEmpty(t, q.Get("signature"))
}

func TestPayFastRejectsForeignCurrency(t *testing.T) {
	g := NewPayFastGateway("10000100", "46f0cd694581a", "", true)
	_, err := g.ProcessDeposit(context.Background(), &Deposit{Currency: "USD"})
	assert.Error(t, err)
}

func TestPayFastWebhookRoundTrip(t *testing.T) {
	g := NewPayFastGateway("10000100", "46f0cd694581a", "jt7NOE43FZPn", true)
	apptID := uuid.New()

	fields := [][2]string{
		{"m_payment_id", "dep-456"},
		{"payment_status", "COMPLETE"},
		{"custom_str1", apptID.String()},
	}
	var parts []string
	for _, f := range fields {
		parts = append(parts, f[0]+"="+url.QueryEscape(f[1]))
	}
	payload := strings.Join(parts, "&") + "&signature=" + g.sign(fields)

	event, err := g.HandleWebhook(context.Background(), []byte(payload), "")
	require.NoError(t, err)
	assert.True(t, event.Succeeded)
	assert.Equal(t, "dep-456", event.Reference)
	require.NotNil(t, event.AppointmentID)
	assert.Equal(t, apptID, *event.AppointmentID)
}

func TestPayFastWebhookBadSignature(t *testing.T) {
	g := NewPayFastGateway("10000100", "46f0cd694581a", "jt7NOE43FZPn", true)
	payload := "m_payment_id=dep-456&payment_status=COMPLETE&signature=deadbeef"
	_, err := g.HandleWebhook(context.Background(), []byte(payload), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPaystackWebhookSignature(t *testing.T) {
	g := NewPaystackGateway("sk_test_xyz")
	apptID := uuid.New()
	payload := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"reference":"dep-789","status":"success","metadata":{"appointment_id":"%s"}}}`,
		apptID))

	mac := hmac.New(sha512.New, []byte("sk_test_xyz"))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	event, err := g.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.True(t, event.Succeeded)
	assert.Equal(t, "dep-789", event.Reference)
	require.NotNil(t, event.AppointmentID)
	assert.Equal(t, apptID, *event.AppointmentID)

	_, err = g.HandleWebhook(context.Background(), payload, "bogus")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
