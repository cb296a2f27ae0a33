package payments

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	payfastLiveURL    = "https://www.payfast.co.za/eng/process"
	payfastSandboxURL = "https://sandbox.payfast.co.za/eng/process"
)

// PayFastGateway implements the PayFast redirect flow: the deposit
// produces a signed process URL, and the ITN (instant transaction
// notification) callback reports the outcome.
type PayFastGateway struct {
	merchantID  string
	merchantKey string
	passphrase  string
	sandbox     bool
}

func NewPayFastGateway(merchantID, merchantKey, passphrase string, sandbox bool) *PayFastGateway {
	return &PayFastGateway{
		merchantID:  merchantID,
		merchantKey: merchantKey,
		passphrase:  passphrase,
		sandbox:     sandbox,
	}
}

func (g *PayFastGateway) ID() string { return "payfast" }

func (g *PayFastGateway) ProcessDeposit(ctx context.Context, dep *Deposit) (*DepositResult, error) {
	if !strings.EqualFold(dep.Currency, "ZAR") {
		return nil, fmt.Errorf("payfast only processes ZAR, got %s", dep.Currency)
	}

	// PayFast signs fields in submission order, not alphabetically.
	fields := [][2]string{
		{"merchant_id", g.merchantID},
		{"merchant_key", g.merchantKey},
		{"return_url", dep.ReturnURL},
		{"cancel_url", dep.CancelURL},
		{"email_address", dep.CustomerEmail},
		{"m_payment_id", dep.Reference},
		{"amount", fmt.Sprintf("%.2f", float64(dep.AmountCents)/100)},
		{"item_name", fmt.Sprintf("Booking deposit %s", dep.AppointmentID)},
		{"custom_str1", dep.AppointmentID.String()},
		{"custom_str2", dep.TenantID.String()},
	}

	query := url.Values{}
	for _, f := range fields {
		if f[1] != "" {
			query.Set(f[0], f[1])
		}
	}
	query.Set("signature", g.sign(fields))

	base := payfastLiveURL
	if g.sandbox {
		base = payfastSandboxURL
	}

	return &DepositResult{
		GatewayID:   g.ID(),
		Reference:   dep.Reference,
		RedirectURL: base + "?" + query.Encode(),
	}, nil
}

// HandleWebhook processes a PayFast ITN post body. The signature
// parameter is unused; PayFast embeds the signature in the payload.
func (g *PayFastGateway) HandleWebhook(ctx context.Context, payload []byte, _ string) (*WebhookEvent, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parse ITN payload: %w", err)
	}

	received := values.Get("signature")
	values.Del("signature")

	var fields [][2]string
	// ITN fields must be verified in the order they were posted.
	for _, pair := range strings.Split(string(payload), "&") {
		key, _, found := strings.Cut(pair, "=")
		if !found || key == "signature" {
			continue
		}
		fields = append(fields, [2]string{key, values.Get(key)})
	}

	if received == "" || received != g.sign(fields) {
		return nil, ErrInvalidSignature
	}

	event := &WebhookEvent{
		Reference: values.Get("m_payment_id"),
		Succeeded: values.Get("payment_status") == "COMPLETE",
	}
	if raw := values.Get("custom_str1"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			event.AppointmentID = &id
		}
	}
	if raw := values.Get("custom_str2"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			event.TenantID = &id
		}
	}
	return event, nil
}

func (g *PayFastGateway) sign(fields [][2]string) string {
	var parts []string
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		parts = append(parts, f[0]+"="+url.QueryEscape(f[1]))
	}
	signable := strings.Join(parts, "&")
	if g.passphrase != "" {
		signable += "&passphrase=" + url.QueryEscape(g.passphrase)
	}
	sum := md5.Sum([]byte(signable))
	return hex.EncodeToString(sum[:])
}
