package payments

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proofboard/proofboard/app/models"
)

// EventCheckoutCompleted is the only provider event type that produces a
// payment record. Everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// AnonymousCustomer is the display name used when the provider sends no
// customer name.
const AnonymousCustomer = "Anonymous"

// StripeEvent is the envelope of a provider webhook notification.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// CheckoutSession carries the subset of a completed checkout the dashboard
// cares about. Line items only appear on payloads where the provider was
// asked to expand them; metadata is the fallback channel for price hints.
type CheckoutSession struct {
	ID              string `json:"id"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerDetails *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata  map[string]string `json:"metadata"`
	LineItems struct {
		Data []struct {
			Description string `json:"description"`
			Price       struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

// PriceID returns the provider price identifier for the purchased item, if
// the payload exposes one.
func (s *CheckoutSession) PriceID() string {
	if len(s.LineItems.Data) > 0 {
		if id := strings.TrimSpace(s.LineItems.Data[0].Price.ID); id != "" {
			return id
		}
	}
	return strings.TrimSpace(s.Metadata["price_id"])
}

// Description returns the purchased item's description, if any.
func (s *CheckoutSession) Description() string {
	if len(s.LineItems.Data) > 0 {
		if d := strings.TrimSpace(s.LineItems.Data[0].Description); d != "" {
			return d
		}
	}
	return strings.TrimSpace(s.Metadata["description"])
}

// ParseStripeEvent decodes a raw webhook body into its event envelope.
func ParseStripeEvent(payload []byte) (*StripeEvent, error) {
	var ev StripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.Type) == "" {
		return nil, errors.New("webhook payload missing event type")
	}
	return &ev, nil
}

// NewPaymentFromSession normalizes a completed checkout session into a
// PaymentRecord: minor units become major units, the currency is uppercased
// (USD when absent) and a missing customer name falls back to Anonymous.
// The plan label is resolved through the given resolver.
func NewPaymentFromSession(session *CheckoutSession, resolver *PlanResolver, now time.Time) models.PaymentRecord {
	amount := int64(0)
	if session.AmountTotal > 0 {
		amount = session.AmountTotal
	}
	// Exact minor-to-major conversion; 900 cents must come out as 9.00.
	major, _ := decimal.New(amount, -2).Float64()

	name := AnonymousCustomer
	email := ""
	if session.CustomerDetails != nil {
		if n := strings.TrimSpace(session.CustomerDetails.Name); n != "" {
			name = n
		}
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}

	return models.PaymentRecord{
		ID:           session.ID,
		CustomerName: name,
		Amount:       major,
		Currency:     models.NormalizeCurrency(session.Currency),
		Timestamp:    now,
		Email:        email,
		Plan:         resolver.Resolve(session.PriceID(), session.Description(), major),
	}
}
