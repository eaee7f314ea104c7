// Package checkout creates provider-hosted checkout sessions for the
// dashboard's test-purchase call to action.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/proofboard/proofboard/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com"

// Fixed single line item for the demo purchase: $9.00, one-time payment.
const (
	productName        = "Test Product"
	productDescription = "Social Proof Demo Purchase"
	unitAmountCents    = 900
	productCurrency    = "usd"
)

// ErrNotConfigured is returned when the provider secret key is missing.
var ErrNotConfigured = errors.New("STRIPE_SECRET_KEY is not configured")

type Client struct {
	SecretKey string

	APIBaseURL string
	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Session is the subset of the provider's checkout session the caller needs.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession opens a single-item, fixed-price checkout transaction and
// returns its redirect target. baseURL anchors the success and cancel
// redirects back to the dashboard.
func (c *Client) CreateSession(ctx context.Context, baseURL string) (*Session, error) {
	if c.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("base URL for redirect construction is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", productCurrency)
	form.Set("line_items[0][price_data][product_data][name]", productName)
	form.Set("line_items[0][price_data][product_data][description]", productDescription)
	form.Set("line_items[0][price_data][unit_amount]", strconv.Itoa(unitAmountCents))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", base+"?success=true")
	form.Set("cancel_url", base+"?canceled=true")

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("checkout session creation failed: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("checkout session creation failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.URL) == "" {
		return nil, errors.New("checkout session response missing redirect url")
	}
	return &session, nil
}
