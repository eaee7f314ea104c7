package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/env"
)

const defaultAirtableAPIBaseURL = "https://api.airtable.com"

// AirtableStore persists payments to an Airtable table. Field names follow
// the dashboard's base schema: sessionId, customerName, amount, currency,
// email, plan, timestamp (ISO-8601).
type AirtableStore struct {
	AccessToken string
	BaseID      string
	TableName   string

	APIBaseURL string
	HTTPClient *http.Client
}

func NewAirtableStoreFromEnv() *AirtableStore {
	return &AirtableStore{
		AccessToken: strings.TrimSpace(env.GetEnv("AIRTABLE_ACCESS_TOKEN", "")),
		BaseID:      strings.TrimSpace(env.GetEnv("AIRTABLE_BASE_ID", "")),
		TableName:   strings.TrimSpace(env.GetEnv("AIRTABLE_TABLE_NAME", "Payments")),
		APIBaseURL:  strings.TrimSpace(env.GetEnv("AIRTABLE_API_BASE_URL", defaultAirtableAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *AirtableStore) Name() string { return "airtable" }

func (s *AirtableStore) configured() bool {
	return s.AccessToken != "" && s.BaseID != ""
}

func (s *AirtableStore) tableURL() string {
	return fmt.Sprintf("%s/v0/%s/%s",
		strings.TrimRight(s.APIBaseURL, "/"), s.BaseID, url.PathEscape(s.TableName))
}

type airtableFields struct {
	SessionID    string     `json:"sessionId"`
	CustomerName string     `json:"customerName"`
	Amount       wireAmount `json:"amount"`
	Currency     string     `json:"currency"`
	Email        string     `json:"email"`
	Plan         string     `json:"plan,omitempty"`
	Timestamp    string     `json:"timestamp"`
}

func (s *AirtableStore) Create(ctx context.Context, p models.PaymentRecord) error {
	if !s.configured() {
		return ErrNotConfigured
	}

	payload := map[string]any{
		"records": []map[string]any{
			{
				"fields": airtableFields{
					SessionID:    p.ID,
					CustomerName: p.CustomerName,
					Amount:       wireAmount(p.Amount),
					Currency:     p.Currency,
					Email:        p.Email,
					Plan:         p.Plan,
					Timestamp:    p.Timestamp.UTC().Format(time.RFC3339),
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: airtable create failed: status=%d body=%s", ErrUnavailable, resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *AirtableStore) List(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return []models.PaymentRecord{}, nil
	}

	u, err := url.Parse(s.tableURL())
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("maxRecords", strconv.Itoa(limit))
	q.Set("sort[0][field]", "timestamp")
	q.Set("sort[0][direction]", "desc")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: airtable list failed: status=%d body=%s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var raw struct {
		Records []struct {
			ID     string         `json:"id"`
			Fields airtableFields `json:"fields"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: airtable list returned malformed body: %v", ErrUnavailable, err)
	}

	payments := make([]models.PaymentRecord, 0, len(raw.Records))
	for _, rec := range raw.Records {
		f := rec.Fields
		id := f.SessionID
		if id == "" {
			id = rec.ID
		}
		name := f.CustomerName
		if name == "" {
			name = "Anonymous"
		}
		ts, _ := time.Parse(time.RFC3339, f.Timestamp)
		payments = append(payments, models.PaymentRecord{
			ID:           id,
			CustomerName: name,
			Amount:       float64(f.Amount),
			Currency:     models.NormalizeCurrency(f.Currency),
			Timestamp:    ts,
			Email:        f.Email,
			Plan:         f.Plan,
		})
	}
	return payments, nil
}
