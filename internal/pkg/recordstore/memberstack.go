package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/env"
)

const defaultMemberstackAPIURL = "https://admin.memberstack.com/graphql"

// MemberstackStore persists payments as generic data records behind
// Memberstack's GraphQL admin API.
type MemberstackStore struct {
	SecretKey string
	TableID   string

	APIURL     string
	HTTPClient *http.Client
}

func NewMemberstackStoreFromEnv() *MemberstackStore {
	return &MemberstackStore{
		SecretKey:  strings.TrimSpace(env.GetEnv("MEMBERSTACK_SECRET_KEY", "")),
		TableID:    strings.TrimSpace(env.GetEnv("MEMBERSTACK_TABLE_ID", "")),
		APIURL:     strings.TrimSpace(env.GetEnv("MEMBERSTACK_API_URL", defaultMemberstackAPIURL)),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *MemberstackStore) Name() string { return "memberstack" }

func (s *MemberstackStore) configured() bool {
	return s.SecretKey != "" && s.TableID != ""
}

type memberstackRecordData struct {
	SessionID    string     `json:"sessionId"`
	CustomerName string     `json:"customerName"`
	Amount       wireAmount `json:"amount"`
	Currency     string     `json:"currency"`
	Email        string     `json:"email"`
	Plan         string     `json:"plan,omitempty"`
	Timestamp    string     `json:"timestamp"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (s *MemberstackStore) do(ctx context.Context, req graphQLRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.SecretKey)

	resp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: memberstack request failed: status=%d body=%s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("%w: memberstack returned malformed body: %v", ErrUnavailable, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: memberstack api error: %s", ErrUnavailable, envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: memberstack data malformed: %v", ErrUnavailable, err)
		}
	}
	return nil
}

const createDataRecordMutation = `
mutation CreatePaymentRecord($input: CreateDataRecordInput!) {
  createDataRecord(input: $input) {
    id
    data
  }
}`

func (s *MemberstackStore) Create(ctx context.Context, p models.PaymentRecord) error {
	if !s.configured() {
		return ErrNotConfigured
	}

	return s.do(ctx, graphQLRequest{
		Query: createDataRecordMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"tableId": s.TableID,
				"data": memberstackRecordData{
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
	}, nil)
}

const getDataRecordsQuery = `
query GetPayments($tableId: ID!, $pagination: PaginationInput) {
  getDataRecords(tableId: $tableId, pagination: $pagination) {
    edges {
      node {
        id
        data
        createdAt
      }
    }
  }
}`

func (s *MemberstackStore) List(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return []models.PaymentRecord{}, nil
	}

	var data struct {
		GetDataRecords struct {
			Edges []struct {
				Node struct {
					ID   string                `json:"id"`
					Data memberstackRecordData `json:"data"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"getDataRecords"`
	}
	err := s.do(ctx, graphQLRequest{
		Query: getDataRecordsQuery,
		Variables: map[string]any{
			"tableId":    s.TableID,
			"pagination": map[string]any{"first": limit},
		},
	}, &data)
	if err != nil {
		return nil, err
	}

	payments := make([]models.PaymentRecord, 0, len(data.GetDataRecords.Edges))
	for _, edge := range data.GetDataRecords.Edges {
		d := edge.Node.Data
		id := d.SessionID
		if id == "" {
			id = edge.Node.ID
		}
		ts, _ := time.Parse(time.RFC3339, d.Timestamp)
		payments = append(payments, models.PaymentRecord{
			ID:           id,
			CustomerName: d.CustomerName,
			Amount:       float64(d.Amount),
			Currency:     models.NormalizeCurrency(d.Currency),
			Timestamp:    ts,
			Email:        d.Email,
			Plan:         d.Plan,
		})
	}
	return payments, nil
}
