package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/recordstore"
)

// fakeStore is an in-memory recordstore.Store for pipeline tests.
type fakeStore struct {
	mu        sync.Mutex
	records   []models.PaymentRecord
	createErr error
	listErr   error
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Create(ctx context.Context, p models.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append([]models.PaymentRecord{p}, f.records...)
	return nil
}

func (f *fakeStore) List(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > len(f.records) {
		limit = len(f.records)
	}
	out := make([]models.PaymentRecord, limit)
	copy(out, f.records[:limit])
	return out, nil
}

func (f *fakeStore) stored() []models.PaymentRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PaymentRecord(nil), f.records...)
}

const completedEvent = `{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_e2e",
			"amount_total": 2900,
			"currency": "usd",
			"customer_details": { "name": "Jane Smith", "email": "jane@example.com" },
			"line_items": { "data": [ { "description": "Pro Plus bundle", "price": { "id": "price_x" } } ] }
		}
	}
}`

func TestIngestEventEndToEnd(t *testing.T) {
	recent := NewRecentStore(50)
	store := &fakeStore{}
	writer := NewWriter(store)
	writer.Start()
	svc := NewService(recent, store, writer, NewPlanResolver(nil))

	// No signature header and no secret: processed without verification.
	result, err := svc.IngestEvent([]byte(completedEvent), "", "")
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if !result.Processed || result.Payment == nil {
		t.Fatalf("expected a processed payment")
	}

	p := *result.Payment
	if p.Amount != 29.00 || p.Currency != "USD" || p.Plan != PlanProPlus {
		t.Fatalf("unexpected record: amount=%v currency=%q plan=%q", p.Amount, p.Currency, p.Plan)
	}

	if recent.Len() != 1 {
		t.Fatalf("expected record in the local store")
	}

	// Stop drains the async writer, after which the record must be durable.
	writer.Stop()
	if stored := store.stored(); len(stored) != 1 || stored[0].ID != "cs_e2e" {
		t.Fatalf("expected record persisted to the record store, got %v", stored)
	}
}

func TestIngestEventRejectsTamperedBody(t *testing.T) {
	recent := NewRecentStore(50)
	svc := NewService(recent, nil, nil, nil)

	secret := "whsec_test"
	header := signStripePayload([]byte(completedEvent), secret, time.Now())

	tampered := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_evil","amount_total":1}}}`)
	_, err := svc.IngestEvent(tampered, header, secret)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if recent.Len() != 0 {
		t.Fatalf("no record may be created on signature mismatch")
	}
}

func TestIngestEventVerifiesValidSignature(t *testing.T) {
	recent := NewRecentStore(50)
	svc := NewService(recent, nil, nil, nil)

	secret := "whsec_test"
	header := signStripePayload([]byte(completedEvent), secret, time.Now())

	result, err := svc.IngestEvent([]byte(completedEvent), header, secret)
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if !result.Processed {
		t.Fatalf("expected signed event to be processed")
	}
}

func TestIngestEventIgnoresOtherEventTypes(t *testing.T) {
	recent := NewRecentStore(50)
	svc := NewService(recent, nil, nil, nil)

	result, err := svc.IngestEvent([]byte(`{"type":"invoice.paid","data":{"object":{}}}`), "", "")
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if result.Processed {
		t.Fatalf("expected non-checkout event to be acknowledged and ignored")
	}
	if recent.Len() != 0 {
		t.Fatalf("ignored events must not create records")
	}
}

func TestIngestEventRejectsInvalidRecord(t *testing.T) {
	recent := NewRecentStore(50)
	svc := NewService(recent, nil, nil, nil)

	tests := []struct {
		name  string
		event string
	}{
		{
			name:  "missing session id",
			event: `{"type":"checkout.session.completed","data":{"object":{"amount_total":900,"currency":"usd"}}}`,
		},
		{
			name:  "malformed email",
			event: `{"type":"checkout.session.completed","data":{"object":{"id":"cs_bad","amount_total":900,"currency":"usd","customer_details":{"name":"Jane","email":"not-an-email"}}}}`,
		},
	}
	for _, tt := range tests {
		if _, err := svc.IngestEvent([]byte(tt.event), "", ""); err == nil {
			t.Fatalf("%s: expected validation to reject the record", tt.name)
		}
	}
	if recent.Len() != 0 {
		t.Fatalf("invalid records must not be stored, got %d", recent.Len())
	}
}

func TestAddLocalValidatesRecord(t *testing.T) {
	recent := NewRecentStore(50)
	svc := NewService(recent, nil, nil, nil)

	valid := models.PaymentRecord{
		ID:           "test_1",
		CustomerName: "Jane Smith",
		Amount:       9.00,
		Currency:     "USD",
		Timestamp:    time.Now(),
	}
	if err := svc.AddLocal(valid); err != nil {
		t.Fatalf("unexpected error for a valid record: %v", err)
	}

	invalid := valid
	invalid.ID = "test_2"
	invalid.Currency = "dollars"
	if err := svc.AddLocal(invalid); err == nil {
		t.Fatalf("expected invalid currency to be rejected")
	}
	if recent.Len() != 1 {
		t.Fatalf("expected only the valid record to be stored, got %d", recent.Len())
	}
}

func TestRecentPrefersRecordStore(t *testing.T) {
	recent := NewRecentStore(50)
	recent.Add(models.PaymentRecord{ID: "local_1", CustomerName: "Local", Currency: "USD", Timestamp: time.Now()})

	store := &fakeStore{records: []models.PaymentRecord{
		{ID: "stored_1", CustomerName: "Durable", Currency: "USD", Timestamp: time.Now()},
	}}
	svc := NewService(recent, store, nil, nil)

	got := svc.Recent(context.Background(), 20)
	if len(got) != 1 || got[0].ID != "stored_1" {
		t.Fatalf("expected the record store's view, got %v", got)
	}
}

func TestRecentFallsBackWhenStoreEmpty(t *testing.T) {
	recent := NewRecentStore(50)
	recent.Add(models.PaymentRecord{ID: "local_1", CustomerName: "Local", Currency: "USD", Timestamp: time.Now()})

	svc := NewService(recent, &fakeStore{}, nil, nil)
	got := svc.Recent(context.Background(), 20)
	if len(got) != 1 || got[0].ID != "local_1" {
		t.Fatalf("expected fallback to local store, got %v", got)
	}
}

func TestRecentFallsBackWhenStoreUnavailable(t *testing.T) {
	recent := NewRecentStore(50)
	recent.Add(models.PaymentRecord{ID: "local_1", CustomerName: "Local", Currency: "USD", Timestamp: time.Now()})

	store := &fakeStore{listErr: recordstore.ErrUnavailable}
	svc := NewService(recent, store, nil, nil)
	got := svc.Recent(context.Background(), 20)
	if len(got) != 1 || got[0].ID != "local_1" {
		t.Fatalf("expected fallback to local store on unavailability, got %v", got)
	}
}

func TestRecentEmptyEverywhereIsFinal(t *testing.T) {
	svc := NewService(NewRecentStore(50), &fakeStore{}, nil, nil)
	got := svc.Recent(context.Background(), 20)
	if len(got) != 0 {
		t.Fatalf("an empty result from the fallback is valid and final, got %v", got)
	}
}

func TestWriterCountsFailures(t *testing.T) {
	store := &fakeStore{createErr: errors.New("backend down")}
	writer := NewWriter(store)
	writer.Start()
	writer.Enqueue(models.PaymentRecord{ID: "cs_fail", Currency: "USD", Timestamp: time.Now()})
	writer.Stop()

	if writer.Failures() != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", writer.Failures())
	}
	if len(store.stored()) != 0 {
		t.Fatalf("failed write must not appear in the store")
	}
}
