package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/recordstore"
)

// ErrInvalidSignature means the webhook body does not match its signature
// header. Nothing is processed in that case.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Service runs the ingestion and query pipeline: provider events in, recent
// payments out. The durable record store is optional; the in-process store
// is always written.
type Service struct {
	recent   *RecentStore
	store    recordstore.Store
	writer   *Writer
	resolver *PlanResolver
}

// NewService wires the pipeline. store may be nil (no durable persistence),
// writer may be nil (synchronous best-effort writes are skipped entirely).
func NewService(recent *RecentStore, store recordstore.Store, writer *Writer, resolver *PlanResolver) *Service {
	if resolver == nil {
		resolver = NewPlanResolver(nil)
	}
	return &Service{recent: recent, store: store, writer: writer, resolver: resolver}
}

// IngestResult describes what a webhook delivery produced.
type IngestResult struct {
	// Processed is true when a payment record was created; false means the
	// event type was acknowledged and ignored.
	Processed bool
	Payment   *models.PaymentRecord
}

// IngestEvent runs one webhook delivery through the pipeline:
//
//  1. When both a signature header and a signing secret exist, the raw body
//     is verified; a mismatch rejects the event. With either missing the
//     body is parsed unverified (accepted trust gap for demo use).
//  2. Only checkout completions create records; other event types are
//     acknowledged and ignored.
//  3. The record is normalized and written through: synchronously to the
//     in-process store, asynchronously (best effort) to the record store.
func (s *Service) IngestEvent(rawBody []byte, signatureHeader, signingSecret string) (*IngestResult, error) {
	if signatureHeader != "" && signingSecret != "" {
		if !VerifyStripeWebhookSignature(rawBody, signatureHeader, signingSecret) {
			return nil, ErrInvalidSignature
		}
	}

	event, err := ParseStripeEvent(rawBody)
	if err != nil {
		return nil, err
	}

	if event.Type != EventCheckoutCompleted {
		return &IngestResult{Processed: false}, nil
	}

	payment := NewPaymentFromSession(&event.Data.Object, s.resolver, time.Now())
	if err := payment.Validate(); err != nil {
		return nil, fmt.Errorf("payment record failed validation: %w", err)
	}
	s.recent.Add(payment)
	if s.writer != nil {
		s.writer.Enqueue(payment)
	}

	log.Infof("[Payments] Recorded payment %s: %s %s %.2f plan=%s",
		payment.ID, payment.CustomerName, payment.Currency, payment.Amount, payment.Plan)
	return &IngestResult{Processed: true, Payment: &payment}, nil
}

// AddLocal inserts a synthetic payment directly into the in-process store,
// bypassing the provider. Used by the manual test endpoint. The record must
// pass the same validation as ingested payments.
func (s *Service) AddLocal(p models.PaymentRecord) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("payment record failed validation: %w", err)
	}
	s.recent.Add(p)
	return nil
}

// Recent returns up to limit payments, newest first. The durable record
// store's view is preferred; when it is unconfigured, unreachable, or holds
// no records yet, the in-process store answers instead. An empty answer from
// the fallback is valid and final.
func (s *Service) Recent(ctx context.Context, limit int) []models.PaymentRecord {
	if limit <= 0 {
		return []models.PaymentRecord{}
	}

	if s.store != nil {
		stored, err := s.store.List(ctx, limit)
		switch {
		case errors.Is(err, recordstore.ErrNotConfigured):
			// Fall through to the local store without noise.
		case err != nil:
			log.Warnf("[Payments] Record store %s unavailable, serving local view: %v", s.store.Name(), err)
		case len(stored) > 0:
			return stored
		}
	}

	return s.recent.Recent(limit)
}

// Store exposes the configured record store for diagnostics endpoints; nil
// when persistence is disabled.
func (s *Service) Store() recordstore.Store {
	return s.store
}
