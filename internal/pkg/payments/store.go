package payments

import (
	"sync"

	"github.com/proofboard/proofboard/app/models"
)

// MaxRecentPayments caps how many purchases the in-process store retains.
const MaxRecentPayments = 50

// RecentStore is a bounded, newest-first list of payment records. It is the
// fast local view the dashboard falls back to when no durable record store
// is configured or reachable. Contents do not survive a process restart and
// are not shared across instances.
type RecentStore struct {
	mu       sync.RWMutex
	payments []models.PaymentRecord
	max      int
}

// NewRecentStore creates a store retaining up to max records. max <= 0 uses
// MaxRecentPayments.
func NewRecentStore(max int) *RecentStore {
	if max <= 0 {
		max = MaxRecentPayments
	}
	return &RecentStore{max: max}
}

// Add prepends a record and drops the oldest entries beyond capacity.
// A record whose ID is already present in the retained window is ignored,
// so provider redeliveries do not produce duplicate cards.
func (s *RecentStore) Add(p models.PaymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.ID == p.ID {
			return
		}
	}

	s.payments = append([]models.PaymentRecord{p}, s.payments...)
	if len(s.payments) > s.max {
		s.payments = s.payments[:s.max]
	}
}

// Recent returns up to limit records, newest first. limit is clamped to the
// stored count; limit <= 0 yields an empty slice.
func (s *RecentStore) Recent(limit int) []models.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []models.PaymentRecord{}
	}
	if limit > len(s.payments) {
		limit = len(s.payments)
	}
	out := make([]models.PaymentRecord, limit)
	copy(out, s.payments[:limit])
	return out
}

// Len reports how many records are currently retained.
func (s *RecentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

// Clear empties the store.
func (s *RecentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = nil
}
