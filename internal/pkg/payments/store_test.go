package payments

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/proofboard/proofboard/app/models"
)

func testPayment(i int) models.PaymentRecord {
	return models.PaymentRecord{
		ID:           fmt.Sprintf("cs_%03d", i),
		CustomerName: fmt.Sprintf("Customer %d", i),
		Amount:       float64(i),
		Currency:     "USD",
		Timestamp:    time.Now(),
	}
}

func TestRecentStoreCapAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 49, 50, 51, 120} {
		s := NewRecentStore(50)
		for i := 0; i < n; i++ {
			s.Add(testPayment(i))
		}

		got := s.Recent(math.MaxInt)
		want := n
		if want > 50 {
			want = 50
		}
		if len(got) != want {
			t.Fatalf("after %d inserts expected %d records, got %d", n, want, len(got))
		}

		// Newest first, exact insertion order.
		for j, p := range got {
			if p.ID != fmt.Sprintf("cs_%03d", n-1-j) {
				t.Fatalf("after %d inserts, position %d = %s", n, j, p.ID)
			}
		}
	}
}

func TestRecentStoreLimitClamping(t *testing.T) {
	s := NewRecentStore(50)
	for i := 0; i < 5; i++ {
		s.Add(testPayment(i))
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 0},
		{limit: -1, want: 0},
		{limit: 3, want: 3},
		{limit: 5, want: 5},
		{limit: 100, want: 5},
	}
	for _, tt := range tests {
		if got := s.Recent(tt.limit); len(got) != tt.want {
			t.Fatalf("Recent(%d) returned %d records, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestRecentStoreDropsDuplicateIDs(t *testing.T) {
	s := NewRecentStore(50)
	p := testPayment(1)
	s.Add(p)
	s.Add(p) // provider redelivery
	if s.Len() != 1 {
		t.Fatalf("expected redelivered record to be dropped, got %d records", s.Len())
	}
}

func TestRecentStoreClear(t *testing.T) {
	s := NewRecentStore(50)
	s.Add(testPayment(1))
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", s.Len())
	}
}
