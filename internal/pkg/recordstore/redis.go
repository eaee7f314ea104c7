package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/proofboard/proofboard/app/models"
)

const (
	redisPaymentsKey = "payments:recent"
	// Redis keeps a deeper history than the in-process store.
	redisPaymentsCap = 200
)

// RedisStore keeps payments in a capped Redis list, newest first. Unlike the
// HTTP backends it lives on infrastructure we run ourselves, which makes it
// the cheapest way to survive a process restart.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Create(ctx context.Context, p models.PaymentRecord) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, redisPaymentsKey, data)
	pipe.LTrim(ctx, redisPaymentsKey, 0, redisPaymentsCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return []models.PaymentRecord{}, nil
	}

	entries, err := s.client.LRange(ctx, redisPaymentsKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	payments := make([]models.PaymentRecord, 0, len(entries))
	for _, entry := range entries {
		var p models.PaymentRecord
		if err := json.Unmarshal([]byte(entry), &p); err != nil {
			// Skip entries written by older schema versions.
			continue
		}
		payments = append(payments, p)
	}
	return payments, nil
}
