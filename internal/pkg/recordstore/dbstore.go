package recordstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/proofboard/proofboard/app/models"
)

// DatabaseStore persists payments to MySQL through GORM. Inserts are
// idempotent on the provider session ID, so redelivered webhooks do not
// duplicate rows.
type DatabaseStore struct {
	db *gorm.DB
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Name() string { return "mysql" }

func (s *DatabaseStore) Create(ctx context.Context, p models.PaymentRecord) error {
	if s.db == nil {
		return ErrNotConfigured
	}

	row := models.NewStoredPayment(p)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *DatabaseStore) List(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return []models.PaymentRecord{}, nil
	}

	var rows []models.StoredPayment
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	payments := make([]models.PaymentRecord, 0, len(rows))
	for i := range rows {
		payments = append(payments, rows[i].ToRecord())
	}
	return payments, nil
}
