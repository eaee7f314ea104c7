package models

import "time"

// StoredPayment is the MySQL row shape for the database record-store
// backend. The provider session ID is unique so webhook redeliveries
// cannot insert the same purchase twice.
type StoredPayment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"session_id"`
	CustomerName string    `gorm:"type:varchar(150);not null" json:"customer_name"`
	Amount       float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency     string    `gorm:"type:varchar(3);not null" json:"currency"`
	Email        string    `gorm:"type:varchar(200)" json:"email"`
	Plan         string    `gorm:"type:varchar(50)" json:"plan"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ToRecord converts a row back into the wire-level payment record.
func (s *StoredPayment) ToRecord() PaymentRecord {
	return PaymentRecord{
		ID:           s.SessionID,
		CustomerName: s.CustomerName,
		Amount:       s.Amount,
		Currency:     s.Currency,
		Timestamp:    s.Timestamp,
		Email:        s.Email,
		Plan:         s.Plan,
	}
}

// NewStoredPayment maps a payment record onto its row shape.
func NewStoredPayment(p PaymentRecord) StoredPayment {
	return StoredPayment{
		SessionID:    p.ID,
		CustomerName: p.CustomerName,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Email:        p.Email,
		Plan:         p.Plan,
		Timestamp:    p.Timestamp,
	}
}
