package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PaymentRecord is a single successful purchase as shown on the dashboard.
// Records are built once at ingestion time and never mutated afterwards.
type PaymentRecord struct {
	ID           string    `json:"id" validate:"required"`
	CustomerName string    `json:"customerName" validate:"required"`
	Amount       float64   `json:"amount" validate:"gte=0"`
	Currency     string    `json:"currency" validate:"required,len=3,uppercase"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
	Plan         string    `json:"plan,omitempty"`
}

func (p *PaymentRecord) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// NormalizeCurrency uppercases a provider currency code, defaulting to USD
// when the provider omits it.
func NormalizeCurrency(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "USD"
	}
	return c
}
