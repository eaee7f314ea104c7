// Package recordstore persists payment records beyond the serving process.
// All backends implement the same capability pair, create and list; which
// one runs is a deployment decision (RECORD_STORE environment variable).
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/cache"
	"github.com/proofboard/proofboard/internal/pkg/database"
	"github.com/proofboard/proofboard/internal/pkg/env"
)

var (
	// ErrNotConfigured means the backend is missing credentials.
	ErrNotConfigured = errors.New("record store not configured")
	// ErrUnavailable means the backend exists but could not be reached or
	// answered with a failure. An empty successful listing is NOT this; the
	// caller can tell "no records yet" apart from "store is down".
	ErrUnavailable = errors.New("record store unavailable")
)

// Store is the capability set every record-store backend provides.
// List returns up to limit records sorted newest first; a nil error with an
// empty slice is a valid "no records" outcome, unavailability is an error.
type Store interface {
	Name() string
	Create(ctx context.Context, p models.PaymentRecord) error
	List(ctx context.Context, limit int) ([]models.PaymentRecord, error)
}

// wireAmount tolerates every amount encoding the external backends use: a
// plain JSON number, a numeric string, or an arbitrary-precision
// {digits, exponent} object reconstructing as digits × 10^exponent. It
// always serializes as a two-decimal number.
type wireAmount float64

func (a wireAmount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(a), 'f', 2, 64)), nil
}

func (a *wireAmount) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Digits   int64 `json:"digits"`
			Exponent int32 `json:"exponent"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		f, _ := decimal.New(obj.Digits, obj.Exponent).Float64()
		*a = wireAmount(f)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		// Numeric string variant.
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		num = json.Number(str)
	}
	f, err := num.Float64()
	if err != nil {
		*a = 0
		return nil
	}
	*a = wireAmount(f)
	return nil
}

// FromEnv selects the configured backend, or nil when none is configured.
func FromEnv() Store {
	backend := strings.ToLower(strings.TrimSpace(env.GetEnv("RECORD_STORE", "")))
	switch backend {
	case "airtable":
		return NewAirtableStoreFromEnv()
	case "memberstack":
		return NewMemberstackStoreFromEnv()
	case "redis":
		return NewRedisStore(cache.GetClient())
	case "mysql", "db":
		if err := database.SetupDatabase(); err != nil {
			log.Errorf("[RecordStore] MySQL backend unusable: %v", err)
			return nil
		}
		return NewDatabaseStore(database.GetDB())
	case "", "none":
		return nil
	default:
		log.Warnf("[RecordStore] Unknown RECORD_STORE value %q, persistence disabled", backend)
		return nil
	}
}
