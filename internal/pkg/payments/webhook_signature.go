package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Stripe rejects events older than five minutes; we mirror that window.
const signatureTolerance = 5 * time.Minute

// VerifyStripeWebhookSignature checks a Stripe-Signature header against the
// raw request body. The header carries "t=<unix>,v1=<hex>" pairs; the signed
// payload is "<t>.<body>" under HMAC-SHA256 with the endpoint secret.
func VerifyStripeWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	return verifyStripeSignatureAt(payload, signatureHeader, webhookSecret, time.Now())
}

func verifyStripeSignatureAt(payload []byte, signatureHeader, webhookSecret string, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	timestamp := int64(0)
	var candidates [][]byte
	for _, pair := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return false
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(strings.ToLower(v))
			if err != nil {
				continue
			}
			candidates = append(candidates, sig)
		}
	}
	if timestamp == 0 || len(candidates) == 0 {
		return false
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return false
	}

	signed := make([]byte, 0, len(payload)+21)
	signed = append(signed, strconv.FormatInt(timestamp, 10)...)
	signed = append(signed, '.')
	signed = append(signed, payload...)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(signed)
	expected := mac.Sum(nil)

	for _, sig := range candidates {
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}
