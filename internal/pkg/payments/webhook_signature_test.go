package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signStripePayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	secret := "whsec_test"
	now := time.Now()

	header := signStripePayload(payload, secret, now)
	if !verifyStripeSignatureAt(payload, header, secret, now) {
		t.Fatalf("expected valid signature to verify")
	}

	// Tampered body must fail.
	if verifyStripeSignatureAt([]byte(`{"type":"evil"}`), header, secret, now) {
		t.Fatalf("expected tampered body to fail verification")
	}

	// Wrong secret must fail.
	if verifyStripeSignatureAt(payload, header, "whsec_other", now) {
		t.Fatalf("expected wrong secret to fail verification")
	}

	// Missing header or secret never verifies.
	if verifyStripeSignatureAt(payload, "", secret, now) {
		t.Fatalf("expected empty header to fail")
	}
	if verifyStripeSignatureAt(payload, header, "", now) {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestVerifyStripeWebhookSignatureTolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Now()

	stale := signStripePayload(payload, secret, now.Add(-10*time.Minute))
	if verifyStripeSignatureAt(payload, stale, secret, now) {
		t.Fatalf("expected signature outside tolerance window to fail")
	}

	recent := signStripePayload(payload, secret, now.Add(-time.Minute))
	if !verifyStripeSignatureAt(payload, recent, secret, now) {
		t.Fatalf("expected signature inside tolerance window to verify")
	}
}

func TestVerifyStripeWebhookSignatureMultipleCandidates(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Now()

	// Stripe sends multiple v1 entries during secret rotation.
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", now.Unix(), payload)
	sig := hex.EncodeToString(mac.Sum(nil))
	rotated := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), "00"+sig[2:], sig)

	if !verifyStripeSignatureAt(payload, rotated, secret, now) {
		t.Fatalf("expected one matching candidate among several to verify")
	}
}
