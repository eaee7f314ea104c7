package controllers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/checkout"
	"github.com/proofboard/proofboard/internal/pkg/env"
	"github.com/proofboard/proofboard/internal/pkg/payments"
)

// The public API always serves at most this many payments.
const recentPaymentsLimit = 20

// PaymentController owns the payment pipeline's HTTP surface. Dependencies
// are injected so tests can run it against fakes.
type PaymentController struct {
	svc      *payments.Service
	checkout *checkout.Client
}

func NewPaymentController(svc *payments.Service, checkoutClient *checkout.Client) *PaymentController {
	return &PaymentController{svc: svc, checkout: checkoutClient}
}

// HandleStripeWebhook ingests provider event notifications. Once signature
// verification (if attempted) passes, the provider always gets an
// acknowledgment; persistence problems must not trigger provider retries.
func (ctrl *PaymentController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	result, err := ctrl.svc.IngestEvent(rawBody, signature, secret)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			log.Warn("[Webhook] Signature verification failed")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "signature_verification_failed"})
		}
		log.Warnf("[Webhook] Rejected malformed payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	if !result.Processed {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "ignored": true})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// HandleRecentPayments serves the most recent payments, newest first.
func (ctrl *PaymentController) HandleRecentPayments(c *fiber.Ctx) error {
	recent := ctrl.svc.Recent(c.Context(), recentPaymentsLimit)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"payments": recent})
}

// HandleCreateCheckout opens a provider-hosted checkout transaction and
// returns its redirect URL. Unlike webhook persistence, failures here are
// surfaced: the caller must know before redirecting a user.
func (ctrl *PaymentController) HandleCreateCheckout(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := ctrl.checkout.CreateSession(ctx, ctrl.baseURL(c))
	if err != nil {
		log.Errorf("[Checkout] Session creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	log.Infof("[Checkout] Session created: %s", session.ID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": session.URL})
}

// HandleTestPayment inserts a synthetic payment directly into the in-process
// store so the dashboard can be exercised without the provider.
func (ctrl *PaymentController) HandleTestPayment(c *fiber.Ctx) error {
	payment := randomTestPayment()
	if err := ctrl.svc.AddLocal(payment); err != nil {
		log.Errorf("[Payments] Rejected test payment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "payment": payment})
}

func (ctrl *PaymentController) baseURL(c *fiber.Ctx) string {
	if base := strings.TrimSpace(env.GetEnv("PUBLIC_DOMAIN", "")); base != "" {
		return base
	}
	proto := strings.TrimSpace(c.Get("X-Forwarded-Proto"))
	if proto == "" {
		proto = c.Protocol()
	}
	return proto + "://" + c.Hostname()
}

var testCustomerNames = []string{
	"John Doe",
	"Jane Smith",
	"Mike Johnson",
	"Sarah Williams",
	"David Brown",
	"Emily Davis",
	"Chris Wilson",
	"Lisa Anderson",
}

func randomTestPayment() models.PaymentRecord {
	name := testCustomerNames[rand.Intn(len(testCustomerNames))]
	amount := float64(int((rand.Float64()*100+10)*100)) / 100

	plans := []string{payments.PlanBasic, payments.PlanProPlus, payments.PlanPremium}
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"

	return models.PaymentRecord{
		ID:           fmt.Sprintf("test_%s", uuid.NewString()),
		CustomerName: name,
		Amount:       amount,
		Currency:     "USD",
		Timestamp:    time.Now(),
		Email:        email,
		Plan:         plans[rand.Intn(len(plans))],
	}
}
