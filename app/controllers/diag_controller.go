package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/proofboard/proofboard/app/models"
	"github.com/proofboard/proofboard/internal/pkg/payments"
)

// DiagController probes the record-store adapter directly so operators can
// validate credentials. These endpoints bypass the ingestion pipeline.
type DiagController struct {
	svc *payments.Service
}

func NewDiagController(svc *payments.Service) *DiagController {
	return &DiagController{svc: svc}
}

// HandleRecordStoreWrite pushes a synthetic payment through the adapter's
// write path and reports the raw outcome.
func (ctrl *DiagController) HandleRecordStoreWrite(c *fiber.Ctx) error {
	store := ctrl.svc.Store()
	testPayment := models.PaymentRecord{
		ID:           "cs_test_" + uuid.NewString(),
		CustomerName: "Test Customer",
		Amount:       99.99,
		Currency:     "USD",
		Timestamp:    time.Now(),
		Email:        "test@example.com",
		Plan:         payments.PlanPremium,
	}

	if store == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"backend": "none",
			"error":   "no record store configured (set RECORD_STORE)",
			"payment": testPayment,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.Create(ctx, testPayment); err != nil {
		log.Errorf("[Diag] Record store write failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"backend": store.Name(),
			"error":   err.Error(),
			"payment": testPayment,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"backend": store.Name(),
		"message": "payment saved to record store",
		"payment": testPayment,
	})
}

// HandleRecordStoreRead exercises the adapter's read path.
func (ctrl *DiagController) HandleRecordStoreRead(c *fiber.Ctx) error {
	store := ctrl.svc.Store()
	if store == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"backend": "none",
			"error":   "no record store configured (set RECORD_STORE)",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	records, err := store.List(ctx, recentPaymentsLimit)
	if err != nil {
		log.Errorf("[Diag] Record store read failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"backend": store.Name(),
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"backend":  store.Name(),
		"count":    len(records),
		"payments": records,
	})
}
