package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// The provider retries on failure, so the webhook must never be rate
	// limited; everything user-triggered is.
	api.Post("/webhook", h.deps.Payments.HandleStripeWebhook)
	api.Get("/payments", h.deps.Payments.HandleRecentPayments)

	limited := api.Group("", limiter.New())
	limited.Post("/create-checkout", h.deps.Payments.HandleCreateCheckout)
	limited.Post("/test-payment", h.deps.Payments.HandleTestPayment)
	limited.Post("/test/record-store", h.deps.Diag.HandleRecordStoreWrite)
	limited.Get("/test/record-store", h.deps.Diag.HandleRecordStoreRead)
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
